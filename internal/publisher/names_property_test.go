// Property-based tests for test-like name detection.
package publisher

import (
	"strings"
	"testing"

	"pgregory.net/rapid"

	"cohort-points-bot/internal/model"
)

// TestTestLikeNameDetectionProperty tests that any name containing a
// known test pattern is detected regardless of surrounding characters or
// letter case.
func TestTestLikeNameDetectionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pattern := rapid.SampledFrom(testLikePatterns).Draw(t, "pattern")
		prefix := rapid.StringMatching(`[a-z가-힣_]{0,8}`).Draw(t, "prefix")
		suffix := rapid.StringMatching(`[a-z가-힣_0-9]{0,8}`).Draw(t, "suffix")

		name := prefix + pattern + suffix
		if !IsTestLikeName(name) {
			t.Fatalf("Name %q contains pattern %q but was not detected", name, pattern)
		}

		// Detection is case-insensitive.
		if !IsTestLikeName(strings.ToUpper(name)) {
			t.Fatalf("Uppercased name %q should still be detected", strings.ToUpper(name))
		}
	})
}

// TestCleanNameNotDetectedProperty tests that names built without any
// test pattern are never flagged.
func TestCleanNameNotDetectedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// An alphabet disjoint from every pattern.
		name := rapid.StringMatching(`[xyzw가나다라]{1,12}`).Draw(t, "name")
		if IsTestLikeName(name) {
			t.Fatalf("Clean name %q should not be flagged as test-like", name)
		}
	})
}

// TestTestLikeUserEitherNameProperty tests that a user is flagged if the
// pattern appears in either the username or the nickname.
func TestTestLikeUserEitherNameProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pattern := rapid.SampledFrom(testLikePatterns).Draw(t, "pattern")
		clean := rapid.StringMatching(`[xyzw]{1,8}`).Draw(t, "clean")
		inUsername := rapid.Bool().Draw(t, "inUsername")

		u := &model.User{Username: clean, Nickname: clean}
		if inUsername {
			u.Username = clean + pattern
		} else {
			u.Nickname = clean + pattern
		}

		if !IsTestLikeUser(u) {
			t.Fatalf("User %+v carries pattern %q but was not flagged", u, pattern)
		}
	})
}

func TestIsTestLikeNameEdgeCases(t *testing.T) {
	if IsTestLikeName("") {
		t.Fatal("empty name should not be test-like")
	}
	if IsTestLikeName("   ") {
		t.Fatal("whitespace-only name should not be test-like")
	}
	if !IsTestLikeName("  Test  ") {
		t.Fatal("padded pattern should still be detected")
	}
	if IsTestLikeUser(nil) {
		t.Fatal("nil user should not be test-like")
	}
}
