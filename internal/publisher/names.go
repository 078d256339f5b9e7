package publisher

import (
	"strings"

	"cohort-points-bot/internal/model"
)

// testLikePatterns are case-insensitive substrings that mark a display
// name as test data. Conservative but effective for typical test names.
var testLikePatterns = []string{
	"testuser",
	"test",
	"테스트",
	"dummy",
	"sample",
}

// IsTestLikeName reports whether a username/nickname looks like test data.
func IsTestLikeName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return false
	}
	for _, p := range testLikePatterns {
		if strings.Contains(n, p) {
			return true
		}
	}
	return false
}

// IsTestLikeUser reports whether either of a user's names looks like test
// data.
func IsTestLikeUser(u *model.User) bool {
	if u == nil {
		return false
	}
	return IsTestLikeName(u.Username) || IsTestLikeName(u.Nickname)
}
