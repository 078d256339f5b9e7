package model

import "testing"

func TestUserDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"nickname and username", User{Username: "alice", Nickname: "앨리스"}, "앨리스(alice)"},
		{"same nickname", User{Username: "alice", Nickname: "alice"}, "alice"},
		{"username only", User{Username: "alice"}, "alice"},
		{"nickname only", User{Nickname: "앨리스"}, "앨리스"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.DisplayName(); got != tt.want {
				t.Fatalf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKnownReason(t *testing.T) {
	for _, reason := range []string{
		ReasonAttendance, ReasonGratitudeSent, ReasonGratitudeReceived,
		ReasonAdminGrant, ReasonAdminRevoke,
	} {
		if !KnownReason(reason) {
			t.Fatalf("reason %q should be known", reason)
		}
	}
	for _, reason := range []string{"", "bonus", "ATTENDANCE", "gratitude"} {
		if KnownReason(reason) {
			t.Fatalf("reason %q should be unknown", reason)
		}
	}
}
