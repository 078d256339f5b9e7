package handler

import (
	"strings"
	"testing"
)

func TestHelpTextListsEveryCommand(t *testing.T) {
	commands := []string{
		"/ping", "/help",
		"/points", "/rank", "/my_attendance",
		"/thanks", "/thanks_log", "/week", "/overview", "/checkin",
		"/approve", "/grant", "/revoke", "/code_new",
	}
	text := helpText()
	for _, cmd := range commands {
		if !strings.Contains(text, cmd) {
			t.Fatalf("help text is missing %s", cmd)
		}
	}
}
