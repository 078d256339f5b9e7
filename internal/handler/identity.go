// Package handler provides chat bot command handlers. Handlers stay thin:
// they extract identity and parameters, call one core operation, and
// forward its message.
package handler

import (
	"strconv"

	tele "gopkg.in/telebot.v3"
)

// errTryAgain is the generic user-facing infrastructure failure reply.
// Store errors surface here as "try again", never silently swallowed.
const errTryAgain = "❌ 처리 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."

// platformID renders a platform user ID as the string identity the ledger
// keys on.
func platformID(u *tele.User) string {
	return strconv.FormatInt(u.ID, 10)
}

// usernameOf returns the best available handle for a user.
func usernameOf(u *tele.User) string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

// nicknameOf returns the user's display name, distinct from the handle.
func nicknameOf(u *tele.User) string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}
