// Package publisher announces ledger transactions to a chat channel.
// It is an observer on the accounting path: delivery is best-effort,
// at-most-once-attempted, and failures never reach the ledger.
package publisher

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"cohort-points-bot/internal/model"
)

// Sender delivers one announcement to the configured external channel.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// UserResolver resolves platform IDs to user records for display names.
type UserResolver interface {
	GetByPlatformID(ctx context.Context, platformID string) (*model.User, error)
}

// Publisher composes and delivers a human-readable message for each
// transaction, suppressing anything that involves a test-like account.
type Publisher struct {
	users  UserResolver
	sender Sender
}

// New creates a Publisher.
func New(users UserResolver, sender Sender) *Publisher {
	return &Publisher{users: users, sender: sender}
}

// OnTransaction implements service.TransactionObserver. Suppression is
// all-or-nothing: if the subject or any counterparty resolves test-like,
// nothing is announced.
func (p *Publisher) OnTransaction(ctx context.Context, tx *model.Transaction) error {
	subject, err := p.users.GetByPlatformID(ctx, tx.UserID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", tx.UserID).Msg("Publisher could not resolve subject")
		return nil
	}

	parties := []*model.User{subject}
	var counterpart *model.User
	if counterpartID := p.counterpartID(tx); counterpartID != "" {
		counterpart, err = p.users.GetByPlatformID(ctx, counterpartID)
		if err != nil {
			log.Warn().Err(err).Str("user_id", counterpartID).Msg("Publisher could not resolve counterparty")
			return nil
		}
		parties = append(parties, counterpart)
	}

	for _, u := range parties {
		if IsTestLikeUser(u) {
			log.Debug().
				Int64("tx_id", tx.ID).
				Str("user_id", u.PlatformID).
				Msg("Suppressing announcement for test-like account")
			return nil
		}
	}

	text := p.compose(tx, subject, counterpart)
	if text == "" {
		return nil
	}

	if err := p.sender.Send(ctx, text); err != nil {
		// Logged, never retried, never propagated to the accounting path.
		log.Error().Err(err).Int64("tx_id", tx.ID).Msg("Failed to deliver announcement")
	}
	return nil
}

// counterpartID returns the other party of a gratitude transaction, if any.
func (p *Publisher) counterpartID(tx *model.Transaction) string {
	switch tx.Reason {
	case model.ReasonGratitudeSent:
		if tx.ToUserID != nil {
			return *tx.ToUserID
		}
	case model.ReasonGratitudeReceived:
		if tx.FromUserID != nil {
			return *tx.FromUserID
		}
	}
	return ""
}

func (p *Publisher) compose(tx *model.Transaction, subject, counterpart *model.User) string {
	name := subject.DisplayName()

	switch tx.Reason {
	case model.ReasonAttendance:
		if tx.Generation != nil && tx.Week != nil && *tx.Generation > 0 {
			return fmt.Sprintf("✅ %s님이 %d기 %d주차 출석으로 %+d점을 받았어요. (누적 %d점)",
				name, *tx.Generation, *tx.Week, tx.Points, subject.TotalPoints)
		}
		return fmt.Sprintf("✅ %s님이 출석으로 %+d점을 받았어요. (누적 %d점)",
			name, tx.Points, subject.TotalPoints)
	case model.ReasonGratitudeSent:
		if counterpart == nil {
			return ""
		}
		return fmt.Sprintf("💝 %s님이 %s님에게 감사를 전하고 %+d점을 받았어요.",
			name, counterpart.DisplayName(), tx.Points)
	case model.ReasonGratitudeReceived:
		if counterpart == nil {
			return ""
		}
		return fmt.Sprintf("💝 %s님이 %s님의 감사로 %+d점을 받았어요. (누적 %d점)",
			name, counterpart.DisplayName(), tx.Points, subject.TotalPoints)
	case model.ReasonAdminGrant:
		return fmt.Sprintf("🎁 %s님에게 %+d점이 지급되었어요. (누적 %d점)",
			name, tx.Points, subject.TotalPoints)
	case model.ReasonAdminRevoke:
		return fmt.Sprintf("⚠️ %s님의 포인트가 %+d점 조정되었어요. (누적 %d점)",
			name, tx.Points, subject.TotalPoints)
	}
	return ""
}
