// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"cohort-points-bot/internal/model"
	"cohort-points-bot/internal/repository"
)

// Validation errors for the ledger.
var (
	ErrZeroPoints    = errors.New("points delta cannot be zero")
	ErrUnknownReason = errors.New("unknown transaction reason")
	ErrEmptyUserID   = errors.New("user id cannot be empty")
)

// TransactionObserver receives each persisted transaction. Observers are
// for human-facing announcements, not accounting: failures are logged and
// never roll back or block the ledger write.
type TransactionObserver interface {
	OnTransaction(ctx context.Context, tx *model.Transaction) error
}

// Ledger is the single choke point for all balance mutation. Every point
// delta in the system goes through Record; no other component touches
// users.total_points.
type Ledger struct {
	userRepo *repository.UserRepository
	txRepo   *repository.TransactionRepository

	mu        sync.Mutex
	observers []TransactionObserver
}

// NewLedger creates a new Ledger instance.
func NewLedger(userRepo *repository.UserRepository, txRepo *repository.TransactionRepository) *Ledger {
	return &Ledger{
		userRepo: userRepo,
		txRepo:   txRepo,
	}
}

// AddObserver registers an observer. Observers are notified in
// registration order.
func (l *Ledger) AddObserver(obs TransactionObserver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, obs)
}

// RemoveObserver unregisters an observer.
func (l *Ledger) RemoveObserver(obs TransactionObserver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, o := range l.observers {
		if o == obs {
			l.observers = append(l.observers[:i], l.observers[i+1:]...)
			return
		}
	}
}

// Record validates and appends a transaction, then synchronously notifies
// observers with the persisted row. A crash after the append but before
// notification loses the announcement, not the accounting.
func (l *Ledger) Record(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	if tx.UserID == "" {
		return nil, ErrEmptyUserID
	}
	if tx.Points == 0 {
		return nil, ErrZeroPoints
	}
	if !model.KnownReason(tx.Reason) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownReason, tx.Reason)
	}

	persisted, err := l.txRepo.Append(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to append transaction: %w", err)
	}

	l.notify(ctx, persisted)
	return persisted, nil
}

// notify delivers the transaction to each observer, isolating failures.
func (l *Ledger) notify(ctx context.Context, tx *model.Transaction) {
	l.mu.Lock()
	observers := make([]TransactionObserver, len(l.observers))
	copy(observers, l.observers)
	l.mu.Unlock()

	for _, obs := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Int64("tx_id", tx.ID).
						Msg("Transaction observer panicked")
				}
			}()
			if err := obs.OnTransaction(ctx, tx); err != nil {
				log.Error().
					Err(err).
					Int64("tx_id", tx.ID).
					Str("user_id", tx.UserID).
					Msg("Transaction observer failed")
			}
		}()
	}
}

// Balance returns the cached total for a user, 0 if the user is unknown.
// Never recomputes from the log on the hot path.
func (l *Ledger) Balance(ctx context.Context, platformID string) (int64, error) {
	user, err := l.userRepo.GetByPlatformID(ctx, platformID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return user.TotalPoints, nil
}

// History returns a user's most recent transactions.
func (l *Ledger) History(ctx context.Context, platformID string, limit int) ([]*model.Transaction, error) {
	return l.txRepo.ListByUser(ctx, platformID, limit)
}

// Top returns the highest-balance users.
func (l *Ledger) Top(ctx context.Context, limit int) ([]*model.User, error) {
	return l.userRepo.GetTopUsers(ctx, limit)
}
