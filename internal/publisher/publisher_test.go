package publisher

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohort-points-bot/internal/model"
)

// fakeSender records sent texts and can simulate delivery failure.
type fakeSender struct {
	sent    []string
	failErr error
}

func (s *fakeSender) Send(_ context.Context, text string) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.sent = append(s.sent, text)
	return nil
}

// fakeResolver serves users from an in-memory map.
type fakeResolver struct {
	users map[string]*model.User
}

func (r *fakeResolver) GetByPlatformID(_ context.Context, platformID string) (*model.User, error) {
	u, ok := r.users[platformID]
	if !ok {
		return nil, fmt.Errorf("user %s not found", platformID)
	}
	return u, nil
}

func newResolver(users ...*model.User) *fakeResolver {
	r := &fakeResolver{users: make(map[string]*model.User)}
	for _, u := range users {
		r.users[u.PlatformID] = u
	}
	return r
}

func member(id, username, nickname string, total int64) *model.User {
	return &model.User{PlatformID: id, Username: username, Nickname: nickname, TotalPoints: total}
}

func TestPublisher_AnnouncesAttendance(t *testing.T) {
	sender := &fakeSender{}
	p := New(newResolver(member("1", "alice", "앨리스", 100)), sender)

	gen, week := 6, 3
	err := p.OnTransaction(context.Background(), &model.Transaction{
		ID: 1, UserID: "1", Points: 100, Reason: model.ReasonAttendance,
		Generation: &gen, Week: &week,
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "앨리스(alice)")
	assert.Contains(t, sender.sent[0], "6기 3주차")
	assert.Contains(t, sender.sent[0], "+100")
	assert.Contains(t, sender.sent[0], "누적 100점")
}

func TestPublisher_AnnouncesGratitudeWithCounterpart(t *testing.T) {
	sender := &fakeSender{}
	resolver := newResolver(
		member("1", "alice", "", 5),
		member("2", "bob", "", 5),
	)
	p := New(resolver, sender)

	from, to := "1", "2"
	err := p.OnTransaction(context.Background(), &model.Transaction{
		ID: 2, UserID: "1", Points: 5, Reason: model.ReasonGratitudeSent,
		FromUserID: &from, ToUserID: &to,
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "alice")
	assert.Contains(t, sender.sent[0], "bob")

	err = p.OnTransaction(context.Background(), &model.Transaction{
		ID: 3, UserID: "2", Points: 5, Reason: model.ReasonGratitudeReceived,
		FromUserID: &from, ToUserID: &to,
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 2)
	assert.Contains(t, sender.sent[1], "bob")
	assert.Contains(t, sender.sent[1], "alice")
}

func TestPublisher_SuppressesTestLikeSubject(t *testing.T) {
	sender := &fakeSender{}
	p := New(newResolver(member("1", "testuser01", "", 100)), sender)

	err := p.OnTransaction(context.Background(), &model.Transaction{
		ID: 4, UserID: "1", Points: 100, Reason: model.ReasonAttendance,
	})
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestPublisher_SuppressionIsAllOrNothing(t *testing.T) {
	// A real sender thanking a test-like receiver: both legs of the
	// gratitude pair stay silent, not just the test-like side.
	sender := &fakeSender{}
	resolver := newResolver(
		member("1", "alice", "", 5),
		member("2", "dummy_account", "", 5),
	)
	p := New(resolver, sender)

	from, to := "1", "2"
	for _, tx := range []*model.Transaction{
		{ID: 5, UserID: "1", Points: 5, Reason: model.ReasonGratitudeSent, FromUserID: &from, ToUserID: &to},
		{ID: 6, UserID: "2", Points: 5, Reason: model.ReasonGratitudeReceived, FromUserID: &from, ToUserID: &to},
	} {
		err := p.OnTransaction(context.Background(), tx)
		require.NoError(t, err)
	}
	assert.Empty(t, sender.sent)
}

func TestPublisher_SuppressesTestLikeNickname(t *testing.T) {
	// Nickname alone being test-like is enough.
	sender := &fakeSender{}
	p := New(newResolver(member("1", "alice", "테스트계정", 100)), sender)

	err := p.OnTransaction(context.Background(), &model.Transaction{
		ID: 7, UserID: "1", Points: 100, Reason: model.ReasonAttendance,
	})
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestPublisher_SendFailureNeverPropagates(t *testing.T) {
	sender := &fakeSender{failErr: errors.New("chat unreachable")}
	p := New(newResolver(member("1", "alice", "", 100)), sender)

	err := p.OnTransaction(context.Background(), &model.Transaction{
		ID: 8, UserID: "1", Points: 100, Reason: model.ReasonAttendance,
	})
	assert.NoError(t, err)
}

func TestPublisher_UnresolvableSubjectIsSkipped(t *testing.T) {
	sender := &fakeSender{}
	p := New(newResolver(), sender)

	err := p.OnTransaction(context.Background(), &model.Transaction{
		ID: 9, UserID: "404", Points: 100, Reason: model.ReasonAttendance,
	})
	assert.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestPublisher_GratitudeWithoutCounterpartStaysSilent(t *testing.T) {
	// A gratitude transaction missing its counterparty pointer must not
	// panic and must not announce.
	sender := &fakeSender{}
	p := New(newResolver(member("1", "alice", "", 5)), sender)

	for _, reason := range []string{model.ReasonGratitudeSent, model.ReasonGratitudeReceived} {
		err := p.OnTransaction(context.Background(), &model.Transaction{
			ID: 20, UserID: "1", Points: 5, Reason: reason,
		})
		require.NoError(t, err)
	}
	assert.Empty(t, sender.sent)
}

func TestPublisher_AdminReasons(t *testing.T) {
	sender := &fakeSender{}
	admin := "9"
	p := New(newResolver(member("1", "alice", "", 30)), sender)

	err := p.OnTransaction(context.Background(), &model.Transaction{
		ID: 10, UserID: "1", Points: 50, Reason: model.ReasonAdminGrant, AdminID: &admin,
	})
	require.NoError(t, err)
	err = p.OnTransaction(context.Background(), &model.Transaction{
		ID: 11, UserID: "1", Points: -20, Reason: model.ReasonAdminRevoke, AdminID: &admin,
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 2)
	assert.Contains(t, sender.sent[0], "+50")
	assert.Contains(t, sender.sent[1], "-20")
}
