package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mait-chat/backend/internal/model/persona"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(echo(), persona.NewMemoryStore(persona.Seed()), nil)
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresCompleter(t *testing.T) {
	_, err := NewService(nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoCompleter)
}

func TestServiceCreateSessionGreets(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	state := session.State()
	require.Len(t, state.Messages, 1)
	assert.Equal(t, persona.Seed()[0].OpeningLine, state.Messages[0].Text)
	assert.True(t, state.Messages[0].IsBot)

	got, err := svc.GetSession(ctx, session.ID())
	require.NoError(t, err)
	assert.Same(t, session, got)
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestServiceCloseSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.CloseSession(ctx, session.ID()))
	assert.True(t, session.State().Closed)
	assert.Zero(t, svc.Count())
	assert.ErrorIs(t, svc.CloseSession(ctx, session.ID()), ErrSessionNotFound)
}

func TestServiceSweepRemovesIdleSessions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	stale, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	stale.mu.Lock()
	stale.lastActive = time.Now().UTC().Add(-time.Hour)
	stale.mu.Unlock()

	fresh, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, svc.Sweep(30*time.Minute))
	assert.True(t, stale.State().Closed)
	assert.False(t, fresh.State().Closed)
	assert.Equal(t, 1, svc.Count())
}

func TestServiceSweepKeepsPendingSessions(t *testing.T) {
	gate := newGatedCompleter("later", nil)
	svc, err := NewService(gate, nil, nil)
	require.NoError(t, err)

	session, err := svc.CreateSession(context.Background())
	require.NoError(t, err)
	session.UpdateDraft("still thinking?")

	done := make(chan bool)
	go func() { done <- session.Submit(context.Background()) }()
	<-gate.entered

	session.mu.Lock()
	session.lastActive = time.Now().UTC().Add(-time.Hour)
	session.mu.Unlock()

	assert.Zero(t, svc.Sweep(30*time.Minute))
	assert.False(t, session.State().Closed)
	assert.Equal(t, 1, svc.Count())

	close(gate.release)
	require.True(t, <-done)
	assert.Len(t, session.State().Messages, 3)
}

func TestServiceRunClosesSessionsOnShutdown(t *testing.T) {
	svc := newTestService(t)
	session, err := svc.CreateSession(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- svc.Run(ctx, 10*time.Millisecond, time.Hour) }()

	cancel()
	require.NoError(t, <-done)
	assert.True(t, session.State().Closed)
	assert.Zero(t, svc.Count())
}

func TestServiceOnSessionClosedHook(t *testing.T) {
	var closed []string
	svc, err := NewService(echo(), nil, nil, OnSessionClosed(func(id string) {
		closed = append(closed, id)
	}))
	require.NoError(t, err)

	session, err := svc.CreateSession(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.CloseSession(context.Background(), session.ID()))

	assert.Equal(t, []string{session.ID()}, closed)
}
