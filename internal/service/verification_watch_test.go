package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastelink/internal/model"
	"wastelink/internal/repository"
)

const watchTimeout = time.Second

func newWatchFixture(t *testing.T) (VerificationService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	return NewVerificationService(store, nil), store
}

func TestWatchDeliversInitialSnapshot(t *testing.T) {
	svc, _ := newWatchFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, sampleInput())
	require.NoError(t, err)

	w, err := svc.Watch(ctx, model.VerificationFilter{})
	require.NoError(t, err)
	defer w.Close()

	batch, ok := w.Latest(watchTimeout)
	require.True(t, ok)
	require.Len(t, batch, 1)
	assert.Equal(t, "owner-1", batch[0].UserID)
}

func TestWatchDeliversOnChange(t *testing.T) {
	svc, _ := newWatchFixture(t)
	ctx := context.Background()

	w, err := svc.Watch(ctx, model.VerificationFilter{})
	require.NoError(t, err)
	defer w.Close()

	batch, ok := w.Latest(watchTimeout)
	require.True(t, ok)
	assert.Empty(t, batch)

	_, err = svc.Create(ctx, sampleInput())
	require.NoError(t, err)

	batch, ok = w.Latest(watchTimeout)
	require.True(t, ok)
	require.Len(t, batch, 1)
}

func TestWatchLastWriteWins(t *testing.T) {
	svc, _ := newWatchFixture(t)
	ctx := context.Background()

	w, err := svc.Watch(ctx, model.VerificationFilter{})
	require.NoError(t, err)
	defer w.Close()

	// Nobody reads between these writes; only the newest snapshot survives.
	for i := 0; i < 3; i++ {
		in := sampleInput()
		in.UserID = "owner-" + string(rune('1'+i))
		_, err = svc.Create(ctx, in)
		require.NoError(t, err)
	}

	batch, ok := w.Latest(watchTimeout)
	require.True(t, ok)
	assert.Len(t, batch, 3)
}

func TestWatchFilterNarrowsSnapshots(t *testing.T) {
	svc, _ := newWatchFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, sampleInput())
	require.NoError(t, err)
	collector := sampleInput()
	collector.UserID = "collector-1"
	collector.UserRole = model.RoleCollector
	_, err = svc.Create(ctx, collector)
	require.NoError(t, err)

	w, err := svc.Watch(ctx, model.VerificationFilter{UserRole: model.RoleCollector})
	require.NoError(t, err)
	defer w.Close()

	batch, ok := w.Latest(watchTimeout)
	require.True(t, ok)
	require.Len(t, batch, 1)
	assert.Equal(t, "collector-1", batch[0].UserID)
}

func TestWatchSetFilterResubscribes(t *testing.T) {
	svc, _ := newWatchFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, sampleInput())
	require.NoError(t, err)

	w, err := svc.Watch(ctx, model.VerificationFilter{})
	require.NoError(t, err)
	defer w.Close()

	_, ok := w.Latest(watchTimeout)
	require.True(t, ok)

	require.NoError(t, w.SetFilter(ctx, model.VerificationFilter{UserRole: model.RoleCollector}))
	batch, ok := w.Latest(watchTimeout)
	require.True(t, ok)
	assert.Empty(t, batch, "new subscription sees only matching records")

	// An identical filter is a no-op: no teardown, no fresh snapshot.
	require.NoError(t, w.SetFilter(ctx, model.VerificationFilter{UserRole: model.RoleCollector}))
	_, ok = w.Latest(50 * time.Millisecond)
	assert.False(t, ok)
}

// unauthorizedStore denies live subscriptions the way a misconfigured
// database role would, while leaving plain reads and writes working.
type unauthorizedStore struct {
	repository.DocumentStore
}

func (unauthorizedStore) Watch(context.Context, string, repository.Query, func([]repository.Document)) (repository.UnsubscribeFunc, error) {
	return nil, repository.ErrPermissionDenied
}

func TestWatchPermissionDeniedDeliversEmptySnapshot(t *testing.T) {
	inner := repository.NewMemoryStore()
	inner.Insert(model.CollectionVerifications, "v1", repository.Document{
		"userId": "owner-1", "status": model.VerificationPending,
	})
	svc := NewVerificationService(unauthorizedStore{inner}, nil)

	w, err := svc.Watch(context.Background(), model.VerificationFilter{})
	require.NoError(t, err, "a denied subscription is an expected-empty state, not an error")
	defer w.Close()

	batch, ok := w.Latest(watchTimeout)
	require.True(t, ok)
	assert.Empty(t, batch)

	w.Close()
}

func TestWatchCloseIsIdempotent(t *testing.T) {
	svc, store := newWatchFixture(t)
	ctx := context.Background()

	w, err := svc.Watch(ctx, model.VerificationFilter{})
	require.NoError(t, err)

	_, ok := w.Latest(watchTimeout)
	require.True(t, ok)

	w.Close()
	w.Close()

	_, ok = w.Latest(watchTimeout)
	assert.False(t, ok, "updates channel is closed after Close")

	// Mutations after Close never reach the watcher.
	store.Insert(model.CollectionVerifications, "v-after", repository.Document{
		"userId": "late", "status": model.VerificationPending,
	})
	_, ok = w.Latest(50 * time.Millisecond)
	assert.False(t, ok)
}
