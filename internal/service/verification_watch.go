package service

import (
	"context"
	"errors"
	"log"
	"reflect"
	"sync"
	"time"

	"wastelink/internal/model"
	"wastelink/internal/repository"
)

// VerificationWatcher is the live counterpart of List: it delivers a full,
// ordered snapshot of matching verifications on every collection change.
// Delivery is last-write-wins with no queueing; a consumer that falls behind
// sees only the newest snapshot. Close releases the underlying subscription
// exactly once and is safe to call multiple times.
type VerificationWatcher struct {
	svc     *verificationService
	updates chan []model.Verification

	mu     sync.Mutex
	filter model.VerificationFilter
	stop   repository.UnsubscribeFunc
	closed bool
}

// Watch subscribes to the verifications collection under the given filter.
// A permission-denied read is delivered as an empty snapshot rather than an
// error, by product convention: expected-empty states should not alarm the
// operator.
func (s *verificationService) Watch(ctx context.Context, filter model.VerificationFilter) (*VerificationWatcher, error) {
	w := &VerificationWatcher{
		svc:     s,
		filter:  filter,
		updates: make(chan []model.Verification, 1),
	}
	stop, err := w.subscribe(ctx, filter)
	if err != nil {
		return nil, err
	}
	w.stop = stop
	return w, nil
}

// Updates returns the snapshot channel. It is closed by Close.
func (w *VerificationWatcher) Updates() <-chan []model.Verification {
	return w.updates
}

// SetFilter re-establishes the subscription when the filter actually
// changes; filters are compared by deep equality. The previous subscription
// is torn down before the new one starts so no duplicate callbacks fire.
func (w *VerificationWatcher) SetFilter(ctx context.Context, filter model.VerificationFilter) error {
	w.mu.Lock()
	if w.closed || reflect.DeepEqual(w.filter, filter) {
		w.mu.Unlock()
		return nil
	}
	oldStop := w.stop
	w.mu.Unlock()

	if oldStop != nil {
		oldStop()
	}

	stop, err := w.subscribe(ctx, filter)
	if err != nil {
		w.mu.Lock()
		w.stop = func() {}
		w.mu.Unlock()
		return err
	}

	w.mu.Lock()
	w.filter = filter
	w.stop = stop
	w.mu.Unlock()
	return nil
}

// Close tears down the subscription and closes the updates channel. Safe to
// call more than once.
func (w *VerificationWatcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	stop := w.stop
	close(w.updates)
	w.mu.Unlock()

	if stop != nil {
		stop()
	}
}

func (w *VerificationWatcher) subscribe(ctx context.Context, filter model.VerificationFilter) (repository.UnsubscribeFunc, error) {
	q := repository.Query{Sort: repository.ByCreatedAtDesc(), Limit: filter.Limit}
	if filter.Status != "" {
		q.Predicates = append(q.Predicates, repository.Eq("status", filter.Status))
	}
	if filter.UserRole != "" {
		q.Predicates = append(q.Predicates, repository.Eq("userRole", filter.UserRole))
	}
	if filter.UserID != "" {
		q.Predicates = append(q.Predicates, repository.Eq("userId", filter.UserID))
	}
	if filter.DocumentType != "" {
		q.Predicates = append(q.Predicates, repository.Eq("documentType", filter.DocumentType))
	}

	stop, err := w.svc.store.Watch(ctx, model.CollectionVerifications, q, func(docs []repository.Document) {
		now := w.svc.now()
		batch := make([]model.Verification, 0, len(docs))
		for _, d := range docs {
			batch = append(batch, docToVerification(d, now))
		}
		w.push(batch)
	})
	if errors.Is(err, repository.ErrPermissionDenied) {
		log.Printf("verification watch: permission denied, treating as empty")
		w.push([]model.Verification{})
		return func() {}, nil
	}
	if err != nil {
		return nil, err
	}
	return stop, nil
}

// push delivers a snapshot, dropping any stale undelivered one first.
func (w *VerificationWatcher) push(batch []model.Verification) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	for {
		select {
		case w.updates <- batch:
			return
		default:
			select {
			case <-w.updates:
			default:
			}
		}
	}
}

// Latest waits up to timeout for the next snapshot. The second return is
// false when the watcher is closed or the deadline passes.
func (w *VerificationWatcher) Latest(timeout time.Duration) ([]model.Verification, bool) {
	select {
	case batch, ok := <-w.updates:
		return batch, ok
	case <-time.After(timeout):
		return nil, false
	}
}
