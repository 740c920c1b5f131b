package repository

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"wastelink/internal/model"
)

// MemoryStore is an in-process DocumentStore used by tests and local
// development. It preserves insertion order, supports the same query
// contract as MongoStore and delivers watch snapshots synchronously after
// every mutation.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]Document
	order       map[string][]string
	watchers    map[string][]*memWatcher
	nextWatchID int
}

type memWatcher struct {
	id     int
	query  Query
	fn     func([]Document)
	active bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
		order:       make(map[string][]string),
		watchers:    make(map[string][]*memWatcher),
	}
}

// Insert seeds a document under a caller-chosen id.
func (s *MemoryStore) Insert(collection, id string, data Document) {
	s.mu.Lock()
	s.insertLocked(collection, id, data)
	pending := s.snapshotWatchersLocked(collection)
	s.mu.Unlock()
	deliver(pending)
}

func (s *MemoryStore) Query(_ context.Context, collection string, q Query) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLocked(collection, q), nil
}

func (s *MemoryStore) Watch(_ context.Context, collection string, q Query, fn func([]Document)) (UnsubscribeFunc, error) {
	s.mu.Lock()
	s.nextWatchID++
	w := &memWatcher{id: s.nextWatchID, query: q, fn: fn, active: true}
	s.watchers[collection] = append(s.watchers[collection], w)
	snapshot := s.queryLocked(collection, q)
	s.mu.Unlock()

	fn(snapshot)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			w.active = false
			s.mu.Unlock()
		})
	}, nil
}

func (s *MemoryStore) GetByID(_ context.Context, collection, id string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, &model.NotFoundError{Collection: collection, ID: id}
	}
	return doc.Clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, collection string, data Document) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	s.insertLocked(collection, id, data)
	pending := s.snapshotWatchersLocked(collection)
	s.mu.Unlock()
	deliver(pending)
	return id, nil
}

func (s *MemoryStore) Update(_ context.Context, collection, id string, data Document) error {
	s.mu.Lock()
	doc, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return &model.NotFoundError{Collection: collection, ID: id}
	}
	applyLocked(doc, data)
	pending := s.snapshotWatchersLocked(collection)
	s.mu.Unlock()
	deliver(pending)
	return nil
}

func (s *MemoryStore) BatchUpdate(_ context.Context, updates []Update) error {
	s.mu.Lock()
	// All-or-nothing: verify every target before touching anything.
	for _, u := range updates {
		if _, ok := s.collections[u.Collection][u.ID]; !ok {
			s.mu.Unlock()
			return &model.NotFoundError{Collection: u.Collection, ID: u.ID}
		}
	}
	touched := make(map[string]bool)
	for _, u := range updates {
		applyLocked(s.collections[u.Collection][u.ID], u.Data)
		touched[u.Collection] = true
	}
	var pending []func()
	for collection := range touched {
		pending = append(pending, s.snapshotWatchersLocked(collection)...)
	}
	s.mu.Unlock()
	deliver(pending)
	return nil
}

// --- internals ---

func (s *MemoryStore) insertLocked(collection, id string, data Document) {
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]Document)
	}
	doc := data.Clone()
	doc["id"] = id
	if _, exists := s.collections[collection][id]; !exists {
		s.order[collection] = append(s.order[collection], id)
	}
	s.collections[collection][id] = doc
}

func applyLocked(doc, data Document) {
	for k, v := range data {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
}

func (s *MemoryStore) queryLocked(collection string, q Query) []Document {
	var out []Document
	for _, id := range s.order[collection] {
		doc := s.collections[collection][id]
		if matchAll(doc, q.Predicates) {
			out = append(out, doc.Clone())
		}
	}
	if q.Sort != nil {
		field, desc := q.Sort.Field, q.Sort.Desc
		sort.SliceStable(out, func(i, j int) bool {
			c := compareValues(out[i][field], out[j][field])
			if desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && int64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// snapshotWatchersLocked computes each active watcher's next snapshot while
// the lock is held and returns the deliveries to run after it is released,
// so callbacks may safely call back into the store.
func (s *MemoryStore) snapshotWatchersLocked(collection string) []func() {
	var pending []func()
	for _, w := range s.watchers[collection] {
		if !w.active {
			continue
		}
		snapshot := s.queryLocked(collection, w.query)
		fn := w.fn
		pending = append(pending, func() { fn(snapshot) })
	}
	return pending
}

func deliver(pending []func()) {
	for _, fn := range pending {
		fn()
	}
}

func matchAll(doc Document, preds []Predicate) bool {
	for _, p := range preds {
		if !match(doc, p) {
			return false
		}
	}
	return true
}

func match(doc Document, p Predicate) bool {
	v := doc[p.Field]
	switch p.Op {
	case "==", "":
		return reflect.DeepEqual(v, p.Value)
	case ">=":
		return compareValues(v, p.Value) >= 0
	case "<=":
		return compareValues(v, p.Value) <= 0
	case "in":
		rv := reflect.ValueOf(p.Value)
		if rv.Kind() != reflect.Slice {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			if reflect.DeepEqual(v, rv.Index(i).Interface()) {
				return true
			}
		}
	}
	return false
}

// compareValues orders heterogeneous field values: times and numbers
// compare numerically, everything else by string form.
func compareValues(a, b any) int {
	af, aNum := asNumber(a)
	bf, bNum := asNumber(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case time.Time:
		return float64(t.UnixNano()), true
	case *time.Time:
		if t == nil {
			return 0, false
		}
		return float64(t.UnixNano()), true
	case interface{ Time() time.Time }:
		return float64(t.Time().UnixNano()), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}
