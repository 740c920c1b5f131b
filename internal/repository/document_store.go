package repository

import (
	"context"
	"errors"
	"time"
)

// ErrPermissionDenied is returned by store implementations when the backing
// database rejects a read for authorization reasons. The verification watch
// layer maps it to an empty snapshot by product convention.
var ErrPermissionDenied = errors.New("permission denied by store")

// Document is a raw collection document as delivered by the store. Field
// values keep whatever shape the driver produced; timestamp fields in
// particular may be native times, driver primitives, strings or epoch
// numbers and must go through time coercion before use.
type Document map[string]any

// Str returns the string value at key, or "" when absent or not a string.
func (d Document) Str(key string) string {
	s, _ := d[key].(string)
	return s
}

// Float returns the numeric value at key as a float64, or 0 when absent.
func (d Document) Float(key string) float64 {
	switch v := d[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Has reports whether key is present and non-nil.
func (d Document) Has(key string) bool {
	v, ok := d[key]
	return ok && v != nil
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Predicate is a single field test. Supported ops are "==", ">=", "<=" and
// "in"; predicates in a query are ANDed together.
type Predicate struct {
	Field string
	Op    string
	Value any
}

// Eq builds an equality predicate.
func Eq(field string, value any) Predicate {
	return Predicate{Field: field, Op: "==", Value: value}
}

// OrderBy names the single sort field of a query.
type OrderBy struct {
	Field string
	Desc  bool
}

// Query is the narrow read contract: ANDed predicates, at most one order-by,
// optional limit.
type Query struct {
	Predicates []Predicate
	Sort       *OrderBy
	Limit      int64
}

// ByCreatedAtDesc is the ordering every admin listing uses.
func ByCreatedAtDesc() *OrderBy {
	return &OrderBy{Field: "createdAt", Desc: true}
}

// Update addresses one document in a batch write.
type Update struct {
	Collection string
	ID         string
	Data       Document
}

// UnsubscribeFunc releases a live subscription. Implementations guarantee it
// is safe to call more than once; callers must call it at least once.
type UnsubscribeFunc func()

// DocumentStore is the capability set this core requires from the external
// document database. Soft delete is realized as Update with a sentinel
// status field; no native delete is required.
type DocumentStore interface {
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	// Watch is the live equivalent of Query: fn receives a full snapshot
	// immediately and again after every change to the collection.
	Watch(ctx context.Context, collection string, q Query, fn func([]Document)) (UnsubscribeFunc, error)
	GetByID(ctx context.Context, collection, id string) (Document, error)
	Create(ctx context.Context, collection string, data Document) (string, error)
	Update(ctx context.Context, collection, id string, data Document) error
	// BatchUpdate applies all updates atomically; if any single write is
	// rejected the whole batch fails.
	BatchUpdate(ctx context.Context, updates []Update) error
}

// CoerceTime normalizes the timestamp shapes a document store can deliver
// into a time.Time. It accepts native times, driver primitives exposing a
// Time() accessor, RFC3339/date strings and epoch milliseconds; anything
// unparseable falls back to now so ordering stays total. It never fails.
func CoerceTime(v any, now time.Time) time.Time {
	switch t := v.(type) {
	case nil:
		return now
	case time.Time:
		if t.IsZero() {
			return now
		}
		return t
	case *time.Time:
		if t == nil || t.IsZero() {
			return now
		}
		return *t
	case interface{ Time() time.Time }:
		// mongo primitive.DateTime and Timestamp-like types
		ts := t.Time()
		if ts.IsZero() {
			return now
		}
		return ts
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
		return now
	case int64:
		return time.UnixMilli(t)
	case float64:
		return time.UnixMilli(int64(t))
	}
	// Seconds-bearing timestamp objects (store-native {seconds: n} shape).
	if secs, ok := secondsField(v); ok {
		return time.UnixMilli(secs * 1000)
	}
	return now
}

// secondsField extracts a seconds count from map-shaped timestamps.
func secondsField(v any) (int64, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		if d, isDoc := v.(Document); isDoc {
			m = d
		} else {
			return 0, false
		}
	}
	switch s := m["seconds"].(type) {
	case int64:
		return s, true
	case int32:
		return int64(s), true
	case int:
		return int64(s), true
	case float64:
		return int64(s), true
	}
	return 0, false
}
