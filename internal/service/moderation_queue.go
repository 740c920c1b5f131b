package service

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"wastelink/internal/model"
	"wastelink/internal/repository"
)

// Flagged users and bookings are capped to the first N of the already
// recency-ordered source lists so noisy heuristics cannot flood the queue.
// Explicit truncation, not a sample.
const (
	maxSuspiciousUsers     = 5
	maxProblematicBookings = 3
)

var (
	reviewSpamPattern     = regexp.MustCompile(`(?i)spam|fake|bot|test`)
	suspiciousNamePattern = regexp.MustCompile(`(?i)test|fake|spam`)
)

// ModerationSources are raw snapshots of the four collections feeding the
// queue, each already ordered by createdAt descending by the store. The
// builder must not assume cross-collection freshness: reviews may be newer
// than bookings or vice versa.
type ModerationSources struct {
	Reports  []repository.Document
	Reviews  []repository.Document
	Users    []repository.Document
	Bookings []repository.Document
}

// QueueBuilder derives the unified moderation queue. It is pure apart from
// Now, which is injectable so builds are deterministic under test.
type QueueBuilder struct {
	Now func() time.Time
}

func NewQueueBuilder() *QueueBuilder {
	return &QueueBuilder{Now: time.Now}
}

// Build normalizes all four sources into one queue sorted by priority rank
// descending, ties broken by date descending, and recomputes the aggregate
// counters from scratch. It never fails: records missing expected fields
// contribute best-effort items instead of being dropped.
func (b *QueueBuilder) Build(src ModerationSources) ([]model.ModerationItem, model.ModerationCounts) {
	now := b.Now()

	queue := make([]model.ModerationItem, 0,
		len(src.Reports)+len(src.Reviews)+maxSuspiciousUsers+maxProblematicBookings)

	resolvedReports := 0
	for _, report := range src.Reports {
		if report.Str("status") == model.ReportResolved {
			resolvedReports++
		}
		queue = append(queue, normalizeReport(report, now))
	}

	flaggedReviews := filterDocs(src.Reviews, FlagReview)
	for _, review := range flaggedReviews {
		queue = append(queue, normalizeReview(review, now))
	}

	suspiciousUsers := filterDocs(src.Users, FlagUser)
	for _, user := range capDocs(suspiciousUsers, maxSuspiciousUsers) {
		queue = append(queue, normalizeUser(user, now))
	}

	problematicBookings := filterDocs(src.Bookings, FlagBooking)
	for _, booking := range capDocs(problematicBookings, maxProblematicBookings) {
		queue = append(queue, normalizeBooking(booking, now))
	}

	sort.SliceStable(queue, func(i, j int) bool {
		ri, rj := model.PriorityRank(queue[i].Priority), model.PriorityRank(queue[j].Priority)
		if ri != rj {
			return ri > rj
		}
		return queue[i].Date.After(queue[j].Date)
	})

	counts := model.ModerationCounts{
		ReviewsToModerate: len(flaggedReviews),
		ContentViolations: len(flaggedReviews) + len(suspiciousUsers),
		ActionsTaken:      resolvedReports,
		FlaggedBookings:   len(problematicBookings),
	}
	for _, item := range queue {
		if item.Status == model.ReportPending {
			counts.PendingReports++
		}
	}

	return queue, counts
}

// --- heuristic classifiers (pure, no side effects) ---

// FlagReview marks a review for moderation: a present rating at or below 2,
// a present but very short comment, or a comment matching the spam pattern.
// A review with no rating field is judged on its comment alone.
func FlagReview(d repository.Document) bool {
	if d.Has("rating") && d.Float("rating") <= 2 {
		return true
	}
	comment := d.Str("comment")
	if comment == "" {
		return false
	}
	return utf8.RuneCountInString(comment) < 10 || reviewSpamPattern.MatchString(comment)
}

// FlagUser marks an account as suspicious: missing or implausibly short
// email or name, or a throwaway-looking name.
func FlagUser(d repository.Document) bool {
	email := d.Str("email")
	if email == "" || utf8.RuneCountInString(email) < 5 {
		return true
	}
	name := d.Str("name")
	if name == "" || utf8.RuneCountInString(name) < 2 {
		return true
	}
	return suspiciousNamePattern.MatchString(name)
}

// FlagBooking marks a booking as problematic: missing or zero price,
// cancelled status, or a missing endpoint. An unparseable non-empty price is
// not treated as zero.
func FlagBooking(d repository.Document) bool {
	if !d.Has("price") {
		return true
	}
	switch price := d["price"].(type) {
	case string:
		if price == "" {
			return true
		}
		if parsed, err := decimal.NewFromString(price); err == nil && parsed.IsZero() {
			return true
		}
	default:
		if decimal.NewFromFloat(d.Float("price")).IsZero() {
			return true
		}
	}
	if d.Str("status") == "cancelled" {
		return true
	}
	return d.Str("pickupLocation") == "" || d.Str("dropoffLocation") == ""
}

// --- normalization ---

func normalizeReport(d repository.Document, now time.Time) model.ModerationItem {
	id := d.Str("id")
	return model.ModerationItem{
		ID:          id,
		Type:        orDefault(d.Str("type"), "Content Violation"),
		Category:    orDefault(d.Str("category"), model.CategoryGeneral),
		Description: orDefault(d.Str("description"), "No description provided"),
		ReportedBy:  orDefault(d.Str("reportedBy"), "System"),
		Priority:    orDefault(d.Str("priority"), model.PriorityMedium),
		Date:        repository.CoerceTime(d["createdAt"], now),
		Status:      orDefault(d.Str("status"), model.ReportPending),
		ActionTaken: d.Str("actionTaken"),
		Origin:      model.Origin{Kind: model.OriginStored, SourceID: id},
	}
}

func normalizeReview(d repository.Document, now time.Time) model.ModerationItem {
	rating := d.Float("rating")
	severity := "Low rating"
	priority := model.PriorityMedium
	if d.Has("rating") && rating <= 1 {
		severity = "Very low rating"
		priority = model.PriorityHigh
	}

	description := fmt.Sprintf("%s review (%s/5 stars)", severity, formatRating(rating))
	if comment := d.Str("comment"); comment != "" {
		description += `: "` + truncateRunes(comment, 50) + `..."`
	}

	id := d.Str("id")
	return model.ModerationItem{
		ID:          string(model.OriginReview) + "-" + id,
		Type:        "Inappropriate Content",
		Category:    model.CategoryReview,
		Description: description,
		ReportedBy:  "System Detection",
		Priority:    priority,
		Date:        repository.CoerceTime(d["createdAt"], now),
		Status:      model.ReportPending,
		Origin:      model.Origin{Kind: model.OriginReview, SourceID: id},
	}
}

func normalizeUser(d repository.Document, now time.Time) model.ModerationItem {
	id := d.Str("id")
	return model.ModerationItem{
		ID:       string(model.OriginUser) + "-" + id,
		Type:     "Suspicious Account",
		Category: model.CategoryUser,
		Description: fmt.Sprintf("Account with incomplete or suspicious profile: %s (%s)",
			orDefault(d.Str("name"), "No name"), orDefault(d.Str("email"), "No email")),
		ReportedBy: "System Validation",
		Priority:   model.PriorityMedium,
		Date:       repository.CoerceTime(d["createdAt"], now),
		Status:     model.ReportPending,
		Origin:     model.Origin{Kind: model.OriginUser, SourceID: id},
	}
}

func normalizeBooking(d repository.Document, now time.Time) model.ModerationItem {
	cancelled := d.Str("status") == "cancelled"
	issue := "Incomplete booking data"
	priority := model.PriorityMedium
	if cancelled {
		issue = "Cancelled booking"
		priority = model.PriorityLow
	}

	id := d.Str("id")
	return model.ModerationItem{
		ID:       string(model.OriginBooking) + "-" + id,
		Type:     "Booking Issue",
		Category: model.CategoryTransaction,
		Description: fmt.Sprintf("%s - %s to %s", issue,
			orDefault(d.Str("pickupLocation"), "Unknown pickup"),
			orDefault(d.Str("dropoffLocation"), "Unknown dropoff")),
		ReportedBy: "System Monitor",
		Priority:   priority,
		Date:       repository.CoerceTime(d["createdAt"], now),
		Status:     model.ReportPending,
		Origin:     model.Origin{Kind: model.OriginBooking, SourceID: id},
	}
}

// --- small helpers ---

func filterDocs(docs []repository.Document, keep func(repository.Document) bool) []repository.Document {
	out := make([]repository.Document, 0, len(docs))
	for _, d := range docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

func capDocs(docs []repository.Document, n int) []repository.Document {
	if len(docs) > n {
		return docs[:n]
	}
	return docs
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}
