package model

import (
	"strings"
	"time"
)

// Collection names used across the admin core.
const (
	CollectionVerifications = "verifications"
	CollectionReports       = "reports"
	CollectionReviews       = "reviews"
	CollectionUsers         = "users"
	CollectionBookings      = "bookings"
	CollectionSystemLogs    = "system_logs"
)

// Moderation priority enum constants
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Moderation category enum constants
const (
	CategoryReview      = "Review"
	CategoryUser        = "User"
	CategoryTransaction = "Transaction"
	CategoryGeneral     = "General"
)

// Moderation item status enum constants
const (
	ReportPending  = "pending"
	ReportResolved = "resolved"
)

// Moderation action enum constants
const (
	ActionWarningIssued  = "warning_issued"
	ActionContentRemoved = "content_removed"
	ActionUserSuspended  = "user_suspended"
	ActionAccountBanned  = "account_banned"
	ActionNoAction       = "no_action"
	ActionEscalate       = "escalate"
)

// ValidModerationAction reports whether a is a recognized moderation action.
func ValidModerationAction(a string) bool {
	switch a {
	case ActionWarningIssued, ActionContentRemoved, ActionUserSuspended,
		ActionAccountBanned, ActionNoAction, ActionEscalate:
		return true
	}
	return false
}

// PriorityRank maps priorities onto their sort weight (High=3, Medium=2,
// Low=1, unknown=0). Higher ranks sort first in the queue.
func PriorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// OriginKind tags where a moderation item came from.
type OriginKind string

const (
	OriginStored  OriginKind = "stored"  // a genuine document in the reports collection
	OriginReview  OriginKind = "review"  // synthesized from a flagged review
	OriginUser    OriginKind = "user"    // synthesized from a suspicious user
	OriginBooking OriginKind = "booking" // synthesized from a problematic booking
)

// Origin is the explicit provenance tag for a moderation item. Synthesized
// items carry the id of the underlying source record; stored items carry the
// report document id.
type Origin struct {
	Kind     OriginKind `json:"kind"`
	SourceID string     `json:"source_id"`
}

// Synthesized reports whether the item was derived from a flagged source
// record rather than read from the reports collection.
func (o Origin) Synthesized() bool {
	return o.Kind == OriginReview || o.Kind == OriginUser || o.Kind == OriginBooking
}

// OriginFromItemID recovers provenance from a composite item id. The
// review-/user-/booking- prefixes are kept on item ids for queue and export
// compatibility; this is the only place the string convention is interpreted.
func OriginFromItemID(id string) Origin {
	for _, kind := range []OriginKind{OriginReview, OriginUser, OriginBooking} {
		prefix := string(kind) + "-"
		if strings.HasPrefix(id, prefix) {
			return Origin{Kind: kind, SourceID: strings.TrimPrefix(id, prefix)}
		}
	}
	return Origin{Kind: OriginStored, SourceID: id}
}

// ModerationItem is the normalized, read-only projection shown in the
// operator queue. Synthesized items are not persisted until an action is
// taken on them, at which point they are materialized into the reports
// collection.
type ModerationItem struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	ReportedBy  string    `json:"reported_by"`
	Priority    string    `json:"priority"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
	ActionTaken string    `json:"action_taken,omitempty"`
	Origin      Origin    `json:"origin"`
}

// ModerationCounts are the aggregate counters recomputed on every queue
// build. ActionsTaken counts resolved stored reports only; the live count of
// flagged bookings is reported separately as FlaggedBookings instead of
// being folded into ActionsTaken.
type ModerationCounts struct {
	PendingReports    int `json:"pending_reports"`
	ReviewsToModerate int `json:"reviews_to_moderate"`
	ContentViolations int `json:"content_violations"`
	ActionsTaken      int `json:"actions_taken"`
	FlaggedBookings   int `json:"flagged_bookings"`
}

// AuditLog tracks who did what and when for critical admin actions.
type AuditLog struct {
	ID          string         `bson:"_id,omitempty" json:"id"`
	Action      string         `bson:"action" json:"action"`
	EntityID    string         `bson:"entityId" json:"entity_id"`
	PerformedBy string         `bson:"performedBy" json:"performed_by"`
	Details     map[string]any `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt   time.Time      `bson:"createdAt" json:"created_at"`
}

// Audit action constants
const (
	AuditCreateVerification       = "CREATE_VERIFICATION"
	AuditUpdateVerificationStatus = "UPDATE_VERIFICATION_STATUS"
	AuditBulkUpdateVerifications  = "BULK_UPDATE_VERIFICATIONS"
	AuditDeleteVerification       = "DELETE_VERIFICATION"
	AuditModerationAction         = "MODERATION_ACTION"
)
