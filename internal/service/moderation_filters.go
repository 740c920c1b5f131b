package service

import (
	"strings"
	"time"

	"wastelink/internal/model"
)

// Named queue filters. Each is a pure predicate over the already-sorted
// queue; filtering never re-sorts.
const (
	FilterAll          = "all"
	FilterPending      = "pending"
	FilterResolved     = "resolved"
	FilterPriority     = "priority"
	FilterHighPriority = "high-priority"
	FilterUrgent       = "urgent"
	FilterContent      = "content"
	FilterUser         = "user"
	FilterRecent       = "recent"
)

const recentWindow = 7 * 24 * time.Hour

// FilterQueue returns the view of queue selected by name. Unknown names fall
// through to the full queue, matching the dashboard's default.
func FilterQueue(queue []model.ModerationItem, name string, now time.Time) []model.ModerationItem {
	switch name {
	case FilterUrgent:
		return keepItems(queue, func(item model.ModerationItem) bool {
			return item.Priority == model.PriorityHigh
		})
	case FilterPending:
		return keepItems(queue, func(item model.ModerationItem) bool {
			return item.Status == model.ReportPending
		})
	case FilterPriority, FilterHighPriority:
		return keepItems(queue, func(item model.ModerationItem) bool {
			return item.Priority == model.PriorityHigh || item.Priority == model.PriorityMedium
		})
	case FilterResolved:
		return keepItems(queue, func(item model.ModerationItem) bool {
			return item.Status == model.ReportResolved
		})
	case FilterContent:
		return keepItems(queue, func(item model.ModerationItem) bool {
			return item.Category == model.CategoryReview || strings.Contains(item.Type, "Content")
		})
	case FilterUser:
		return keepItems(queue, func(item model.ModerationItem) bool {
			return item.Category == model.CategoryUser
		})
	case FilterRecent:
		return keepItems(queue, func(item model.ModerationItem) bool {
			return now.Sub(item.Date) <= recentWindow
		})
	default:
		return queue
	}
}

func keepItems(queue []model.ModerationItem, keep func(model.ModerationItem) bool) []model.ModerationItem {
	out := make([]model.ModerationItem, 0, len(queue))
	for _, item := range queue {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
