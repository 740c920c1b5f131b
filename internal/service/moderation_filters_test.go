package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastelink/internal/model"
)

func filterFixture(now time.Time) []model.ModerationItem {
	return []model.ModerationItem{
		{ID: "a", Priority: model.PriorityHigh, Status: model.ReportPending, Category: model.CategoryReview, Type: "Inappropriate Content", Date: now.Add(-time.Hour)},
		{ID: "b", Priority: model.PriorityMedium, Status: model.ReportResolved, Category: model.CategoryGeneral, Type: "Content Violation", Date: now.Add(-10 * 24 * time.Hour)},
		{ID: "c", Priority: model.PriorityMedium, Status: model.ReportPending, Category: model.CategoryUser, Type: "Suspicious Account", Date: now.Add(-2 * 24 * time.Hour)},
		{ID: "d", Priority: model.PriorityLow, Status: model.ReportPending, Category: model.CategoryTransaction, Type: "Booking Issue", Date: now.Add(-8 * 24 * time.Hour)},
	}
}

func itemIDs(items []model.ModerationItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestFilterQueue(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	queue := filterFixture(now)

	cases := []struct {
		filter string
		want   []string
	}{
		{FilterAll, []string{"a", "b", "c", "d"}},
		{"unknown-filter", []string{"a", "b", "c", "d"}},
		{FilterPending, []string{"a", "c", "d"}},
		{FilterResolved, []string{"b"}},
		{FilterUrgent, []string{"a"}},
		{FilterPriority, []string{"a", "b", "c"}},
		{FilterHighPriority, []string{"a", "b", "c"}},
		{FilterContent, []string{"a", "b"}},
		{FilterUser, []string{"c"}},
		{FilterRecent, []string{"a", "c"}},
	}

	for _, tc := range cases {
		t.Run(tc.filter, func(t *testing.T) {
			got := FilterQueue(queue, tc.filter, now)
			assert.Equal(t, tc.want, itemIDs(got))
		})
	}
}

func TestFilterQueuePreservesOrder(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	queue := filterFixture(now)

	filtered := FilterQueue(queue, FilterPending, now)
	require.Len(t, filtered, 3)
	// Filters never re-sort: relative order of the input survives.
	assert.Equal(t, []string{"a", "c", "d"}, itemIDs(filtered))
}
