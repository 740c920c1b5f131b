package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastelink/internal/model"
)

func TestExportModerationCSVQuotesCommas(t *testing.T) {
	items := []model.ModerationItem{
		{
			ID:          "rep1",
			Type:        "Content Violation",
			Category:    model.CategoryReview,
			Description: "Low rating, suspicious",
			ReportedBy:  "System Detection",
			Priority:    model.PriorityHigh,
			Status:      model.ReportPending,
			Date:        time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC),
		},
	}

	csv := ExportModerationCSV(items)
	lines := strings.Split(csv, "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, `"Report ID","Type","Category","Description","Reported By","Priority","Status","Date Reported","Action Taken"`, lines[0])
	// A comma inside a field stays inside its quoted cell.
	assert.Contains(t, lines[1], `"Low rating, suspicious"`)
	assert.Equal(t, `"rep1","Content Violation","Review","Low rating, suspicious","System Detection","High","pending","3/9/2024","Pending"`, lines[1])
}

func TestExportModerationCSVActionTaken(t *testing.T) {
	items := []model.ModerationItem{
		{ID: "a", Status: model.ReportResolved, ActionTaken: model.ActionContentRemoved, Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "b", Status: model.ReportPending, Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	lines := strings.Split(ExportModerationCSV(items), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], `"content_removed"`)
	assert.Contains(t, lines[2], `"Pending"`)
}

func TestExportVerificationsCSV(t *testing.T) {
	reviewed := time.Date(2024, 2, 15, 9, 0, 0, 0, time.UTC)
	items := []model.Verification{
		{
			ID:              "v1",
			UserID:          "owner-1",
			ShopName:        "Green Scrap Trading",
			BusinessLicense: "BL-2024-001",
			Address:         "12 Recto Ave, Manila",
			Status:          model.VerificationRejected,
			SubmissionDate:  reviewed.Add(-48 * time.Hour),
			ReviewedBy:      "admin-1",
			RejectionReason: "Blurry license scan, please resubmit",
		},
		{ID: "v2", UserID: "owner-2", Status: model.VerificationPending, SubmissionDate: reviewed},
	}

	lines := strings.Split(ExportVerificationsCSV(items), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"Verification ID","Shop Name","Owner ID","Business License","Address","Phone","Status","Submitted","Reviewed By","Rejection Reason"`, lines[0])
	assert.Contains(t, lines[1], `"12 Recto Ave, Manila"`)
	assert.Contains(t, lines[1], `"Blurry license scan, please resubmit"`)
	// Missing optionals export as N/A, not empty cells.
	assert.Contains(t, lines[2], `"N/A"`)
}

func TestExportFilePrefix(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "urgent-reports-2024-05-01", ExportFilePrefix(FilterUrgent, now))
	assert.Equal(t, "moderation-reports-2024-05-01", ExportFilePrefix(FilterAll, now))
	assert.Equal(t, "moderation-reports-2024-05-01", ExportFilePrefix("bogus", now))
}
