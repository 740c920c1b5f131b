package service

import (
	"strings"
	"time"

	"wastelink/internal/model"
)

// CSV export wraps every cell in double quotes so commas inside fields stay
// inside their cell. Embedded double quotes are deliberately not escaped;
// that is the documented export format, kept as-is rather than silently
// fixed.

var moderationCSVHeader = []string{
	"Report ID", "Type", "Category", "Description", "Reported By",
	"Priority", "Status", "Date Reported", "Action Taken",
}

var verificationCSVHeader = []string{
	"Verification ID", "Shop Name", "Owner ID", "Business License", "Address",
	"Phone", "Status", "Submitted", "Reviewed By", "Rejection Reason",
}

// ExportModerationCSV serializes a queue view for download.
func ExportModerationCSV(items []model.ModerationItem) string {
	rows := make([][]string, 0, len(items)+1)
	rows = append(rows, moderationCSVHeader)
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			item.Type,
			item.Category,
			item.Description,
			item.ReportedBy,
			item.Priority,
			item.Status,
			item.Date.Format("1/2/2006"),
			orDefault(item.ActionTaken, "Pending"),
		})
	}
	return joinCSV(rows)
}

// ExportVerificationsCSV serializes a verification listing for download.
func ExportVerificationsCSV(items []model.Verification) string {
	rows := make([][]string, 0, len(items)+1)
	rows = append(rows, verificationCSVHeader)
	for _, v := range items {
		rows = append(rows, []string{
			v.ID,
			orDefault(v.ShopName, "N/A"),
			v.UserID,
			orDefault(v.BusinessLicense, "N/A"),
			orDefault(v.Address, "N/A"),
			orDefault(v.PhoneNumber, "N/A"),
			v.Status,
			v.SubmissionDate.Format("1/2/2006"),
			orDefault(v.ReviewedBy, "N/A"),
			orDefault(v.RejectionReason, "N/A"),
		})
	}
	return joinCSV(rows)
}

// ExportFilePrefix names the download for a given queue filter, e.g.
// urgent-reports-2024-05-01.csv.
func ExportFilePrefix(filterName string, now time.Time) string {
	prefix := "moderation-reports"
	switch filterName {
	case FilterUrgent, FilterPending, FilterHighPriority, FilterResolved, FilterContent, FilterUser:
		prefix = filterName + "-reports"
	}
	return prefix + "-" + now.Format("2006-01-02")
}

func joinCSV(rows [][]string) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, field := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(field)
			b.WriteByte('"')
		}
	}
	return b.String()
}
