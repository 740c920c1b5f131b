package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastelink/internal/model"
	"wastelink/internal/repository"
)

func newVerificationFixture() (VerificationService, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	return NewVerificationService(store, NewAuditService(store)), store
}

func sampleInput() CreateVerificationInput {
	return CreateVerificationInput{
		UserID:          "owner-1",
		UserRole:        model.RoleJunkShopOwner,
		DocumentType:    model.DocTypeBusinessLicense,
		DocumentURL:     "https://storage.example.com/docs/license.pdf",
		ShopName:        "Green Scrap Trading",
		BusinessLicense: "BL-2024-001",
		Address:         "12 Recto Ave, Manila",
		DocumentSize:    204800,
		FileType:        "application/pdf",
	}
}

func TestCreateForcesPendingAndStamps(t *testing.T) {
	svc, _ := newVerificationFixture()
	ctx := context.Background()

	id, err := svc.Create(ctx, sampleInput())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	all, err := svc.List(ctx, model.VerificationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)

	v := all[0]
	assert.Equal(t, id, v.ID)
	assert.Equal(t, model.VerificationPending, v.Status)
	assert.False(t, v.SubmissionDate.IsZero())
	assert.False(t, v.CreatedAt.IsZero())
	assert.False(t, v.Metadata.SubmissionTimestamp.IsZero())
	assert.Equal(t, int64(204800), v.Metadata.DocumentSize)
	assert.Equal(t, "application/pdf", v.Metadata.FileType)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newVerificationFixture()
	ctx := context.Background()

	bad := sampleInput()
	bad.UserRole = "warehouse_manager"
	_, err := svc.Create(ctx, bad)
	var validation *model.ValidationError
	require.ErrorAs(t, err, &validation)

	bad = sampleInput()
	bad.DocumentType = "passport"
	_, err = svc.Create(ctx, bad)
	require.ErrorAs(t, err, &validation)
}

func TestUpdateStatusStampsReviewer(t *testing.T) {
	svc, _ := newVerificationFixture()
	ctx := context.Background()

	id, err := svc.Create(ctx, sampleInput())
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, id, model.VerificationUnderReview, "admin-1", StatusOptions{}))

	all, err := svc.List(ctx, model.VerificationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, model.VerificationUnderReview, all[0].Status)
	assert.Equal(t, "admin-1", all[0].ReviewedBy)
	require.NotNil(t, all[0].ReviewedAt)

	// Every subsequent non-creation transition keeps the stamps set.
	require.NoError(t, svc.UpdateStatus(ctx, id, model.VerificationApproved, "admin-2", StatusOptions{}))
	all, err = svc.List(ctx, model.VerificationFilter{})
	require.NoError(t, err)
	assert.Equal(t, "admin-2", all[0].ReviewedBy)
	require.NotNil(t, all[0].ReviewedAt)
}

func TestUpdateStatusRejectRequiresReason(t *testing.T) {
	svc, _ := newVerificationFixture()
	ctx := context.Background()

	id, err := svc.Create(ctx, sampleInput())
	require.NoError(t, err)

	err = svc.UpdateStatus(ctx, id, model.VerificationRejected, "admin-1", StatusOptions{})
	var validation *model.ValidationError
	require.ErrorAs(t, err, &validation)

	require.NoError(t, svc.UpdateStatus(ctx, id, model.VerificationRejected, "admin-1", StatusOptions{
		RejectionReason: "Blurry license scan",
		AdminNotes:      "asked owner to resubmit",
	}))

	all, err := svc.List(ctx, model.VerificationFilter{})
	require.NoError(t, err)
	assert.Equal(t, "Blurry license scan", all[0].RejectionReason)
	assert.Equal(t, "asked owner to resubmit", all[0].AdminNotes)
}

func TestUpdateStatusRejectsInvalidTransitions(t *testing.T) {
	svc, _ := newVerificationFixture()
	ctx := context.Background()

	id, err := svc.Create(ctx, sampleInput())
	require.NoError(t, err)

	var validation *model.ValidationError
	require.ErrorAs(t, svc.UpdateStatus(ctx, id, "archived", "admin-1", StatusOptions{}), &validation)
	require.ErrorAs(t, svc.UpdateStatus(ctx, id, model.VerificationPending, "admin-1", StatusOptions{}), &validation)

	require.NoError(t, svc.UpdateStatus(ctx, id, model.VerificationApproved, "admin-1", StatusOptions{}))
	// Approved is terminal for the review machine.
	require.ErrorAs(t, svc.UpdateStatus(ctx, id, model.VerificationUnderReview, "admin-1", StatusOptions{}), &validation)
}

func TestUpdateStatusNotFound(t *testing.T) {
	svc, _ := newVerificationFixture()

	err := svc.UpdateStatus(context.Background(), "missing", model.VerificationApproved, "admin-1", StatusOptions{})
	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestStatsEmpty(t *testing.T) {
	svc, _ := newVerificationFixture()

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, stats.Pending)
	assert.Equal(t, 0, stats.Approved)
	assert.Equal(t, 0, stats.Rejected)
	assert.Equal(t, 0, stats.UnderReview)
	assert.Equal(t, 0, stats.ApprovalRate)
	// All known buckets are present even at zero.
	assert.Len(t, stats.ByDocumentType, len(model.KnownDocumentTypes))
	assert.Len(t, stats.ByUserRole, len(model.KnownUserRoles))
}

func TestStatsBreakdownAndDeletedRecords(t *testing.T) {
	svc, _ := newVerificationFixture()
	ctx := context.Background()

	first, err := svc.Create(ctx, sampleInput())
	require.NoError(t, err)

	second := sampleInput()
	second.UserID = "owner-2"
	second.UserRole = model.RoleCollector
	second.DocumentType = model.DocTypePermit
	secondID, err := svc.Create(ctx, second)
	require.NoError(t, err)

	third := sampleInput()
	third.UserID = "owner-3"
	thirdID, err := svc.Create(ctx, third)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, first, model.VerificationApproved, "admin-1", StatusOptions{}))
	require.NoError(t, svc.SoftDelete(ctx, thirdID, "admin-1"))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total, "deleted records still count toward total")
	sum := stats.Pending + stats.Approved + stats.Rejected + stats.UnderReview
	assert.Less(t, sum, stats.Total, "deleted records fall outside the status buckets")
	assert.Equal(t, 1, stats.Approved)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 33, stats.ApprovalRate)
	assert.Equal(t, 1, stats.ByUserRole[model.RoleCollector])
	assert.Equal(t, 1, stats.ByDocumentType[model.DocTypePermit])

	_ = secondID
}

func TestBulkUpdateStampsAndIsAtomic(t *testing.T) {
	svc, store := newVerificationFixture()
	ctx := context.Background()

	id, err := svc.Create(ctx, sampleInput())
	require.NoError(t, err)

	// A single unresolvable id fails the whole batch.
	err = svc.BulkUpdate(ctx, "admin-1", []BulkVerificationUpdate{
		{ID: id, Data: map[string]any{"adminNotes": "batch note"}},
		{ID: "missing", Data: map[string]any{"adminNotes": "never applied"}},
	})
	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)

	doc, err := store.GetByID(ctx, model.CollectionVerifications, id)
	require.NoError(t, err)
	assert.Empty(t, doc.Str("adminNotes"), "failed batch must not apply any update")

	require.NoError(t, svc.BulkUpdate(ctx, "admin-1", []BulkVerificationUpdate{
		{ID: id, Data: map[string]any{"adminNotes": "batch note"}},
	}))
	doc, err = store.GetByID(ctx, model.CollectionVerifications, id)
	require.NoError(t, err)
	assert.Equal(t, "batch note", doc.Str("adminNotes"))
	assert.True(t, doc.Has("updatedAt"))
}

func TestSoftDeleteKeepsDocument(t *testing.T) {
	svc, store := newVerificationFixture()
	ctx := context.Background()

	id, err := svc.Create(ctx, sampleInput())
	require.NoError(t, err)
	require.NoError(t, svc.SoftDelete(ctx, id, "admin-1"))

	doc, err := store.GetByID(ctx, model.CollectionVerifications, id)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationDeleted, doc.Str("status"))
	assert.Equal(t, "admin-1", doc.Str("deletedBy"))
	assert.True(t, doc.Has("deletedAt"))
}

func TestPendingByRole(t *testing.T) {
	svc, _ := newVerificationFixture()
	ctx := context.Background()

	ownerID, err := svc.Create(ctx, sampleInput())
	require.NoError(t, err)

	collector := sampleInput()
	collector.UserID = "collector-1"
	collector.UserRole = model.RoleCollector
	_, err = svc.Create(ctx, collector)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, ownerID, model.VerificationApproved, "admin-1", StatusOptions{}))

	pending, err := svc.PendingByRole(ctx, model.RoleCollector)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "collector-1", pending[0].UserID)

	pending, err = svc.PendingByRole(ctx, model.RoleJunkShopOwner)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSearchVerifications(t *testing.T) {
	svc, _ := newVerificationFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, sampleInput())
	require.NoError(t, err)

	other := sampleInput()
	other.UserID = "owner-2"
	other.ShopName = "Metro Metal Buyers"
	other.BusinessLicense = "BL-2024-777"
	other.Address = "88 Aurora Blvd"
	_, err = svc.Create(ctx, other)
	require.NoError(t, err)

	matches, err := svc.Search(ctx, "green scrap")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "owner-1", matches[0].UserID)

	matches, err = svc.Search(ctx, "AURORA")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "owner-2", matches[0].UserID)

	matches, err = svc.Search(ctx, "BL-2024")
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = svc.Search(ctx, "no such shop")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestAdminActionsLeaveAuditTrail(t *testing.T) {
	svc, store := newVerificationFixture()
	ctx := context.Background()

	id, err := svc.Create(ctx, sampleInput())
	require.NoError(t, err)
	require.NoError(t, svc.UpdateStatus(ctx, id, model.VerificationApproved, "admin-1", StatusOptions{}))

	logs, err := store.Query(ctx, model.CollectionSystemLogs, repository.Query{})
	require.NoError(t, err)
	require.Len(t, logs, 2)

	actions := []string{logs[0].Str("action"), logs[1].Str("action")}
	assert.Contains(t, actions, model.AuditCreateVerification)
	assert.Contains(t, actions, model.AuditUpdateVerificationStatus)
}
