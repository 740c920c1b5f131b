package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"wastelink/internal/model"
	"wastelink/internal/repository"
)

// --- DTOs ---

type CreateVerificationInput struct {
	UserID          string `json:"user_id" binding:"required"`
	UserRole        string `json:"user_role" binding:"required"`
	DocumentType    string `json:"document_type" binding:"required"`
	DocumentURL     string `json:"document_url" binding:"required"`
	ShopName        string `json:"shop_name"`
	BusinessLicense string `json:"business_license"`
	Address         string `json:"address"`
	PhoneNumber     string `json:"phone_number"`
	DocumentSize    int64  `json:"document_size"`
	FileType        string `json:"file_type"`
}

type StatusOptions struct {
	RejectionReason string `json:"rejection_reason"`
	AdminNotes      string `json:"admin_notes"`
}

type BulkVerificationUpdate struct {
	ID   string         `json:"id" binding:"required"`
	Data map[string]any `json:"data" binding:"required"`
}

// --- Interface ---

// VerificationService owns all reads and writes against the verifications
// collection and encapsulates its status state machine.
type VerificationService interface {
	Create(ctx context.Context, input CreateVerificationInput) (string, error)
	UpdateStatus(ctx context.Context, id, status, adminID string, opts StatusOptions) error
	List(ctx context.Context, filter model.VerificationFilter) ([]model.Verification, error)
	Stats(ctx context.Context) (model.VerificationStats, error)
	BulkUpdate(ctx context.Context, adminID string, updates []BulkVerificationUpdate) error
	SoftDelete(ctx context.Context, id, adminID string) error
	PendingByRole(ctx context.Context, role string) ([]model.Verification, error)
	Search(ctx context.Context, term string) ([]model.Verification, error)
	Watch(ctx context.Context, filter model.VerificationFilter) (*VerificationWatcher, error)
}

type verificationService struct {
	store repository.DocumentStore
	audit AuditService
	now   func() time.Time
}

func NewVerificationService(store repository.DocumentStore, audit AuditService) VerificationService {
	return &verificationService{store: store, audit: audit, now: time.Now}
}

// --- Implementation ---

// Create forces status=pending and stamps the submission and server
// timestamps; the caller never controls those fields.
func (s *verificationService) Create(ctx context.Context, input CreateVerificationInput) (string, error) {
	if !model.ValidUserRole(input.UserRole) {
		return "", &model.ValidationError{Field: "user_role", Reason: "unknown role " + input.UserRole}
	}
	if !model.ValidDocumentType(input.DocumentType) {
		return "", &model.ValidationError{Field: "document_type", Reason: "unknown document type " + input.DocumentType}
	}
	if input.UserID == "" {
		return "", &model.ValidationError{Field: "user_id", Reason: "required"}
	}
	if input.DocumentURL == "" {
		return "", &model.ValidationError{Field: "document_url", Reason: "required"}
	}

	now := s.now().UTC()
	doc := repository.Document{
		"userId":         input.UserID,
		"userRole":       input.UserRole,
		"documentType":   input.DocumentType,
		"documentURL":    input.DocumentURL,
		"status":         model.VerificationPending,
		"submissionDate": now,
		"createdAt":      now,
		"updatedAt":      now,
		"metadata": map[string]any{
			"submissionTimestamp": now,
			"documentSize":        input.DocumentSize,
			"fileType":            input.FileType,
		},
	}
	if input.ShopName != "" {
		doc["shopName"] = input.ShopName
	}
	if input.BusinessLicense != "" {
		doc["businessLicense"] = input.BusinessLicense
	}
	if input.Address != "" {
		doc["address"] = input.Address
	}
	if input.PhoneNumber != "" {
		doc["phoneNumber"] = input.PhoneNumber
	}

	id, err := s.store.Create(ctx, model.CollectionVerifications, doc)
	if err != nil {
		return "", fmt.Errorf("create verification: %w", err)
	}

	s.recordAudit(ctx, model.AuditCreateVerification, id, input.UserID, map[string]any{
		"user_role":     input.UserRole,
		"document_type": input.DocumentType,
	})
	return id, nil
}

// UpdateStatus moves a record through the state machine and always stamps
// reviewedBy/reviewedAt/updatedAt together. Rejection requires a reason.
func (s *verificationService) UpdateStatus(ctx context.Context, id, status, adminID string, opts StatusOptions) error {
	if !model.ValidVerificationStatus(status) {
		return &model.ValidationError{Field: "status", Reason: "unknown status " + status}
	}
	if status == model.VerificationRejected && opts.RejectionReason == "" {
		return &model.ValidationError{Field: "rejection_reason", Reason: "required when rejecting"}
	}

	current, err := s.store.GetByID(ctx, model.CollectionVerifications, id)
	if err != nil {
		return err
	}
	if from := current.Str("status"); !model.CanTransitionVerification(from, status) {
		return &model.ValidationError{Field: "status", Reason: fmt.Sprintf("cannot transition from %s to %s", from, status)}
	}

	now := s.now().UTC()
	update := repository.Document{
		"status":     status,
		"reviewedBy": adminID,
		"reviewedAt": now,
		"updatedAt":  now,
	}
	if status == model.VerificationRejected {
		update["rejectionReason"] = opts.RejectionReason
	}
	if opts.AdminNotes != "" {
		update["adminNotes"] = opts.AdminNotes
	}

	if err := s.store.Update(ctx, model.CollectionVerifications, id, update); err != nil {
		return err
	}

	s.recordAudit(ctx, model.AuditUpdateVerificationStatus, id, adminID, map[string]any{
		"status":           status,
		"rejection_reason": opts.RejectionReason,
	})
	return nil
}

func (s *verificationService) List(ctx context.Context, filter model.VerificationFilter) ([]model.Verification, error) {
	q := repository.Query{
		Sort:  repository.ByCreatedAtDesc(),
		Limit: filter.Limit,
	}
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

	docs, err := s.store.Query(ctx, model.CollectionVerifications, q)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}

	now := s.now()
	verifications := make([]model.Verification, 0, len(docs))
	for _, d := range docs {
		verifications = append(verifications, docToVerification(d, now))
	}
	return verifications, nil
}

// Stats is a full O(n) scan with no incremental maintenance, acceptable at
// admin-dashboard scale.
func (s *verificationService) Stats(ctx context.Context) (model.VerificationStats, error) {
	all, err := s.List(ctx, model.VerificationFilter{})
	if err != nil {
		return model.VerificationStats{}, err
	}

	stats := model.VerificationStats{
		Total:          len(all),
		ByDocumentType: make(map[string]int, len(model.KnownDocumentTypes)),
		ByUserRole:     make(map[string]int, len(model.KnownUserRoles)),
	}
	for _, t := range model.KnownDocumentTypes {
		stats.ByDocumentType[t] = 0
	}
	for _, r := range model.KnownUserRoles {
		stats.ByUserRole[r] = 0
	}

	for _, v := range all {
		switch v.Status {
		case model.VerificationPending:
			stats.Pending++
		case model.VerificationApproved:
			stats.Approved++
		case model.VerificationRejected:
			stats.Rejected++
		case model.VerificationUnderReview:
			stats.UnderReview++
		}
		if _, known := stats.ByDocumentType[v.DocumentType]; known {
			stats.ByDocumentType[v.DocumentType]++
		}
		if _, known := stats.ByUserRole[v.UserRole]; known {
			stats.ByUserRole[v.UserRole]++
		}
	}

	if stats.Total > 0 {
		stats.ApprovalRate = int(math.Round(float64(stats.Approved) / float64(stats.Total) * 100))
	}
	return stats, nil
}

// BulkUpdate applies all updates as one all-or-nothing batch, stamping
// updatedAt on each. Atomicity is delegated to the store's batch primitive.
func (s *verificationService) BulkUpdate(ctx context.Context, adminID string, updates []BulkVerificationUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	now := s.now().UTC()
	batch := make([]repository.Update, 0, len(updates))
	ids := make([]string, 0, len(updates))
	for _, u := range updates {
		data := repository.Document{}
		for k, v := range u.Data {
			data[k] = v
		}
		data["updatedAt"] = now
		batch = append(batch, repository.Update{
			Collection: model.CollectionVerifications,
			ID:         u.ID,
			Data:       data,
		})
		ids = append(ids, u.ID)
	}

	if err := s.store.BatchUpdate(ctx, batch); err != nil {
		return err
	}

	s.recordAudit(ctx, model.AuditBulkUpdateVerifications, strings.Join(ids, ","), adminID, map[string]any{
		"count": len(updates),
	})
	return nil
}

// SoftDelete marks the record deleted without removing the document.
func (s *verificationService) SoftDelete(ctx context.Context, id, adminID string) error {
	now := s.now().UTC()
	err := s.store.Update(ctx, model.CollectionVerifications, id, repository.Document{
		"status":    model.VerificationDeleted,
		"deletedBy": adminID,
		"deletedAt": now,
		"updatedAt": now,
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, model.AuditDeleteVerification, id, adminID, nil)
	return nil
}

func (s *verificationService) PendingByRole(ctx context.Context, role string) ([]model.Verification, error) {
	return s.List(ctx, model.VerificationFilter{
		Status:   model.VerificationPending,
		UserRole: role,
	})
}

// Search is a case-insensitive substring match over shop name, business
// license, user id and address, performed in memory because the store has no
// server-side full-text search. O(n) per call.
func (s *verificationService) Search(ctx context.Context, term string) ([]model.Verification, error) {
	all, err := s.List(ctx, model.VerificationFilter{})
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(term)
	matched := make([]model.Verification, 0)
	for _, v := range all {
		if containsFold(v.ShopName, needle) ||
			containsFold(v.BusinessLicense, needle) ||
			containsFold(v.UserID, needle) ||
			containsFold(v.Address, needle) {
			matched = append(matched, v)
		}
	}
	return matched, nil
}

// recordAudit is best-effort: a failed trail write is logged, never allowed
// to fail the admin action that triggered it.
func (s *verificationService) recordAudit(ctx context.Context, action, entityID, performedBy string, details map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, entityID, performedBy, details); err != nil {
		log.Printf("audit: %v", err)
	}
}

func containsFold(haystack, lowerNeedle string) bool {
	return haystack != "" && strings.Contains(strings.ToLower(haystack), lowerNeedle)
}

// docToVerification decodes a raw store document, coercing every timestamp
// field through the shared time normalization.
func docToVerification(d repository.Document, now time.Time) model.Verification {
	v := model.Verification{
		ID:              d.Str("id"),
		UserID:          d.Str("userId"),
		UserRole:        d.Str("userRole"),
		DocumentType:    d.Str("documentType"),
		DocumentURL:     d.Str("documentURL"),
		Status:          d.Str("status"),
		ShopName:        d.Str("shopName"),
		BusinessLicense: d.Str("businessLicense"),
		Address:         d.Str("address"),
		PhoneNumber:     d.Str("phoneNumber"),
		ReviewedBy:      d.Str("reviewedBy"),
		RejectionReason: d.Str("rejectionReason"),
		AdminNotes:      d.Str("adminNotes"),
		DeletedBy:       d.Str("deletedBy"),
		SubmissionDate:  repository.CoerceTime(d["submissionDate"], now),
		CreatedAt:       repository.CoerceTime(d["createdAt"], now),
		UpdatedAt:       repository.CoerceTime(d["updatedAt"], now),
	}
	if d.Has("reviewedAt") {
		t := repository.CoerceTime(d["reviewedAt"], now)
		v.ReviewedAt = &t
	}
	if d.Has("deletedAt") {
		t := repository.CoerceTime(d["deletedAt"], now)
		v.DeletedAt = &t
	}
	if meta, ok := d["metadata"].(map[string]any); ok {
		v.Metadata = model.VerificationMetadata{
			SubmissionTimestamp: repository.CoerceTime(meta["submissionTimestamp"], now),
			DocumentSize:        int64(repository.Document(meta).Float("documentSize")),
			FileType:            repository.Document(meta).Str("fileType"),
		}
	}
	return v
}
