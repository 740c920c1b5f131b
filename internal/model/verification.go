package model

import "time"

// Verification status enum constants
const (
	VerificationPending     = "pending"
	VerificationApproved    = "approved"
	VerificationRejected    = "rejected"
	VerificationUnderReview = "under_review"
	VerificationDeleted     = "deleted" // soft-delete sentinel, never set via UpdateStatus
)

// Document type enum constants
const (
	DocTypeBusinessLicense = "business_license"
	DocTypeTaxCertificate  = "tax_certificate"
	DocTypeIdentification  = "identification"
	DocTypePermit          = "permit"
)

// User role enum constants
const (
	RoleJunkShopOwner = "junk_shop_owner"
	RoleJunkshop      = "junkshop"
	RoleCollector     = "collector"
	RoleCustomer      = "customer"
)

// KnownDocumentTypes and KnownUserRoles drive the statistics breakdowns:
// every known bucket appears in the stats even when its count is zero.
var (
	KnownDocumentTypes = []string{DocTypeBusinessLicense, DocTypeTaxCertificate, DocTypeIdentification, DocTypePermit}
	KnownUserRoles     = []string{RoleJunkShopOwner, RoleJunkshop, RoleCollector, RoleCustomer}
)

// VerificationMetadata carries submission bookkeeping captured at create time.
type VerificationMetadata struct {
	SubmissionTimestamp time.Time `bson:"submissionTimestamp" json:"submission_timestamp"`
	DocumentSize        int64     `bson:"documentSize" json:"document_size"`
	FileType            string    `bson:"fileType" json:"file_type"`
}

// Verification represents a document-submission claim by a user (typically a
// junk-shop owner) awaiting administrative approval.
type Verification struct {
	ID              string               `bson:"_id,omitempty" json:"id"`
	UserID          string               `bson:"userId" json:"user_id"`
	UserRole        string               `bson:"userRole" json:"user_role"`
	DocumentType    string               `bson:"documentType" json:"document_type"`
	DocumentURL     string               `bson:"documentURL" json:"document_url"`
	Status          string               `bson:"status" json:"status"`
	ShopName        string               `bson:"shopName,omitempty" json:"shop_name,omitempty"`
	BusinessLicense string               `bson:"businessLicense,omitempty" json:"business_license,omitempty"`
	Address         string               `bson:"address,omitempty" json:"address,omitempty"`
	PhoneNumber     string               `bson:"phoneNumber,omitempty" json:"phone_number,omitempty"`
	SubmissionDate  time.Time            `bson:"submissionDate" json:"submission_date"`
	ReviewedBy      string               `bson:"reviewedBy,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time           `bson:"reviewedAt,omitempty" json:"reviewed_at,omitempty"`
	RejectionReason string               `bson:"rejectionReason,omitempty" json:"rejection_reason,omitempty"`
	AdminNotes      string               `bson:"adminNotes,omitempty" json:"admin_notes,omitempty"`
	DeletedBy       string               `bson:"deletedBy,omitempty" json:"deleted_by,omitempty"`
	DeletedAt       *time.Time           `bson:"deletedAt,omitempty" json:"deleted_at,omitempty"`
	Metadata        VerificationMetadata `bson:"metadata" json:"metadata"`
	CreatedAt       time.Time            `bson:"createdAt" json:"created_at"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updated_at"`
}

// verificationTransitions is the reviewable-status state machine:
// pending -> approved/rejected/under_review, under_review -> approved/rejected.
// There is no path back to pending. Soft delete is handled separately and is
// allowed from any state.
var verificationTransitions = map[string][]string{
	VerificationPending:     {VerificationApproved, VerificationRejected, VerificationUnderReview},
	VerificationUnderReview: {VerificationApproved, VerificationRejected},
}

// ValidVerificationStatus reports whether s is one of the four reviewable
// statuses accepted by UpdateStatus.
func ValidVerificationStatus(s string) bool {
	switch s {
	case VerificationPending, VerificationApproved, VerificationRejected, VerificationUnderReview:
		return true
	}
	return false
}

// CanTransitionVerification reports whether the status machine permits
// moving a record from -> to.
func CanTransitionVerification(from, to string) bool {
	if to == VerificationDeleted {
		return true
	}
	for _, next := range verificationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidUserRole reports whether role is a known platform role.
func ValidUserRole(role string) bool {
	for _, r := range KnownUserRoles {
		if r == role {
			return true
		}
	}
	return false
}

// ValidDocumentType reports whether t is a known document type.
func ValidDocumentType(t string) bool {
	for _, dt := range KnownDocumentTypes {
		if dt == t {
			return true
		}
	}
	return false
}

// VerificationFilter is a conjunction of equality filters for listing
// verifications. Zero values mean "no constraint".
type VerificationFilter struct {
	Status       string `form:"status" json:"status"`
	UserRole     string `form:"user_role" json:"user_role"`
	UserID       string `form:"user_id" json:"user_id"`
	DocumentType string `form:"document_type" json:"document_type"`
	Limit        int64  `form:"limit" json:"limit"`
}

// VerificationStats is the aggregate snapshot computed by a full scan of the
// verifications collection.
type VerificationStats struct {
	Total          int            `json:"total"`
	Pending        int            `json:"pending"`
	Approved       int            `json:"approved"`
	Rejected       int            `json:"rejected"`
	UnderReview    int            `json:"under_review"`
	ApprovalRate   int            `json:"approval_rate"`
	ByDocumentType map[string]int `json:"by_document_type"`
	ByUserRole     map[string]int `json:"by_user_role"`
}
