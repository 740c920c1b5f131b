package service

import (
	"context"
	"fmt"
	"time"

	"wastelink/internal/model"
	"wastelink/internal/repository"
)

// AuditService writes and reads the system_logs trail recording who did what
// and when for critical admin actions.
type AuditService interface {
	Record(ctx context.Context, action, entityID, performedBy string, details map[string]any) error
	List(ctx context.Context, limit int64) ([]model.AuditLog, error)
}

type auditService struct {
	store repository.DocumentStore
	now   func() time.Time
}

func NewAuditService(store repository.DocumentStore) AuditService {
	return &auditService{store: store, now: time.Now}
}

func (s *auditService) Record(ctx context.Context, action, entityID, performedBy string, details map[string]any) error {
	doc := repository.Document{
		"action":      action,
		"entityId":    entityID,
		"performedBy": performedBy,
		"createdAt":   s.now().UTC(),
	}
	if len(details) > 0 {
		doc["details"] = details
	}
	if _, err := s.store.Create(ctx, model.CollectionSystemLogs, doc); err != nil {
		return fmt.Errorf("record audit log: %w", err)
	}
	return nil
}

func (s *auditService) List(ctx context.Context, limit int64) ([]model.AuditLog, error) {
	docs, err := s.store.Query(ctx, model.CollectionSystemLogs, repository.Query{
		Sort:  repository.ByCreatedAtDesc(),
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}

	now := s.now()
	logs := make([]model.AuditLog, 0, len(docs))
	for _, d := range docs {
		entry := model.AuditLog{
			ID:          d.Str("id"),
			Action:      d.Str("action"),
			EntityID:    d.Str("entityId"),
			PerformedBy: d.Str("performedBy"),
			CreatedAt:   repository.CoerceTime(d["createdAt"], now),
		}
		if details, ok := d["details"].(map[string]any); ok {
			entry.Details = details
		}
		logs = append(logs, entry)
	}
	return logs, nil
}
