package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"wastelink/internal/model"
	"wastelink/internal/repository"
)

// ModerationService assembles the operator queue from the four source
// collections and persists operator actions back through the store.
type ModerationService interface {
	Queue(ctx context.Context, filterName string) ([]model.ModerationItem, model.ModerationCounts, error)
	ExecuteAction(ctx context.Context, item model.ModerationItem, actionType, notes, adminID string) error
	ExportCSV(ctx context.Context, filterName string) (string, error)
}

type moderationService struct {
	store   repository.DocumentStore
	audit   AuditService
	builder *QueueBuilder
	now     func() time.Time
}

func NewModerationService(store repository.DocumentStore, audit AuditService) ModerationService {
	return &moderationService{
		store:   store,
		audit:   audit,
		builder: NewQueueBuilder(),
		now:     time.Now,
	}
}

// Queue fetches fresh snapshots of the four sources, builds the queue and
// applies the named filter. Counts always describe the full queue, not the
// filtered view.
func (s *moderationService) Queue(ctx context.Context, filterName string) ([]model.ModerationItem, model.ModerationCounts, error) {
	src, err := s.fetchSources(ctx)
	if err != nil {
		return nil, model.ModerationCounts{}, err
	}
	queue, counts := s.builder.Build(src)
	return FilterQueue(queue, filterName, s.now()), counts, nil
}

// ExecuteAction resolves a queue item. Synthesized items are materialized as
// new documents in the reports collection, permanently promoting a heuristic
// finding into a durable, auditable record; stored reports are updated in
// place. There is no optimistic update: if the write fails the item stays
// unresolved and the next build still shows it.
func (s *moderationService) ExecuteAction(ctx context.Context, item model.ModerationItem, actionType, notes, adminID string) error {
	if !model.ValidModerationAction(actionType) {
		return &model.ValidationError{Field: "action_type", Reason: "unknown action " + actionType}
	}
	if item.ID == "" {
		return &model.ValidationError{Field: "id", Reason: "required"}
	}

	origin := item.Origin
	if origin.Kind == "" {
		origin = model.OriginFromItemID(item.ID)
	}

	now := s.now().UTC()
	if origin.Synthesized() {
		_, err := s.store.Create(ctx, model.CollectionReports, repository.Document{
			"originalId":  item.ID,
			"type":        item.Type,
			"category":    item.Category,
			"description": item.Description,
			"reportedBy":  item.ReportedBy,
			"priority":    item.Priority,
			"status":      model.ReportResolved,
			"actionTaken": actionType,
			"actionNotes": notes,
			"resolvedBy":  adminID,
			"resolvedAt":  now,
			"createdAt":   item.Date,
		})
		if err != nil {
			return fmt.Errorf("materialize report for %s: %w", item.ID, err)
		}
	} else {
		err := s.store.Update(ctx, model.CollectionReports, origin.SourceID, repository.Document{
			"status":      model.ReportResolved,
			"actionTaken": actionType,
			"actionNotes": notes,
			"resolvedBy":  adminID,
			"resolvedAt":  now,
		})
		if err != nil {
			return fmt.Errorf("resolve report %s: %w", origin.SourceID, err)
		}
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, model.AuditModerationAction, item.ID, adminID, map[string]any{
			"action_type": actionType,
			"category":    item.Category,
		}); err != nil {
			log.Printf("audit: %v", err)
		}
	}
	return nil
}

// ExportCSV serializes the named queue view.
func (s *moderationService) ExportCSV(ctx context.Context, filterName string) (string, error) {
	items, _, err := s.Queue(ctx, filterName)
	if err != nil {
		return "", err
	}
	return ExportModerationCSV(items), nil
}

func (s *moderationService) fetchSources(ctx context.Context) (ModerationSources, error) {
	var src ModerationSources
	byCreated := repository.Query{Sort: repository.ByCreatedAtDesc()}

	var err error
	if src.Reports, err = s.store.Query(ctx, model.CollectionReports, byCreated); err != nil {
		return src, fmt.Errorf("fetch reports: %w", err)
	}
	if src.Reviews, err = s.store.Query(ctx, model.CollectionReviews, byCreated); err != nil {
		return src, fmt.Errorf("fetch reviews: %w", err)
	}
	if src.Users, err = s.store.Query(ctx, model.CollectionUsers, byCreated); err != nil {
		return src, fmt.Errorf("fetch users: %w", err)
	}
	if src.Bookings, err = s.store.Query(ctx, model.CollectionBookings, byCreated); err != nil {
		return src, fmt.Errorf("fetch bookings: %w", err)
	}
	return src, nil
}
