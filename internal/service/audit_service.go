package service

import (
	"context"
	"log/slog"
	"time"

	"go-file-organizer/internal/model"
	"go-file-organizer/internal/repository"
)

const (
	auditStatusSuccess = "success"
	auditStatusPartial = "partial"
	auditStatusFailed  = "failed"
)

// AuditService records who did what. A nil *AuditService drops entries.
// Store failures are logged and never surface to the operation being audited.
type AuditService struct {
	store repository.AuditStore
}

func NewAuditService(store repository.AuditStore) *AuditService {
	return &AuditService{store: store}
}

func (s *AuditService) Log(ctx context.Context, action string, actor model.AuditActor, status string, resource string, before any, after any, errText string) {
	if s == nil || s.store == nil {
		return
	}

	entry := model.AuditEntry{
		Action:     action,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Actor:      actor,
		Status:     status,
		Resource:   resource,
		Before:     before,
		After:      after,
		Error:      errText,
	}

	// audit even when the request context is already cancelled
	if err := s.store.Log(context.WithoutCancel(ctx), entry); err != nil {
		slog.Warn("audit log write failed", "action", action, "resource", resource, "error", err)
	}
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if s == nil || s.store == nil {
		return []model.AuditEntry{}, model.Meta{Page: 1, Limit: query.Limit}, nil
	}
	return s.store.Query(ctx, query)
}

func auditStatus(err error, skipped int) string {
	switch {
	case err != nil:
		return auditStatusFailed
	case skipped > 0:
		return auditStatusPartial
	default:
		return auditStatusSuccess
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
