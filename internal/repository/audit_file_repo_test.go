package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-file-organizer/internal/model"
)

func TestAuditFileRepositoryLogAndQuery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, err := NewAuditFileRepository(filepath.Join(t.TempDir(), "audit", "audit.log"))
	require.NoError(t, err)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := []model.AuditEntry{
		{Action: "flatten", OccurredAt: base.Format(time.RFC3339Nano), Status: "success", Resource: "/data/inbox"},
		{Action: "undo", OccurredAt: base.Add(time.Minute).Format(time.RFC3339Nano), Status: "success", Resource: "/data/inbox"},
		{Action: "organize", OccurredAt: base.Add(2 * time.Minute).Format(time.RFC3339Nano), Status: "failed", Resource: "/data/other", Error: "boom"},
	}
	for _, entry := range entries {
		require.NoError(t, repo.Log(ctx, entry))
	}

	items, meta, err := repo.Query(ctx, model.AuditQuery{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "organize", items[0].Action, "newest first")
	assert.Equal(t, 3, meta.Total)

	items, _, err = repo.Query(ctx, model.AuditQuery{Path: "INBOX", Status: "success"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, meta, err = repo.Query(ctx, model.AuditQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "flatten", items[0].Action)
	assert.Equal(t, 2, meta.TotalPages)

	items, _, err = repo.Query(ctx, model.AuditQuery{From: base.Add(30 * time.Second).Format(time.RFC3339)})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, _, err = repo.Query(ctx, model.AuditQuery{From: "yesterday"})
	require.Error(t, err)
}

func TestAuditWhereNumbersArguments(t *testing.T) {
	t.Parallel()

	clause, args := auditWhere(model.AuditQuery{Action: "undo", Path: "inbox"})
	assert.Equal(t, "WHERE lower(action) = lower($1) AND lower(resource) LIKE lower($2)", clause)
	assert.Equal(t, []any{"undo", "%inbox%"}, args)

	clause, args = auditWhere(model.AuditQuery{})
	assert.Empty(t, clause)
	assert.Empty(t, args)
}
