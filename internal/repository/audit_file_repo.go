package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go-file-organizer/internal/model"
	"go-file-organizer/pkg/apierror"
)

// AuditStore is implemented by the JSON-lines file store and the Postgres store.
type AuditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}

var (
	_ AuditStore = (*AuditFileRepository)(nil)
	_ AuditStore = (*AuditRepository)(nil)
)

// AuditFileRepository appends one JSON document per line.
type AuditFileRepository struct {
	filePath string
	mu       sync.Mutex
}

func NewAuditFileRepository(filePath string) (*AuditFileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("prepare audit directory: %w", err)
	}

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("initialize audit file: %w", err)
	}
	_ = f.Close()

	return &AuditFileRepository{filePath: filePath}, nil
}

func (r *AuditFileRepository) Log(_ context.Context, entry model.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (r *AuditFileRepository) Query(_ context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	query = normalizeAuditPaging(query)

	from, err := parseOptionalAuditTime(query.From)
	if err != nil {
		return nil, model.Meta{}, apierror.New("BAD_REQUEST", "invalid 'from' datetime format", query.From, http.StatusBadRequest)
	}
	to, err := parseOptionalAuditTime(query.To)
	if err != nil {
		return nil, model.Meta{}, apierror.New("BAD_REQUEST", "invalid 'to' datetime format", query.To, http.StatusBadRequest)
	}

	action := strings.ToLower(strings.TrimSpace(query.Action))
	status := strings.ToLower(strings.TrimSpace(query.Status))
	actorID := strings.TrimSpace(query.ActorID)
	pathFilter := strings.ToLower(strings.TrimSpace(query.Path))

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, model.Meta{}, err
	}
	defer f.Close()

	type timedEntry struct {
		at    time.Time
		entry model.AuditEntry
	}

	matched := make([]timedEntry, 0, 128)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry model.AuditEntry
		if json.Unmarshal([]byte(line), &entry) != nil {
			continue
		}

		if action != "" && strings.ToLower(entry.Action) != action {
			continue
		}
		if status != "" && strings.ToLower(entry.Status) != status {
			continue
		}
		if actorID != "" && entry.Actor.UserID != actorID {
			continue
		}
		if pathFilter != "" && !strings.Contains(strings.ToLower(entry.Resource), pathFilter) {
			continue
		}

		at, timeErr := parseAuditTime(entry.OccurredAt)
		if timeErr != nil {
			continue
		}
		if (!from.IsZero() && at.Before(from)) || (!to.IsZero() && at.After(to)) {
			continue
		}

		matched = append(matched, timedEntry{at: at, entry: entry})
	}
	if err := scanner.Err(); err != nil {
		return nil, model.Meta{}, err
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].at.After(matched[j].at)
	})

	total := len(matched)
	start := min((query.Page-1)*query.Limit, total)
	end := min(start+query.Limit, total)

	items := make([]model.AuditEntry, 0, end-start)
	for _, m := range matched[start:end] {
		items = append(items, m.entry)
	}

	return items, auditMeta(query, total), nil
}

func normalizeAuditPaging(query model.AuditQuery) model.AuditQuery {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}
	return query
}

func auditMeta(query model.AuditQuery, total int) model.Meta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + query.Limit - 1) / query.Limit
	}
	return model.Meta{Page: query.Page, Limit: query.Limit, Total: total, TotalPages: totalPages}
}

func parseOptionalAuditTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}
	return parseAuditTime(trimmed)
}

func parseAuditTime(raw string) (time.Time, error) {
	value, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}
	return value.UTC(), nil
}
