package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go-file-organizer/internal/classifier"
	"go-file-organizer/internal/event"
	"go-file-organizer/internal/metrics"
	"go-file-organizer/internal/model"
	"go-file-organizer/internal/pathalloc"
	"go-file-organizer/internal/storage"
	"go-file-organizer/internal/util"
	"go-file-organizer/pkg/apierror"
)

const operationOrganize = "organize"

// Classifier is the part of classifier.Engine the organize pipeline uses.
type Classifier interface {
	Classify(path string) classifier.Classification
	DetectMIME(path string) string
}

// OrganizeService files paths into <destination>/<category>[/<subcategory>].
type OrganizeService struct {
	fs          storage.FileSystem
	classifier  Classifier
	defaultRoot string
	audit       *AuditService
	bus         event.Bus
	metrics     *metrics.Metrics
}

// NewOrganizeService uses defaultRoot as the destination when a request names
// none. An empty defaultRoot files each path next to itself.
func NewOrganizeService(fs storage.FileSystem, engine Classifier, defaultRoot string, audit *AuditService, bus event.Bus, m *metrics.Metrics) *OrganizeService {
	return &OrganizeService{
		fs:          fs,
		classifier:  engine,
		defaultRoot: defaultRoot,
		audit:       audit,
		bus:         bus,
		metrics:     m,
	}
}

// Organize never aborts the batch: every failure becomes an entry in Errors.
func (s *OrganizeService) Organize(ctx context.Context, files []string, destination string, actor model.AuditActor) model.OrganizeResult {
	started := time.Now()
	result := model.OrganizeResult{
		Organized: make([]model.OrganizedFile, 0, len(files)),
		Errors:    make([]string, 0),
	}

	alloc := pathalloc.New(pathalloc.WithStyle(pathalloc.SuffixUnderscore), pathalloc.WithProber(s.fs))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Cancelled before %s: %v", file, err))
			break
		}

		organized, err := s.organizeOne(alloc, file, destination)
		if err != nil {
			slog.Warn("organize failed", "path", file, "error", err)
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Organized = append(result.Organized, organized)
		if s.bus != nil {
			s.bus.Publish(event.New(event.TypeFileOrganized, organized, actorID(actor)))
		}
	}

	var batchErr error
	if len(result.Organized) == 0 && len(result.Errors) > 0 {
		batchErr = errors.New(result.Errors[0])
	}
	s.metrics.ObserveOperation(operationOrganize, started, batchErr)
	s.metrics.FilesMoved(operationOrganize, len(result.Organized))
	s.metrics.ItemsSkipped(operationOrganize, len(result.Errors))
	s.audit.Log(ctx, operationOrganize, actor, auditStatus(batchErr, len(result.Errors)), destination, files, result, errorText(batchErr))

	return result
}

func (s *OrganizeService) organizeOne(alloc *pathalloc.Allocator, file string, destination string) (model.OrganizedFile, error) {
	resolved, err := s.fs.Resolve(file)
	if err != nil {
		return model.OrganizedFile{}, err
	}

	info, err := s.fs.Stat(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.OrganizedFile{}, fmt.Errorf("File not found: %s", file)
		}
		return model.OrganizedFile{}, fmt.Errorf("stat %s: %w", file, err)
	}
	if !info.Mode().IsRegular() {
		return model.OrganizedFile{}, fmt.Errorf("Not a file: %s", file)
	}

	classification := s.classifier.Classify(resolved)
	s.metrics.Classified(string(classification.Category))

	targetDir, err := s.targetDir(resolved, destination, classification)
	if err != nil {
		return model.OrganizedFile{}, err
	}
	if err := s.fs.MkdirAll(targetDir, 0o755); err != nil {
		return model.OrganizedFile{}, err
	}

	target, err := alloc.Allocate(targetDir, filepath.Base(resolved))
	if err != nil {
		return model.OrganizedFile{}, fmt.Errorf("allocate name for %s: %w", file, err)
	}
	if err := s.fs.Move(resolved, target); err != nil {
		alloc.Release(target)
		return model.OrganizedFile{}, err
	}

	slog.Info("file organized", "path", resolved, "category", classification.String(), "new_path", target)
	return model.OrganizedFile{
		File:     resolved,
		Category: classification.String(),
		NewPath:  target,
	}, nil
}

func (s *OrganizeService) targetDir(file string, destination string, classification classifier.Classification) (string, error) {
	base := destination
	if base == "" {
		base = s.defaultRoot
	}
	if base == "" {
		base = filepath.Dir(file)
	}

	segment, err := util.FolderSegment(string(classification.Category))
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, segment)

	if classification.Subcategory != "" {
		sub, err := util.FolderSegment(classification.Subcategory)
		if err != nil {
			return "", err
		}
		dir = filepath.Join(dir, sub)
	}

	return s.fs.Resolve(dir)
}

// Classify reports the classification of a single existing file.
func (s *OrganizeService) Classify(_ context.Context, path string) (classifier.Classification, error) {
	resolved, _, err := s.statFile(path)
	if err != nil {
		return classifier.Classification{}, err
	}

	classification := s.classifier.Classify(resolved)
	s.metrics.Classified(string(classification.Category))
	return classification, nil
}

// Analyze describes a file: classification, MIME type, size and timestamps.
func (s *OrganizeService) Analyze(_ context.Context, path string) (model.FileAnalysis, error) {
	resolved, info, err := s.statFile(path)
	if err != nil {
		return model.FileAnalysis{}, err
	}

	classification := s.classifier.Classify(resolved)
	s.metrics.Classified(string(classification.Category))

	modified := info.ModTime().UTC()
	return model.FileAnalysis{
		BasicInfo: model.BasicInfo{
			Name:         info.Name(),
			Path:         resolved,
			Category:     string(classification.Category),
			Subcategory:  classification.Subcategory,
			MimeType:     s.classifier.DetectMIME(resolved),
			Size:         info.Size(),
			SizeReadable: util.SizeMB(info.Size()),
		},
		Timestamps: model.Timestamps{
			Modified: modified,
			Created:  modified,
		},
	}, nil
}

// ListByCategory returns the direct child files of dir whose category matches.
func (s *OrganizeService) ListByCategory(ctx context.Context, dir string, rawCategory string) (model.CategoryListing, error) {
	category, ok := classifier.ParseCategory(rawCategory)
	if !ok {
		known := make([]string, 0, 8)
		for _, c := range classifier.Categories() {
			known = append(known, string(c))
		}
		details := fmt.Sprintf("%q; expected one of %s", rawCategory, strings.Join(known, ", "))
		return model.CategoryListing{}, apierror.Wrap(model.ErrInvalidInput, "BAD_REQUEST", "Unknown category", details, http.StatusBadRequest)
	}

	resolved, err := s.fs.Resolve(dir)
	if err != nil {
		return model.CategoryListing{}, err
	}

	entries, err := s.fs.ReadDir(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.CategoryListing{}, apierror.NotFound("Directory not found", dir, model.ErrSourceNotFound)
		}
		return model.CategoryListing{}, apierror.Wrap(model.ErrNotDirectory, "BAD_REQUEST", "Path is not a readable directory", dir, http.StatusBadRequest)
	}

	listing := model.CategoryListing{
		Directory: resolved,
		Category:  string(category),
		Files:     make([]string, 0),
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return model.CategoryListing{}, err
		}
		path := filepath.Join(resolved, entry.Name())
		if s.classifier.Classify(path).Category == category {
			listing.Files = append(listing.Files, path)
		}
	}

	return listing, nil
}

func (s *OrganizeService) statFile(path string) (string, fs.FileInfo, error) {
	resolved, err := s.fs.Resolve(path)
	if err != nil {
		return "", nil, err
	}

	info, err := s.fs.Stat(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, apierror.NotFound("File not found", path, model.ErrSourceNotFound)
		}
		return "", nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", nil, apierror.Wrap(model.ErrNotFile, "BAD_REQUEST", "Path is not a file", path, http.StatusBadRequest)
	}

	return resolved, info, nil
}
