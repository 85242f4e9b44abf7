// Package classifier maps files to a category and an optional subcategory
// using the extension table, then MIME sniffing, then keyword rows matched
// against a bounded content excerpt.
package classifier

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultExcerptBytes = 64 << 10
	minPrintableRun     = 4
)

type Option func(*Engine)

func WithResolver(resolver MIMEResolver) Option {
	return func(e *Engine) {
		if resolver != nil {
			e.resolver = resolver
		}
	}
}

func WithExcerptBytes(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.excerptBytes = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine is immutable after New and safe for concurrent use.
type Engine struct {
	rules        Rules
	byExtension  map[string]Category
	resolver     MIMEResolver
	excerptBytes int
	logger       *slog.Logger
}

func New(rules Rules, opts ...Option) *Engine {
	e := &Engine{
		rules:        rules,
		byExtension:  make(map[string]Category),
		resolver:     SniffResolver{},
		excerptBytes: DefaultExcerptBytes,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, row := range rules.Extensions {
		for _, ext := range row.Extensions {
			ext = normalizeExtension(ext)
			if _, taken := e.byExtension[ext]; !taken && ext != "" {
				e.byExtension[ext] = row.Category
			}
		}
	}

	return e
}

// Classify never fails. Unknown or unreadable input lands in Other.
func (e *Engine) Classify(path string) (result Classification) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("classification panic", "path", path, "panic", r)
			result = Classification{Category: Other}
		}
	}()

	category, source := e.category(path)
	result = Classification{Category: category}

	if rows := e.rules.Keywords[category]; len(rows) > 0 {
		subcategory, err := e.subcategory(path, rows)
		if err != nil {
			e.logger.Debug("content analysis skipped", "path", path, "error", err)
		} else {
			result.Subcategory = subcategory
		}
	}

	e.logger.Debug("classified file", "path", path, "category", result.String(), "source", source)
	return result
}

// DetectMIME exposes the resolver used for the MIME fallback.
func (e *Engine) DetectMIME(path string) string {
	return e.resolver.DetectMIME(path)
}

func (e *Engine) category(path string) (Category, string) {
	ext := strings.ToLower(filepath.Ext(path))
	if category, ok := e.byExtension[ext]; ok {
		return category, "extension"
	}

	if category, ok := matchMIME(e.rules.MIME, e.resolver.DetectMIME(path)); ok {
		return category, "mime"
	}

	return Other, "none"
}

func (e *Engine) subcategory(path string, rows []KeywordRule) (string, error) {
	excerpt, err := readExcerpt(path, e.excerptBytes)
	if err != nil {
		return "", err
	}
	if excerpt == "" {
		return GeneralSubcategory, nil
	}

	for _, row := range rows {
		for _, keyword := range row.Keywords {
			if keyword != "" && strings.Contains(excerpt, strings.ToLower(keyword)) {
				return row.Subcategory, nil
			}
		}
	}

	return GeneralSubcategory, nil
}

func readExcerpt(path string, limit int) (string, error) {
	file, err := openRegular(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, int64(limit)))
	if err != nil {
		return "", err
	}

	return printableText(data), nil
}

// printableText keeps runs of printable characters at least minPrintableRun
// long, lower-cased and separated by single spaces.
func printableText(data []byte) string {
	var out, run strings.Builder
	runLen := 0

	flush := func() {
		if runLen >= minPrintableRun {
			if out.Len() > 0 {
				out.WriteByte(' ')
			}
			out.WriteString(run.String())
		}
		run.Reset()
		runLen = 0
	}

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]

		if r != utf8.RuneError && (unicode.IsPrint(r) || r == '\n' || r == '\t' || r == '\r') {
			run.WriteRune(unicode.ToLower(r))
			runLen++
			continue
		}
		flush()
	}
	flush()

	return strings.TrimSpace(out.String())
}
