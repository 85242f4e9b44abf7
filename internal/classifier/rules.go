package classifier

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type ExtensionRule struct {
	Category   Category
	Extensions []string
}

type MIMERule struct {
	Category Category
	Prefixes []string
}

type KeywordRule struct {
	Subcategory string   `yaml:"subcategory"`
	Keywords    []string `yaml:"keywords"`
}

// Rules holds the three ordered lookup tables. Earlier rows win.
type Rules struct {
	Extensions []ExtensionRule
	MIME       []MIMERule
	Keywords   map[Category][]KeywordRule
}

func DefaultRules() Rules {
	return Rules{
		Extensions: []ExtensionRule{
			{Text, []string{".txt", ".srt", ".md", ".json", ".xml", ".log", ".ini", ".cfg"}},
			{Document, []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx"}},
			{Image, []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".svg"}},
			{Audio, []string{".mp3", ".wav", ".aac", ".flac", ".ogg", ".m4a"}},
			{Video, []string{".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv"}},
			{Compressed, []string{".zip", ".rar", ".tar", ".gz", ".7z"}},
			{Code, []string{".py", ".js", ".java", ".cpp", ".h", ".cs", ".php", ".html", ".css"}},
		},
		MIME: []MIMERule{
			{Text, []string{"text/plain", "text/markdown", "text/json", "text/xml", "text/html"}},
			{Document, []string{
				"application/pdf",
				"application/msword",
				"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			}},
			{Image, []string{"image/"}},
			{Audio, []string{"audio/"}},
			{Video, []string{"video/"}},
			{Compressed, []string{
				"application/zip",
				"application/x-rar-compressed",
				"application/x-tar",
				"application/x-gzip",
				"application/gzip",
				"application/x-7z-compressed",
			}},
		},
		Keywords: map[Category][]KeywordRule{
			Text: {
				{"source_code", []string{"def ", "class ", "function", "import ", "include"}},
				{"configuration", []string{"config", "settings", "env", "properties"}},
				{"data", []string{"json", "xml", "csv", "data:"}},
				{"documentation", []string{"readme", "documentation", "guide", "manual"}},
				{"logs", []string{"error:", "warning:", "info:", "debug:"}},
			},
			Document: {
				{"report", []string{"report", "analysis", "summary", "findings"}},
				{"presentation", []string{"slide", "presentation", "deck"}},
				{"spreadsheet", []string{"sheet", "table", "column", "row"}},
				{"form", []string{"form", "application", "questionnaire"}},
			},
			Code: {
				{"web", []string{"html", "css", "javascript", "react", "angular"}},
				{"backend", []string{"server", "database", "api", "rest"}},
				{"data_science", []string{"pandas", "numpy", "sklearn", "tensorflow"}},
				{"system", []string{"system", "os", "kernel", "driver"}},
			},
		},
	}
}

// overlay is the on-disk YAML shape:
//
//	extensions:
//	  code: [".go", ".rs"]
//	mime:
//	  document: ["application/vnd.oasis.opendocument"]
//	keywords:
//	  text:
//	    - subcategory: recipes
//	      keywords: [ingredients, preheat]
//	      first: true
type overlay struct {
	Extensions map[string][]string     `yaml:"extensions"`
	MIME       map[string][]string     `yaml:"mime"`
	Keywords   map[string][]overlayRow `yaml:"keywords"`
}

type overlayRow struct {
	KeywordRule `yaml:",inline"`
	First       bool `yaml:"first"`
}

// LoadRules reads a YAML overlay and merges it onto DefaultRules.
func LoadRules(path string) (Rules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read classifier rules %s: %w", path, err)
	}

	return ParseRules(raw)
}

func ParseRules(raw []byte) (Rules, error) {
	var doc overlay
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Rules{}, fmt.Errorf("parse classifier rules: %w", err)
	}

	rules := DefaultRules()
	if err := doc.applyTo(&rules); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func (o overlay) applyTo(rules *Rules) error {
	for _, key := range sortedKeys(o.Extensions) {
		category, err := overlayCategory(key)
		if err != nil {
			return err
		}
		exts := make([]string, 0, len(o.Extensions[key]))
		for _, ext := range o.Extensions[key] {
			exts = append(exts, normalizeExtension(ext))
		}
		rules.Extensions = appendExtensionRule(rules.Extensions, category, exts)
	}

	for _, key := range sortedKeys(o.MIME) {
		category, err := overlayCategory(key)
		if err != nil {
			return err
		}
		rules.MIME = append(rules.MIME, MIMERule{Category: category, Prefixes: o.MIME[key]})
	}

	for _, key := range sortedKeys(o.Keywords) {
		category, err := overlayCategory(key)
		if err != nil {
			return err
		}
		rows := rules.Keywords[category]
		for _, row := range o.Keywords[key] {
			if strings.TrimSpace(row.Subcategory) == "" {
				return fmt.Errorf("classifier rules: keyword row under %q has no subcategory", key)
			}
			if row.First {
				rows = append([]KeywordRule{row.KeywordRule}, rows...)
			} else {
				rows = append(rows, row.KeywordRule)
			}
		}
		rules.Keywords[category] = rows
	}

	return nil
}

func appendExtensionRule(rows []ExtensionRule, category Category, exts []string) []ExtensionRule {
	for i := range rows {
		if rows[i].Category == category {
			rows[i].Extensions = append(rows[i].Extensions, exts...)
			return rows
		}
	}
	return append(rows, ExtensionRule{Category: category, Extensions: exts})
}

func overlayCategory(key string) (Category, error) {
	category, ok := ParseCategory(key)
	if !ok || category == Other {
		return "", fmt.Errorf("classifier rules: unknown category %q", key)
	}
	return category, nil
}

// sortedKeys walks overlay maps in category priority order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, category := range categories {
		for key := range m {
			if !seen[key] && strings.EqualFold(strings.TrimSpace(key), string(category)) {
				keys = append(keys, key)
				seen[key] = true
			}
		}
	}
	for key := range m {
		if !seen[key] {
			keys = append(keys, key)
		}
	}
	return keys
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
