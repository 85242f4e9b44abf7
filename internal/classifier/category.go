package classifier

import "strings"

type Category string

const (
	Text       Category = "text"
	Document   Category = "document"
	Image      Category = "image"
	Audio      Category = "audio"
	Video      Category = "video"
	Compressed Category = "compressed"
	Code       Category = "code"
	Other      Category = "other"
)

// GeneralSubcategory is used when content was read but no keyword row matched.
const GeneralSubcategory = "general"

var categories = [...]Category{Text, Document, Image, Audio, Video, Compressed, Code, Other}

// Categories lists every category in table priority order. Other is last.
func Categories() []Category {
	return append([]Category(nil), categories[:]...)
}

func ParseCategory(raw string) (Category, bool) {
	value := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, category := range categories {
		if category == value {
			return category, true
		}
	}
	return "", false
}

// Classification is a category plus an optional content-derived subcategory.
type Classification struct {
	Category    Category `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
}

// String renders "category" or "category/subcategory".
func (c Classification) String() string {
	if c.Subcategory == "" {
		return string(c.Category)
	}
	return string(c.Category) + "/" + c.Subcategory
}
