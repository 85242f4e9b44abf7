package model

import "time"

type OrganizedFile struct {
	File     string `json:"file"`
	Category string `json:"category"`
	NewPath  string `json:"new_path"`
}

type OrganizeResult struct {
	Organized []OrganizedFile `json:"organized"`
	Errors    []string        `json:"errors"`
}

type ClassifyResult struct {
	Path        string `json:"path"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
}

type BasicInfo struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Category     string `json:"category"`
	Subcategory  string `json:"subcategory,omitempty"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
	SizeReadable string `json:"size_readable"`
}

type Timestamps struct {
	Modified time.Time `json:"modified"`
	Created  time.Time `json:"created"`
}

type FileAnalysis struct {
	BasicInfo  BasicInfo  `json:"basic_info"`
	Timestamps Timestamps `json:"timestamps"`
}

type CategoryListing struct {
	Directory string   `json:"directory"`
	Category  string   `json:"category"`
	Files     []string `json:"files"`
}

type WatchStatus struct {
	Running               bool      `json:"running"`
	WatchDirectory        string    `json:"watch_directory,omitempty"`
	OrganizationDirectory string    `json:"organization_directory,omitempty"`
	FilesProcessed        int       `json:"files_processed"`
	StartedAt             time.Time `json:"started_at,omitempty"`
}
