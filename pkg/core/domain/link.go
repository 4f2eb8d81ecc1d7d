package domain

import "time"

// Link represents a bookmarked URL
type Link struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	FolderID    string    `json:"folderId"` // Empty means unfiled
	Tags        []string  `json:"tags"`
	IsFavorite  bool      `json:"isFavorite"`
	CreatedAt   time.Time `json:"createdAt"`
	ClickCount  int64     `json:"clickCount"`
}

// LinkInput carries the user-editable fields of a new link.
type LinkInput struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	FolderID    string   `json:"folderId"`
	Tags        []string `json:"tags"`
	IsFavorite  bool     `json:"isFavorite"`
}

// LinkPatch is a partial update. Nil fields keep the current value.
type LinkPatch struct {
	Title       *string   `json:"title,omitempty"`
	URL         *string   `json:"url,omitempty"`
	Description *string   `json:"description,omitempty"`
	FolderID    *string   `json:"folderId,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	IsFavorite  *bool     `json:"isFavorite,omitempty"`
}

// Apply merges the patch over link and returns the complete record.
func (p LinkPatch) Apply(link Link) Link {
	if p.Title != nil {
		link.Title = *p.Title
	}
	if p.URL != nil {
		link.URL = *p.URL
	}
	if p.Description != nil {
		link.Description = *p.Description
	}
	if p.FolderID != nil {
		link.FolderID = *p.FolderID
	}
	if p.Tags != nil {
		link.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.IsFavorite != nil {
		link.IsFavorite = *p.IsFavorite
	}
	return link
}

// Folder is derived from the FolderID values of the current links.
type Folder struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	IsExpanded bool   `json:"isExpanded"`
}

// Tag is derived from the tag sets of the current links.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// State is what the sync layer exposes to the presentation layer.
type State struct {
	Links       []Link    `json:"links"`
	Folders     []Folder  `json:"folders"`
	Tags        []Tag     `json:"tags"`
	IsLoading   bool      `json:"isLoading"`
	Error       string    `json:"error,omitempty"`
	LastFetched time.Time `json:"lastFetched,omitempty"`
}
