package domain

import "time"

// Snapshot is the persisted copy of the full link list.
type Snapshot struct {
	Links     []Link `json:"links"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// FetchedAt returns the snapshot timestamp as a time.
func (s Snapshot) FetchedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

type SortOption string

const (
	SortNewest   SortOption = "newest"
	SortOldest   SortOption = "oldest"
	SortMostUsed SortOption = "mostUsed"
)

// Settings are the user's persisted view settings.
type Settings struct {
	SearchTerm     string     `json:"searchTerm"`
	SelectedTags   []string   `json:"selectedTags"`
	SelectedFolder string     `json:"selectedFolder"`
	ShowFolders    bool       `json:"showFolders"`
	ShowTags       bool       `json:"showTags"`
	ShowFavorites  bool       `json:"showFavorites"`
	SortBy         SortOption `json:"sortBy"`
}

// DefaultSettings are backfilled for any field missing from storage.
func DefaultSettings() Settings {
	return Settings{
		SelectedTags: []string{},
		SortBy:       SortNewest,
	}
}

// FormDraft is an in-flight add-link form.
type FormDraft struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	FolderID    string   `json:"folderId"`
	Tags        []string `json:"tags"`
	IsFavorite  bool     `json:"isFavorite"`
	Timestamp   int64    `json:"timestamp"` // Unix milliseconds, set on save
}

// Input converts the draft into a submittable link.
func (d FormDraft) Input() LinkInput {
	return LinkInput{
		Title:       d.Title,
		URL:         d.URL,
		Description: d.Description,
		FolderID:    d.FolderID,
		Tags:        d.Tags,
		IsFavorite:  d.IsFavorite,
	}
}

// CachedResponse is an HTTP response held in a proxy cache bucket.
type CachedResponse struct {
	StatusCode int                 `json:"status_code"`
	Header     map[string][]string `json:"header"`
	Body       []byte              `json:"body"`
	StoredAt   time.Time           `json:"stored_at"`
}
