package transform

import "github.com/wadjakorntonsri/linkvault/pkg/core/domain"

var palette = []string{
	"#6366F1", "#06B6D4", "#8B5CF6", "#059669", "#DC2626",
	"#2563EB", "#7C3AED", "#DB2777", "#0891B2", "#65A30D",
	"#C2410C", "#4338CA", "#16A34A", "#9333EA", "#BE185D",
	"#0369A1", "#0284C7", "#CA8A04", "#7C2D12", "#1D4ED8",
	"#BE123C",
}

// ColorFor picks a palette color from a hash of s.
func ColorFor(s string) string {
	var hash int32
	for _, r := range s {
		hash = int32(r) + (hash << 5) - hash
	}
	h := int64(hash)
	if h < 0 {
		h = -h
	}
	return palette[h%int64(len(palette))]
}

// DeriveFolders returns one folder per distinct non-empty FolderID, in order
// of first occurrence. A folder without links cannot exist.
func DeriveFolders(links []domain.Link) []domain.Folder {
	seen := make(map[string]struct{})
	folders := []domain.Folder{}
	for _, link := range links {
		if link.FolderID == "" {
			continue
		}
		if _, ok := seen[link.FolderID]; ok {
			continue
		}
		seen[link.FolderID] = struct{}{}
		folders = append(folders, domain.Folder{
			ID:         link.FolderID,
			Name:       link.FolderID,
			Color:      ColorFor(link.FolderID),
			IsExpanded: true,
		})
	}
	return folders
}

// DeriveTags returns one tag per distinct tag string, in order of first occurrence.
func DeriveTags(links []domain.Link) []domain.Tag {
	seen := make(map[string]struct{})
	tags := []domain.Tag{}
	for _, link := range links {
		for _, name := range link.Tags {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			tags = append(tags, domain.Tag{
				ID:    "tag-" + name,
				Name:  name,
				Color: ColorFor(name),
			})
		}
	}
	return tags
}
