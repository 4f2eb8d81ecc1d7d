// Package view filters and orders links for display.
package view

import (
	"slices"
	"strings"

	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
)

// Filter returns the links passing every active filter in settings. The
// search term is matched case-insensitively; tags match if any is selected.
func Filter(links []domain.Link, settings domain.Settings) []domain.Link {
	term := strings.ToLower(settings.SearchTerm)

	out := make([]domain.Link, 0, len(links))
	for _, l := range links {
		if term != "" && !matchesTerm(l, term) {
			continue
		}
		if len(settings.SelectedTags) > 0 && !hasAnyTag(l, settings.SelectedTags) {
			continue
		}
		if settings.SelectedFolder != "" && l.FolderID != settings.SelectedFolder {
			continue
		}
		if settings.ShowFavorites && !l.IsFavorite {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matchesTerm(l domain.Link, term string) bool {
	return strings.Contains(strings.ToLower(l.Title), term) ||
		strings.Contains(strings.ToLower(l.URL), term) ||
		strings.Contains(strings.ToLower(l.Description), term)
}

func hasAnyTag(l domain.Link, selected []string) bool {
	for _, tag := range l.Tags {
		if slices.Contains(selected, tag) {
			return true
		}
	}
	return false
}

// Sort returns a sorted copy. Ties keep their input order.
func Sort(links []domain.Link, by domain.SortOption) []domain.Link {
	out := slices.Clone(links)
	switch by {
	case domain.SortOldest:
		slices.SortStableFunc(out, func(a, b domain.Link) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	case domain.SortMostUsed:
		slices.SortStableFunc(out, func(a, b domain.Link) int {
			switch {
			case a.ClickCount > b.ClickCount:
				return -1
			case a.ClickCount < b.ClickCount:
				return 1
			}
			return 0
		})
	default:
		slices.SortStableFunc(out, func(a, b domain.Link) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
	return out
}
