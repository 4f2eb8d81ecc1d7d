// Package transform maps between the CRUD endpoint's flat rows and the
// domain model and derives the folder and tag projections of a link list.
// Everything here is pure.
package transform

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
)

// Now is the clock used for rows without a creation time.
var Now = time.Now

// WireToLink converts a row from the endpoint into a Link.
func WireToLink(row domain.APILink) domain.Link {
	return domain.Link{
		ID:          string(row.ID),
		Title:       string(row.Title),
		URL:         string(row.Link),
		Description: string(row.Description),
		FolderID:    string(row.Folder),
		Tags:        SplitTags(string(row.Tags)),
		IsFavorite:  string(row.IsFav) == "1",
		CreatedAt:   parseCreated(string(row.ID), string(row.CreatedTime)),
		ClickCount:  parseClicks(string(row.Clicks)),
	}
}

// WireToLinks converts a whole list, keeping order.
func WireToLinks(rows []domain.APILink) []domain.Link {
	links := make([]domain.Link, 0, len(rows))
	for _, row := range rows {
		links = append(links, WireToLink(row))
	}
	return links
}

// LinkToWire converts a link into the form payload. The favicon is always
// recomputed from the URL.
func LinkToWire(link domain.Link) domain.APILinkData {
	data := domain.APILinkData{
		Link:        link.URL,
		Title:       link.Title,
		Description: link.Description,
		Folder:      link.FolderID,
		Tags:        JoinTags(link.Tags),
		IsFav:       link.IsFavorite,
		Clicks:      link.ClickCount,
	}
	if link.URL != "" {
		data.Img = FaviconURL(link.URL)
	}
	return data
}

// InputToWire converts a new link into the form payload.
func InputToWire(in domain.LinkInput) domain.APILinkData {
	return LinkToWire(domain.Link{
		Title:       in.Title,
		URL:         in.URL,
		Description: in.Description,
		FolderID:    in.FolderID,
		Tags:        in.Tags,
		IsFavorite:  in.IsFavorite,
	})
}

// SplitTags splits a comma-delimited tag string, trimming and dropping empties.
func SplitTags(s string) []string {
	tags := []string{}
	for _, part := range strings.Split(s, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// JoinTags is the inverse of SplitTags.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// FaviconURL returns the favicon lookup URL for the link's domain.
func FaviconURL(rawURL string) string {
	domainName := "example.com"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		domainName = u.Hostname()
	}
	return "https://www.google.com/s2/favicons?domain=" + url.QueryEscape(domainName) + "&sz=64"
}

func parseClicks(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseCreated(id, s string) time.Time {
	s = strings.TrimSpace(s)
	if s != "" {
		if t, err := time.ParseInLocation(domain.WireTimeLayout, s, time.UTC); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	logger.Warn().Str("id", id).Str("created_time", s).Msg("link has no usable creation time, defaulting to now")
	return Now()
}
