package transform

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
)

func TestWireToLink(t *testing.T) {
	raw := `{"id":"7","link":"https://github.com","title":"GitHub","description":"code",
		"folder":"Work","tags":" dev, ,tools ,","img":"x","isfav":"1",
		"created_time":"2024-01-15 10:30:00","clicks":"15"}`
	var row domain.APILink
	require.NoError(t, json.Unmarshal([]byte(raw), &row))

	link := WireToLink(row)

	assert.Equal(t, "7", link.ID)
	assert.Equal(t, "https://github.com", link.URL)
	assert.Equal(t, "Work", link.FolderID)
	assert.Equal(t, []string{"dev", "tools"}, link.Tags)
	assert.True(t, link.IsFavorite)
	assert.Equal(t, int64(15), link.ClickCount)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), link.CreatedAt)
}

func TestWireToLinkToleratesBadFields(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	Now = func() time.Time { return fixed }
	defer func() { Now = time.Now }()

	tests := []struct {
		name   string
		raw    string
		clicks int64
		fav    bool
	}{
		{name: "missing fields", raw: `{"id":"1"}`, clicks: 0},
		{name: "numeric values", raw: `{"id":2,"clicks":9,"isfav":1}`, clicks: 9, fav: true},
		{name: "invalid clicks", raw: `{"id":"3","clicks":"lots","isfav":"0"}`, clicks: 0},
		{name: "negative clicks", raw: `{"id":"4","clicks":"-3"}`, clicks: 0},
		{name: "null values", raw: `{"id":"5","clicks":null,"tags":null,"created_time":null}`, clicks: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var row domain.APILink
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &row))

			link := WireToLink(row)
			assert.Equal(t, tt.clicks, link.ClickCount)
			assert.Equal(t, tt.fav, link.IsFavorite)
			assert.Equal(t, fixed, link.CreatedAt)
			assert.Empty(t, link.Tags)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	links := []domain.Link{
		{Title: "GitHub", URL: "https://github.com/x", Description: "d", FolderID: "Work", Tags: []string{"dev", "tools"}, IsFavorite: true},
		{Title: "", URL: "", Description: "", FolderID: "", Tags: []string{}, IsFavorite: false},
		{Title: "Spaces", URL: "not a url", FolderID: "Personal", Tags: []string{"a b", "c"}},
	}

	for _, original := range links {
		data := LinkToWire(original)
		row := domain.APILink{
			Link:        domain.WireString(data.Link),
			Title:       domain.WireString(data.Title),
			Description: domain.WireString(data.Description),
			Folder:      domain.WireString(data.Folder),
			Tags:        domain.WireString(data.Tags),
			Img:         domain.WireString(data.Img),
			IsFav:       "0",
			CreatedTime: "2024-01-01 00:00:00",
		}
		if data.IsFav {
			row.IsFav = "1"
		}

		back := WireToLink(row)
		assert.Equal(t, original.Title, back.Title)
		assert.Equal(t, original.URL, back.URL)
		assert.Equal(t, original.Description, back.Description)
		assert.Equal(t, original.FolderID, back.FolderID)
		assert.ElementsMatch(t, original.Tags, back.Tags)
		assert.Equal(t, original.IsFavorite, back.IsFavorite)
	}
}

func TestLinkToWireRecomputesFavicon(t *testing.T) {
	data := LinkToWire(domain.Link{URL: "https://www.github.com/foo?bar=1", Tags: []string{"a", "b"}, ClickCount: 4})

	assert.Equal(t, "https://www.google.com/s2/favicons?domain=www.github.com&sz=64", data.Img)
	assert.Equal(t, "a, b", data.Tags)
	assert.Equal(t, int64(4), data.Clicks)

	assert.Equal(t, "https://www.google.com/s2/favicons?domain=example.com&sz=64", FaviconURL("::nope"))
	assert.Empty(t, LinkToWire(domain.Link{}).Img)
}

func TestDeriveFolders(t *testing.T) {
	links := []domain.Link{
		{ID: "1", FolderID: "Work"},
		{ID: "2", FolderID: ""},
		{ID: "3", FolderID: "Personal"},
		{ID: "4", FolderID: "Work"},
		{ID: "5", FolderID: "Learning"},
	}

	folders := DeriveFolders(links)

	require.Len(t, folders, 3)
	assert.Equal(t, "Work", folders[0].ID)
	assert.Equal(t, "Personal", folders[1].ID)
	assert.Equal(t, "Learning", folders[2].ID)
	for _, f := range folders {
		assert.Equal(t, f.ID, f.Name)
		assert.Equal(t, ColorFor(f.ID), f.Color)
		assert.True(t, f.IsExpanded)
	}
	assert.Empty(t, DeriveFolders(nil))
}

func TestDeriveTags(t *testing.T) {
	links := []domain.Link{
		{ID: "1", Tags: []string{"dev", "tools"}},
		{ID: "2", Tags: nil},
		{ID: "3", Tags: []string{"music", "dev"}},
	}

	tags := DeriveTags(links)

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
		assert.Equal(t, "tag-"+tag.Name, tag.ID)
	}
	assert.Equal(t, []string{"dev", "tools", "music"}, names)
}

func TestColorForIsDeterministic(t *testing.T) {
	assert.Equal(t, ColorFor("development"), ColorFor("development"))
	assert.Contains(t, palette, ColorFor(""))
	assert.Contains(t, palette, ColorFor("a very long folder name that overflows the hash"))
}
