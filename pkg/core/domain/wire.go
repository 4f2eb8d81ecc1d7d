package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// WireString decodes a JSON string, number, bool or null into a string.
// The backing store emits every column as a string but not every backend
// is that consistent.
type WireString string

func (s *WireString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = WireString(v)
	default:
		*s = WireString(data)
	}
	return nil
}

// APILink is a flat row as returned by the CRUD endpoint.
type APILink struct {
	ID          WireString `json:"id"`
	Link        WireString `json:"link"`
	Title       WireString `json:"title"`
	Description WireString `json:"description"`
	Folder      WireString `json:"folder"`
	Tags        WireString `json:"tags"`
	Img         WireString `json:"img"`
	IsFav       WireString `json:"isfav"`
	CreatedTime WireString `json:"created_time"`
	Clicks      WireString `json:"clicks"`
}

// APILinkData is the form payload for inserts and full-row updates.
type APILinkData struct {
	Link        string
	Title       string
	Description string
	Folder      string
	Tags        string
	Img         string
	IsFav       bool
	Clicks      int64
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse is the minimum response shape of every mutating action.
type APIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	ID       *int64 `json:"id,omitempty"`
	NewCount *int64 `json:"new_count,omitempty"`
}

// LinkRow is the backend's stored representation of a link.
type LinkRow struct {
	ID          int64     `json:"id"`
	Link        string    `json:"link"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Folder      string    `json:"folder"`
	Tags        string    `json:"tags"`
	Img         string    `json:"img"`
	IsFav       bool      `json:"isfav"`
	Clicks      int64     `json:"clicks"`
	CreatedTime time.Time `json:"created_time"`
}

// WireTimeLayout is the DATETIME layout the backing store emits.
const WireTimeLayout = "2006-01-02 15:04:05"

// ToAPILink renders the row the way the endpoint serializes it: all strings.
func (r LinkRow) ToAPILink() APILink {
	fav := "0"
	if r.IsFav {
		fav = "1"
	}
	return APILink{
		ID:          WireString(strconv.FormatInt(r.ID, 10)),
		Link:        WireString(r.Link),
		Title:       WireString(r.Title),
		Description: WireString(r.Description),
		Folder:      WireString(r.Folder),
		Tags:        WireString(r.Tags),
		Img:         WireString(r.Img),
		IsFav:       WireString(fav),
		CreatedTime: WireString(r.CreatedTime.UTC().Format(WireTimeLayout)),
		Clicks:      WireString(strconv.FormatInt(r.Clicks, 10)),
	}
}
