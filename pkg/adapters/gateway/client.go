// Package gateway is the page's client for the CRUD endpoint.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient talks to the endpoint at baseURL, e.g.
// http://localhost:8080/api/mylinks.php. A nil httpClient uses
// http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

func (c *Client) actionURL(action string, params url.Values) string {
	q := url.Values{"action": {action}}
	for k, v := range params {
		q[k] = v
	}
	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	return c.baseURL + sep + q.Encode()
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) GetLinks(ctx context.Context) ([]domain.APILink, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.actionURL("get", nil), nil)
	if err != nil {
		return nil, err
	}
	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, remoteError(status, body)
	}

	// An object instead of an array is the endpoint reporting a failure.
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		return nil, remoteError(status, trimmed)
	}

	var links []domain.APILink
	if err := json.Unmarshal(body, &links); err != nil {
		return nil, fmt.Errorf("decoding links: %w", err)
	}
	if links == nil {
		links = []domain.APILink{}
	}
	return links, nil
}

func (c *Client) AddLink(ctx context.Context, data domain.APILinkData) (*domain.APIResponse, error) {
	return c.post(ctx, "", data)
}

func (c *Client) UpdateLink(ctx context.Context, id string, data domain.APILinkData) (*domain.APIResponse, error) {
	if id == "" {
		return nil, fmt.Errorf("update requires an id")
	}
	return c.post(ctx, id, data)
}

func (c *Client) post(ctx context.Context, id string, data domain.APILinkData) (*domain.APIResponse, error) {
	form := url.Values{}
	if id != "" {
		form.Set("id", id)
	}
	form.Set("link", data.Link)
	form.Set("title", data.Title)
	form.Set("description", data.Description)
	form.Set("folder", data.Folder)
	form.Set("tags", data.Tags)
	form.Set("img", data.Img)
	if data.IsFav {
		form.Set("isfav", "1")
	} else {
		form.Set("isfav", "0")
	}
	form.Set("clicks", strconv.FormatInt(data.Clicks, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.actionURL("post", nil), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.doAction(req)
}

func (c *Client) DeleteLink(ctx context.Context, id string) (*domain.APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.actionURL("delete", url.Values{"id": {id}}), nil)
	if err != nil {
		return nil, err
	}
	return c.doAction(req)
}

func (c *Client) IncrementClick(ctx context.Context, id string) (*domain.APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.actionURL("increment_click", url.Values{"id": {id}}), nil)
	if err != nil {
		return nil, err
	}
	return c.doAction(req)
}

func (c *Client) doAction(req *http.Request) (*domain.APIResponse, error) {
	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, remoteError(status, body)
	}

	var resp domain.APIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if resp.Status != domain.StatusSuccess {
		return nil, &domain.RemoteError{StatusCode: status, Message: resp.Message}
	}
	return &resp, nil
}

// remoteError keeps the endpoint's message when the body carries one.
func remoteError(status int, body []byte) error {
	var resp domain.APIResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Message != "" {
		return &domain.RemoteError{StatusCode: status, Message: resp.Message}
	}
	return &domain.RemoteError{StatusCode: status}
}

// Ensure interface compliance
var _ ports.LinkGateway = (*Client)(nil)
