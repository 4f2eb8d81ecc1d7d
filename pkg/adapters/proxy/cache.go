package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

// CacheHeader marks responses answered from a bucket.
const CacheHeader = "X-Linkvault-Cache"

func isOK(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// cacheKey is the request URL without its fragment.
func cacheKey(u *url.URL) string {
	k := *u
	k.Fragment = ""
	k.RawFragment = ""
	return k.String()
}

// store buffers resp, writes it to bucket and returns an equivalent
// response whose body can still be read.
func store(ctx context.Context, cache ports.CacheStorage, bucket, key string, resp *http.Response) (*http.Response, error) {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))

	entry := &domain.CachedResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		StoredAt:   time.Now(),
	}
	return resp, cache.Put(ctx, bucket, key, entry)
}

func fromCache(entry *domain.CachedResponse, req *http.Request) *http.Response {
	header := http.Header(entry.Header).Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(CacheHeader, "HIT")
	header.Set("Content-Length", strconv.Itoa(len(entry.Body)))
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", entry.StatusCode, http.StatusText(entry.StatusCode)),
		StatusCode:    entry.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(entry.Body)),
		ContentLength: int64(len(entry.Body)),
		Request:       req,
	}
}

func synthesize(req *http.Request, status int, contentType string, body []byte) *http.Response {
	header := http.Header{}
	header.Set("Content-Type", contentType)
	header.Set("Content-Length", strconv.Itoa(len(body)))
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

var offlineBody = []byte(`{"error":"Offline","message":"No network connection and no cached data available","offline":true}`)

func offlineResponse(req *http.Request) *http.Response {
	return synthesize(req, http.StatusServiceUnavailable, "application/json", offlineBody)
}

func notAvailable(req *http.Request, text string) *http.Response {
	return synthesize(req, http.StatusNotFound, "text/plain; charset=utf-8", []byte(text))
}
