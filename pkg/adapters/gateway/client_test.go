package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
)

func TestGetLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "get", r.URL.Query().Get("action"))
		w.Write([]byte(`[{"id":"1","link":"https://go.dev","title":"Go","tags":"a, b","isfav":"1","clicks":7,"img":null}]`))
	}))
	defer srv.Close()

	links, err := NewClient(srv.URL+"/api/mylinks.php", srv.Client()).GetLinks(context.Background())
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, domain.WireString("1"), links[0].ID)
	assert.Equal(t, domain.WireString("7"), links[0].Clicks)
	assert.Equal(t, domain.WireString(""), links[0].Img)
}

func TestGetLinksErrorObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"Database connection failed"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.Client()).GetLinks(context.Background())
	var remote *domain.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "Database connection failed", remote.Message)
}

func TestGetLinksNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.Client()).GetLinks(context.Background())
	var remote *domain.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusBadGateway, remote.StatusCode)
}

func TestAddAndUpdateSendForm(t *testing.T) {
	var forms []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "post", r.URL.Query().Get("action"))
		assert.NoError(t, r.ParseForm())
		got := map[string]string{}
		for k := range r.PostForm {
			got[k] = r.PostForm.Get(k)
		}
		forms = append(forms, got)
		w.Write([]byte(`{"status":"success","message":"Inserted","id":42}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	data := domain.APILinkData{Link: "https://x.y", Title: "X", Tags: "a, b", IsFav: true, Clicks: 3}

	resp, err := c.AddLink(context.Background(), data)
	require.NoError(t, err)
	require.NotNil(t, resp.ID)
	assert.Equal(t, int64(42), *resp.ID)

	_, err = c.UpdateLink(context.Background(), "42", data)
	require.NoError(t, err)

	require.Len(t, forms, 2)
	_, hasID := forms[0]["id"]
	assert.False(t, hasID)
	assert.Equal(t, "1", forms[0]["isfav"])
	assert.Equal(t, "a, b", forms[0]["tags"])
	assert.Equal(t, "42", forms[1]["id"])
	assert.Equal(t, "3", forms[1]["clicks"])
}

func TestDeleteAndIncrement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "9", q.Get("id"))
		switch q.Get("action") {
		case "delete":
			w.Write([]byte(`{"status":"success","message":"Deleted"}`))
		case "increment_click":
			w.Write([]byte(`{"status":"success","message":"Click count incremented","new_count":5}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	_, err := c.DeleteLink(context.Background(), "9")
	require.NoError(t, err)

	resp, err := c.IncrementClick(context.Background(), "9")
	require.NoError(t, err)
	require.NotNil(t, resp.NewCount)
	assert.Equal(t, int64(5), *resp.NewCount)
}

func TestStatusErrorBecomesRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"error","message":"Invalid ID"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.Client()).DeleteLink(context.Background(), "0")
	var remote *domain.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "Invalid ID", remote.Message)
	assert.Equal(t, http.StatusBadRequest, remote.StatusCode)
}

func TestAuthTransportAddsBearerToken(t *testing.T) {
	const secret = "s3cret"
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NewHTTPClient(secret, srv.Client().Transport))
	links, err := c.GetLinks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, links)

	require.True(t, strings.HasPrefix(header, "Bearer "))
	token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	assert.True(t, token.Valid)
}

func TestAuthTransportWithoutSecret(t *testing.T) {
	base := http.DefaultTransport
	assert.Equal(t, base, AuthTransport("", base))
}
