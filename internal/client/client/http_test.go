package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts0 = time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewHTTPClient(srv.URL, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewHTTPClient_RejectsBadAddress(t *testing.T) {
	_, err := NewHTTPClient("127.0.0.1:8080", time.Second)
	require.Error(t, err)

	_, err = NewHTTPClient("ftp://host", time.Second)
	require.Error(t, err)
}

func TestCreate_SendsWireFieldsAndDecodesServerID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/notes", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "u1", body["user_id"])
		assert.Equal(t, "hello", body["title"])
		assert.Equal(t, "world", body["content"])
		assert.NotContains(t, body, "archived")

		writeJSON(w, http.StatusCreated, map[string]any{
			"id": "srv-1", "user_id": "u1", "title": "hello", "content": "world",
			"created_at": ts0, "modified_at": ts0,
		})
	})

	n, err := c.Create(context.Background(), CreateInput{OwnerID: "u1", Title: "hello", Body: "world", CreatedAt: ts0, LastModified: ts0})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", n.ID)
	assert.Equal(t, "world", n.Body)
	assert.True(t, n.LastModified.Equal(ts0))
}

func TestUpdate_PartialBodyAndPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/api/notes/n1", r.URL.Path)
		require.Equal(t, "u1", r.URL.Query().Get("user_id"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "new title", body["title"])
		assert.NotContains(t, body, "content")

		writeJSON(w, http.StatusOK, map[string]any{"id": "n1", "user_id": "u1", "title": "new title", "modified_at": ts0})
	})

	title := "new title"
	n, err := c.Update(context.Background(), "n1", "u1", UpdateInput{Title: &title, LastModified: ts0})
	require.NoError(t, err)
	assert.Equal(t, "new title", n.Title)
}

func TestUpdate_ConflictIsStructured(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "version conflict"})
	})

	_, err := c.Update(context.Background(), "n1", "u1", UpdateInput{LastModified: ts0})
	require.ErrorIs(t, err, ErrConflict)
	require.False(t, IsRetryable(err))

	re, ok := AsRemoteError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, re.StatusCode)
	assert.Equal(t, "version conflict", re.Message)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
		{http.StatusBadRequest, ErrRejected},
		{http.StatusForbidden, ErrRejected},
		{http.StatusTooManyRequests, ErrUnavailable},
		{http.StatusInternalServerError, ErrUnavailable},
		{http.StatusServiceUnavailable, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, "plain text")
			})
			err := c.Delete(context.Background(), "n1", "u1")
			require.ErrorIs(t, err, tt.want)
			require.Contains(t, err.Error(), "plain text")
		})
	}
}

func TestDelete_NoContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.Delete(context.Background(), "n1", "u1"))
}

func TestListAll_DecodesNotes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/notes", r.URL.Path)
		require.Equal(t, "u1", r.URL.Query().Get("user_id"))
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": "a", "user_id": "u1", "title": "A", "modified_at": ts0},
			{"id": "b", "user_id": "u1", "title": "B", "modified_at": ts0},
		})
	})

	got, err := c.ListAll(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[1].Title)
}

func TestGet_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	_, err := c.Get(context.Background(), "missing", "u1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransportFailure_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(url, time.Second)
	require.NoError(t, err)

	err = c.Ping(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	require.True(t, IsRetryable(err))

	_, isRemote := AsRemoteError(err)
	require.False(t, isRemote)
}

func TestDecodeError_IsNotRetryable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "{not json")
	})
	_, err := c.Get(context.Background(), "n1", "u1")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrUnavailable))
}
