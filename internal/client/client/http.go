package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
)

// noteDTO is the wire representation of a note. Lifecycle flags are not part
// of it.
type noteDTO struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

func (d noteDTO) toModel() models.Note {
	return models.Note{
		ID:           d.ID,
		OwnerID:      d.UserID,
		Title:        d.Title,
		Body:         d.Content,
		CreatedAt:    d.CreatedAt.UTC(),
		LastModified: d.ModifiedAt.UTC(),
	}
}

type createRequest struct {
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

type updateRequest struct {
	Title      *string   `json:"title,omitempty"`
	Content    *string   `json:"content,omitempty"`
	ModifiedAt time.Time `json:"modified_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HTTPClient talks to the notes REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a client for the server at baseURL
// (e.g. "http://127.0.0.1:8080"). Each request is bounded by timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server address %q: scheme must be http or https", baseURL)
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, "/healthz", nil, nil)
}

func (c *HTTPClient) Create(ctx context.Context, in CreateInput) (*models.Note, error) {
	req := createRequest{
		UserID:     in.OwnerID,
		Title:      in.Title,
		Content:    in.Body,
		CreatedAt:  in.CreatedAt,
		ModifiedAt: in.LastModified,
	}
	var out noteDTO
	if err := c.do(ctx, "create note", http.MethodPost, "/api/notes", req, &out); err != nil {
		return nil, err
	}
	n := out.toModel()
	return &n, nil
}

func (c *HTTPClient) Update(ctx context.Context, id, ownerID string, in UpdateInput) (*models.Note, error) {
	req := updateRequest{Title: in.Title, Content: in.Body, ModifiedAt: in.LastModified}
	var out noteDTO
	if err := c.do(ctx, "update note", http.MethodPatch, notePath(id, ownerID), req, &out); err != nil {
		return nil, err
	}
	n := out.toModel()
	return &n, nil
}

func (c *HTTPClient) Delete(ctx context.Context, id, ownerID string) error {
	return c.do(ctx, "delete note", http.MethodDelete, notePath(id, ownerID), nil, nil)
}

func (c *HTTPClient) Get(ctx context.Context, id, ownerID string) (*models.Note, error) {
	var out noteDTO
	if err := c.do(ctx, "get note", http.MethodGet, notePath(id, ownerID), nil, &out); err != nil {
		return nil, err
	}
	n := out.toModel()
	return &n, nil
}

func (c *HTTPClient) ListAll(ctx context.Context, ownerID string) ([]models.Note, error) {
	var out []noteDTO
	path := "/api/notes?" + url.Values{"user_id": {ownerID}}.Encode()
	if err := c.do(ctx, "list notes", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	result := make([]models.Note, 0, len(out))
	for _, d := range out {
		result = append(result, d.toModel())
	}
	return result, nil
}

func notePath(id, ownerID string) string {
	return "/api/notes/" + url.PathEscape(id) + "?" + url.Values{"user_id": {ownerID}}.Encode()
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
		return nil
	}

	return mapStatus(op, resp)
}

func mapStatus(op string, resp *http.Response) error {
	var payload errorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Error == "" {
		payload.Error = strings.TrimSpace(string(raw))
	}

	e := &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: payload.Error}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		e.Kind = ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		e.Kind = ErrConflict
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode >= 500:
		e.Kind = ErrUnavailable
	default:
		e.Kind = ErrRejected
	}
	return e
}

// AsRemoteError extracts the *RemoteError from err, if any.
func AsRemoteError(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
