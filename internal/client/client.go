// Package client provides an HTTP client for the StudyRot server API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/studyrot/studyrot/internal/models"
	"github.com/studyrot/studyrot/internal/threads"
)

// Client talks to the StudyRot server over its REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the given server base URL.
// If baseURL is empty, uses STUDYROT_SERVER_URL env var or defaults to localhost:8080.
// Timeout can be configured via STUDYROT_CLIENT_TIMEOUT env var (default 10m for
// thread generation, which waits on the LLM).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("STUDYROT_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	timeout := 10 * time.Minute
	if t := os.Getenv("STUDYROT_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// KnowledgeBase is the API representation of a knowledge base.
type KnowledgeBase struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Created     time.Time  `json:"created"`
	Files       []FileInfo `json:"files,omitempty"`
}

// FileInfo is the per-file status projection returned by the server.
type FileInfo struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Status models.FileStatus `json:"status"`
}

// ExtractedText is one completed file's extracted content.
type ExtractedText struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	return c.do(ctx, method, path, body, "application/json", out)
}

// CreateKnowledgeBase creates a new knowledge base.
func (c *Client) CreateKnowledgeBase(ctx context.Context, title, description string) (*KnowledgeBase, error) {
	var kb KnowledgeBase
	input := models.KnowledgeBaseInput{Title: title, Description: description}
	if err := c.doJSON(ctx, http.MethodPost, "/api/knowledge-bases", input, &kb); err != nil {
		return nil, err
	}
	return &kb, nil
}

// ListKnowledgeBases returns all knowledge bases.
func (c *Client) ListKnowledgeBases(ctx context.Context) ([]KnowledgeBase, error) {
	var bases []KnowledgeBase
	if err := c.doJSON(ctx, http.MethodGet, "/api/knowledge-bases", nil, &bases); err != nil {
		return nil, err
	}
	return bases, nil
}

// GetKnowledgeBase fetches one knowledge base including its file statuses.
func (c *Client) GetKnowledgeBase(ctx context.Context, id string) (*KnowledgeBase, error) {
	var kb KnowledgeBase
	if err := c.doJSON(ctx, http.MethodGet, "/api/knowledge-bases/"+id, nil, &kb); err != nil {
		return nil, err
	}
	return &kb, nil
}

// DeleteKnowledgeBase removes a knowledge base and its files.
func (c *Client) DeleteKnowledgeBase(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/knowledge-bases/"+id, nil, nil)
}

// Upload sends a local file to the server for extraction. The server answers
// before extraction finishes; poll GetFile with the returned id.
func (c *Client) Upload(ctx context.Context, kbID, path string) (*FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	var info FileInfo
	if err := c.do(ctx, http.MethodPost, "/api/knowledge-bases/"+kbID+"/files", &buf, mw.FormDataContentType(), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetFile returns the current extraction status of one file.
func (c *Client) GetFile(ctx context.Context, id string) (*FileInfo, error) {
	var info FileInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/files/"+id, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// WaitForFile polls GetFile until the file reaches a terminal status or ctx
// is done. onPoll, if non-nil, is invoked after every poll with the latest
// status.
func (c *Client) WaitForFile(ctx context.Context, id string, interval time.Duration, onPoll func(models.FileStatus)) (*FileInfo, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		info, err := c.GetFile(ctx, id)
		if err != nil {
			return nil, err
		}
		if onPoll != nil {
			onPoll(info.Status)
		}
		if info.Status.Terminal() {
			return info, nil
		}

		select {
		case <-ctx.Done():
			return info, ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetExtractedTexts returns the extracted text of every completed file in a
// knowledge base.
func (c *Client) GetExtractedTexts(ctx context.Context, kbID string) ([]ExtractedText, error) {
	var texts []ExtractedText
	if err := c.doJSON(ctx, http.MethodGet, "/api/knowledge-bases/"+kbID+"/texts", nil, &texts); err != nil {
		return nil, err
	}
	return texts, nil
}

// GenerateThread asks the server to produce a study thread from a knowledge
// base's extracted texts.
func (c *Client) GenerateThread(ctx context.Context, kbID string) ([]threads.Post, error) {
	var resp struct {
		Result []threads.Post `json:"result"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/knowledge-bases/"+kbID+"/threads", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// Stats returns server metrics.
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	var stats map[string]any
	if err := c.doJSON(ctx, http.MethodGet, "/api/stats", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
