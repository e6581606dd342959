// Package assist is the HTTP client for the remote assistant: clip
// submission, speech synthesis, visual context upload, and history reset.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"
)

// ResponseDescriptor is the assistant's answer to one submitted clip.
type ResponseDescriptor struct {
	Text string `json:"response"`
}

// SynthesisResult is a normalized synthesized-speech payload. Buffered is set
// when the server declared a content length; otherwise the body is a
// progressively delivered stream. Callers own closing Body either way.
type SynthesisResult struct {
	Body     io.ReadCloser
	Length   int64
	Buffered bool
}

// Client talks to the assistant backend. Request lifetimes are governed by
// per-call context deadlines; the transport carries no client-level timeout so
// streamed synthesis bodies can outlive slow turns.
type Client struct {
	logger  *slog.Logger
	baseURL string
	http    *http.Client
}

func NewClient(logger *slog.Logger, baseURL string) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}
	return &Client{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: transport},
	}
}

// SubmitClip sends one finalized recording and returns the assistant's text
// answer for the turn.
func (c *Client) SubmitClip(ctx context.Context, userID string, clip []byte) (ResponseDescriptor, error) {
	body, contentType, err := multipartPayload("audio", "clip.raw", clip, userID)
	if err != nil {
		return ResponseDescriptor{}, err
	}

	resp, err := c.post(ctx, "/audio", contentType, body)
	if err != nil {
		return ResponseDescriptor{}, fmt.Errorf("submit clip: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return ResponseDescriptor{}, fmt.Errorf("submit clip: %w", err)
	}

	var descriptor ResponseDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&descriptor); err != nil {
		return ResponseDescriptor{}, fmt.Errorf("decode clip response: %w", err)
	}
	return descriptor, nil
}

// Synthesize requests spoken audio for text. The result is normalized: a
// declared content length yields a buffered payload, anything else a stream.
func (c *Client) Synthesize(ctx context.Context, userID string, text string) (SynthesisResult, error) {
	payload, err := json.Marshal(map[string]string{"user_id": userID, "text": text})
	if err != nil {
		return SynthesisResult{}, err
	}

	resp, err := c.post(ctx, "/synthesize", "application/json", bytes.NewReader(payload))
	if err != nil {
		return SynthesisResult{}, fmt.Errorf("synthesize: %w", err)
	}

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return SynthesisResult{}, fmt.Errorf("synthesize: %w", err)
	}

	return SynthesisResult{
		Body:     resp.Body,
		Length:   resp.ContentLength,
		Buffered: resp.ContentLength >= 0,
	}, nil
}

// UploadFrame ships one still camera frame. Fire-and-forget for callers:
// failures degrade to status text upstream.
func (c *Client) UploadFrame(ctx context.Context, userID string, frame []byte) error {
	body, contentType, err := multipartPayload("image", "frame.jpg", frame, userID)
	if err != nil {
		return err
	}

	resp, err := c.post(ctx, "/image", contentType, body)
	if err != nil {
		return fmt.Errorf("upload frame: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("upload frame: %w", err)
	}
	return nil
}

// ClearVisualHistory discards the assistant's stored visual context.
func (c *Client) ClearVisualHistory(ctx context.Context, userID string) error {
	return c.postClear(ctx, "/clear-image-history", userID)
}

// ClearConversationHistory discards the assistant's chat history.
func (c *Client) ClearConversationHistory(ctx context.Context, userID string) error {
	return c.postClear(ctx, "/clear-history", userID)
}

// Health probes backend reachability for diagnostics.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (c *Client) postClear(ctx context.Context, path string, userID string) error {
	payload, err := json.Marshal(map[string]string{"user_id": userID})
	if err != nil {
		return err
	}
	resp, err := c.post(ctx, path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.http.Do(req)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	if len(detail) > 0 {
		return fmt.Errorf("assistant returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	return fmt.Errorf("assistant returned %s", resp.Status)
}

// multipartPayload builds a user-tagged multipart body for media uploads.
func multipartPayload(field string, filename string, data []byte, userID string) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("user_id", userID); err != nil {
		return nil, "", err
	}
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &buf, writer.FormDataContentType(), nil
}
