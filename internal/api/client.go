package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CredentialSource is the slice of the credential gateway the client needs:
// read the active key, and invalidate it when the backend rejects it.
type CredentialSource interface {
	Get() (string, bool)
	Clear(ctx context.Context) error
}

type Client struct {
	BaseURL string
	Creds   CredentialSource
	Client  *http.Client
}

func NewClient(baseURL string, creds CredentialSource, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Creds:   creds,
		Client:  &http.Client{Timeout: timeout},
	}
}

type AskOptions struct {
	GenerateVariants bool
	NumVariants      int
}

func DefaultAskOptions() AskOptions {
	return AskOptions{GenerateVariants: true, NumVariants: 3}
}

type askRequest struct {
	Question         string `json:"question"`
	GenerateVariants bool   `json:"generate_variants"`
	NumVariants      int    `json:"num_variants"`
}

// Health probes connectivity. Callers only care about success or the error
// classification; the body is returned for completeness.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AskQuestion(ctx context.Context, question string, opts AskOptions) (*QuestionResponse, error) {
	if opts.NumVariants <= 0 {
		opts.NumVariants = 3
	}
	body := askRequest{
		Question:         question,
		GenerateVariants: opts.GenerateVariants,
		NumVariants:      opts.NumVariants,
	}
	var out QuestionResponse
	if err := c.do(ctx, http.MethodPost, "/faq/ask", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchFAQs is the GET variant of AskQuestion; the backend returns the
// same response shape.
func (c *Client) SearchFAQs(ctx context.Context, query string, generateVariants bool, numVariants int) (*QuestionResponse, error) {
	if numVariants <= 0 {
		numVariants = 3
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("generate_variants", strconv.FormatBool(generateVariants))
	q.Set("num_variants", strconv.Itoa(numVariants))

	var out QuestionResponse
	if err := c.do(ctx, http.MethodGet, "/faq/search", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 30 * time.Second}
	}

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", ErrValidation, err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Creds != nil {
		if key, present := c.Creds.Get(); present {
			req.Header.Set("X-API-Key", key)
		}
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := errorDetail(resp)
		if resp.StatusCode == http.StatusUnauthorized && c.Creds != nil {
			// A rejected key must never be retried silently; drop it before
			// the error reaches the caller.
			if clearErr := c.Creds.Clear(ctx); clearErr != nil {
				log.Printf("[api] clear credential after 401 failed: %v", clearErr)
			}
		}
		return classifyStatus(resp.StatusCode, detail)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrServer, err)
	}
	return nil
}
