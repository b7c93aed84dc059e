// Package vrf is a client for the verifiable randomness oracle. Requests are
// keyed by a 32 byte correlation tag; once fulfilled the oracle serves a
// 64 byte value for that tag.
package vrf

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"github.com/ArowuTest/raffle-backend/internal/models"
)

// ErrRequestExists is returned when a request for the tag was already made
var ErrRequestExists = errors.New("randomness already requested for this tag")

const (
	statusPending   = "pending"
	statusFulfilled = "fulfilled"
)

// Client represents a randomness oracle client
type Client struct {
	BaseURL string
	APIKey  string
	MockAPI bool

	client *http.Client

	// mock mode state
	mu           sync.Mutex
	mockSeed     []byte
	fulfillDelay time.Duration
	requests     map[models.CorrelationTag]time.Time
	now          func() time.Time
}

// requestBody is sent when submitting a request
type requestBody struct {
	Seed string `json:"seed"`
}

// RequestStatus is the oracle's view of one request
type RequestStatus struct {
	Seed       string `json:"seed"`
	Status     string `json:"status"`
	Randomness string `json:"randomness,omitempty"`
}

// NewClient creates a new oracle client
func NewClient(baseURL, apiKey string, mockAPI bool) *Client {
	return &Client{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		MockAPI:  mockAPI,
		client:   &http.Client{Timeout: 10 * time.Second},
		requests: make(map[models.CorrelationTag]time.Time),
		now:      time.Now,
	}
}

// WithMockFulfillment sets the seed mixed into mock values and how long a
// mock request stays pending
func (c *Client) WithMockFulfillment(seed string, delay time.Duration) *Client {
	c.mockSeed = []byte(seed)
	c.fulfillDelay = delay
	return c
}

// SubmitRequest asks the oracle for randomness bound to tag
func (c *Client) SubmitRequest(ctx context.Context, tag models.CorrelationTag) error {
	if c.MockAPI {
		return c.mockSubmit(tag)
	}

	body, err := json.Marshal(requestBody{Seed: tag.String()})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/requests", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to submit randomness request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		slog.Info("Randomness requested", "tag", tag.String())
		return nil
	case http.StatusConflict:
		return ErrRequestExists
	default:
		return unexpectedStatus(resp)
	}
}

// ReadFulfilled returns the value for tag, or nil while it is not fulfilled
func (c *Client) ReadFulfilled(ctx context.Context, tag models.CorrelationTag) (*models.Randomness, error) {
	if c.MockAPI {
		return c.mockRead(tag), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/requests/"+tag.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build oracle request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to read randomness: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, unexpectedStatus(resp)
	}

	var status RequestStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode oracle response: %w", err)
	}
	if status.Status != statusFulfilled || status.Randomness == "" {
		return nil, nil
	}

	value, err := models.ParseRandomness(status.Randomness)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
}

func unexpectedStatus(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("oracle returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
}

// mockSubmit records the request; the mock never talks to the network
func (c *Client) mockSubmit(tag models.CorrelationTag) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.requests[tag]; exists {
		return ErrRequestExists
	}
	c.requests[tag] = c.now()
	slog.Info("Mock randomness requested", "tag", tag.String())
	return nil
}

// mockRead serves sha512(seed || tag) once the fulfil delay has passed
func (c *Client) mockRead(tag models.CorrelationTag) *models.Randomness {
	c.mu.Lock()
	requested, exists := c.requests[tag]
	c.mu.Unlock()
	if !exists || c.now().Sub(requested) < c.fulfillDelay {
		return nil
	}

	h := sha512.New()
	h.Write(c.mockSeed)
	h.Write(tag[:])
	var value models.Randomness
	copy(value[:], h.Sum(nil))
	return &value
}
