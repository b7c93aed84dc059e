package vrf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/raffle-backend/internal/models"
)

var testTag = models.CorrelationTag{0xaa, 0xbb}

func TestSubmitRequest(t *testing.T) {
	var got requestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/requests", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if got.Seed == strings.Repeat("00", 32) {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret", false)
	require.NoError(t, c.SubmitRequest(context.Background(), testTag))
	assert.Equal(t, testTag.String(), got.Seed)

	err := c.SubmitRequest(context.Background(), models.CorrelationTag{})
	assert.ErrorIs(t, err, ErrRequestExists)
}

func TestReadFulfilled(t *testing.T) {
	value := models.Randomness{55}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := strings.TrimPrefix(r.URL.Path, "/v1/requests/")
		switch tag {
		case testTag.String():
			_ = json.NewEncoder(w).Encode(RequestStatus{Seed: tag, Status: statusFulfilled, Randomness: value.String()})
		case models.CorrelationTag{1}.String():
			_ = json.NewEncoder(w).Encode(RequestStatus{Seed: tag, Status: statusPending})
		case models.CorrelationTag{2}.String():
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, "", false)
	ctx := context.Background()

	got, err := c.ReadFulfilled(ctx, testTag)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, value, *got)

	pending, err := c.ReadFulfilled(ctx, models.CorrelationTag{1})
	require.NoError(t, err)
	assert.Nil(t, pending)

	missing, err := c.ReadFulfilled(ctx, models.CorrelationTag{3})
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = c.ReadFulfilled(ctx, models.CorrelationTag{2})
	assert.Error(t, err)
}

func TestMockOracle(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewClient("", "", true).WithMockFulfillment("seed", time.Minute)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	unrequested, err := c.ReadFulfilled(ctx, testTag)
	require.NoError(t, err)
	assert.Nil(t, unrequested)

	require.NoError(t, c.SubmitRequest(ctx, testTag))
	assert.ErrorIs(t, c.SubmitRequest(ctx, testTag), ErrRequestExists)

	pending, err := c.ReadFulfilled(ctx, testTag)
	require.NoError(t, err)
	assert.Nil(t, pending)

	now = now.Add(time.Minute)
	first, err := c.ReadFulfilled(ctx, testTag)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := c.ReadFulfilled(ctx, testTag)
	require.NoError(t, err)
	assert.Equal(t, *first, *second)
}
