package main

import (
	"bytes"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/raffle-backend/pkg/draw"
)

// seedHex returns a 64 byte value whose first eight bytes encode seed
func seedHex(seed byte) string {
	value := make([]byte, 64)
	value[0] = seed
	return hex.EncodeToString(value)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVerifyPrintsWinningEntry(t *testing.T) {
	out, err := execute(t, "--randomness", seedHex(55), "--tickets-sold", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "winning entry: 1 of 3")
}

func TestVerifyClaim(t *testing.T) {
	out, err := execute(t, "--randomness", seedHex(55), "--tickets-sold", "3", "--claimed", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "claim 1 verified")

	_, err = execute(t, "--randomness", seedHex(55), "--tickets-sold", "3", "--claimed", "0")
	assert.ErrorIs(t, err, draw.ErrMismatch)
}

func TestVerifyRejectsBadInput(t *testing.T) {
	_, err := execute(t, "--randomness", seedHex(1), "--tickets-sold", "0")
	assert.ErrorIs(t, err, draw.ErrNoTickets)

	_, err = execute(t, "--randomness", "abcd", "--tickets-sold", "3")
	assert.Error(t, err)

	_, err = execute(t, "--tickets-sold", "3")
	assert.Error(t, err)
}

func TestVerifyReadsFromOracle(t *testing.T) {
	tag := strings.Repeat("ab", 32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/requests/"+tag, r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"fulfilled","randomness":"` + seedHex(7) + `"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "--tag", tag, "--oracle-url", srv.URL, "--api-key", "secret", "--tickets-sold", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "winning entry: 3 of 4")
}

func TestVerifyPendingOracleValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := execute(t, "--tag", strings.Repeat("01", 32), "--oracle-url", srv.URL, "--tickets-sold", "4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not fulfilled")
}
