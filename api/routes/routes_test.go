package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/raffle-backend/internal/config"
	"github.com/ArowuTest/raffle-backend/internal/handlers"
	"github.com/ArowuTest/raffle-backend/internal/ledger"
	"github.com/ArowuTest/raffle-backend/internal/locker"
	"github.com/ArowuTest/raffle-backend/internal/repositories/memory"
	"github.com/ArowuTest/raffle-backend/internal/services"
	"github.com/ArowuTest/raffle-backend/pkg/jwt"
	"github.com/ArowuTest/raffle-backend/pkg/notifier"
	"github.com/ArowuTest/raffle-backend/pkg/vrf"
)

const testTag = "0101010101010101010101010101010101010101010101010101010101010101"

type testServer struct {
	t      *testing.T
	router *gin.Engine
	now    time.Time
}

func newTestServer(t *testing.T, faucet bool) *testServer {
	gin.SetMode(gin.TestMode)
	s := &testServer{t: t, now: time.Unix(1500, 0)}
	clock := func() time.Time { return s.now }

	cfg := &config.Config{
		Server:   config.ServerConfig{AllowedHosts: []string{"localhost"}},
		Ledger:   config.LedgerConfig{EnableFaucet: faucet},
		Currency: config.CurrencyConfig{Code: "USD", Decimals: 2},
	}

	store := memory.NewStore()
	lotteries := memory.NewLotteryRepository(store)
	entries := memory.NewEntryRepository(store)
	l := ledger.New(store, memory.NewAccountRepository(store), memory.NewAssetRepository(store))
	tokens := jwt.NewTokenService("test-secret", time.Hour)
	oracle := vrf.NewClient("", "", true).WithMockFulfillment("seed", 0)
	events := &notifier.MockNotifier{}

	escrow := services.NewEscrowService(store, lotteries, l)
	lotteryService := services.NewLotteryService(store, lotteries, entries, escrow, services.NewRandomnessService(oracle), events, clock)
	ticketService := services.NewTicketService(store, lotteries, entries, l, locker.NewLocalLocker(), events, clock)
	authService := services.NewAuthService(memory.NewUserRepository(store), tokens)

	currency := handlers.Currency{Code: cfg.Currency.Code, Decimals: cfg.Currency.Decimals}
	s.router = SetupRouter(cfg, HandlerDependencies{
		AuthHandler:    handlers.NewAuthHandler(authService),
		LotteryHandler: handlers.NewLotteryHandler(lotteryService, ticketService, currency),
		LedgerHandler:  handlers.NewLedgerHandler(l, authService, lotteryService, currency),
	}, tokens)
	return s
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func (s *testServer) register(email string) (token, identity string) {
	s.t.Helper()
	w, out := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": email, "password": "password1"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return out["token"].(string), out["identity"].(string)
}

func TestLotteryFlowOverHTTP(t *testing.T) {
	s := newTestServer(t, true)

	creator, _ := s.register("creator@example.com")
	alice, aliceID := s.register("alice@example.com")
	bob, bobID := s.register("bob@example.com")

	w, _ := s.do(http.MethodPost, "/api/v1/ledger/assets", creator, map[string]string{"asset_id": "nft-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	for _, token := range []string{alice, bob} {
		w, _ = s.do(http.MethodPost, "/api/v1/ledger/deposit", token, map[string]uint64{"amount": 1000})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w, created := s.do(http.MethodPost, "/api/v1/lotteries", creator, map[string]any{
		"ticket_price":    150,
		"start_time":      1000,
		"end_time":        2000,
		"correlation_tag": testTag,
		"prize_reference": "nft-1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "1.50 USD", created["ticketPriceDisplay"])
	assert.Equal(t, "ACTIVE", created["status"])
	id := created["id"].(string)

	w, _ = s.do(http.MethodPost, "/api/v1/lotteries", creator, map[string]any{
		"end_time": 2000, "correlation_tag": testTag, "prize_reference": "nft-1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/lotteries/"+id+"/tickets", alice, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w, _ = s.do(http.MethodPost, "/api/v1/lotteries/"+id+"/tickets", bob, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, out := s.do(http.MethodPost, "/api/v1/lotteries/"+id+"/randomness", bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AccessDenied", out["code"])

	w, out = s.do(http.MethodPost, "/api/v1/lotteries/"+id+"/randomness", creator, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "LotteryStillActive", out["code"])

	s.now = time.Unix(2001, 0)
	w, out = s.do(http.MethodPost, "/api/v1/lotteries/"+id+"/tickets", alice, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "LotteryExpired", out["code"])

	w, _ = s.do(http.MethodPost, "/api/v1/lotteries/"+id+"/randomness", creator, nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	w, winning := s.do(http.MethodGet, "/api/v1/lotteries/"+id+"/winning-entry", alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	entry := winning["entry"].(map[string]any)
	winnerID := entry["owner"].(string)
	winnerToken, loserToken := alice, bob
	if winnerID == bobID {
		winnerToken, loserToken = bob, alice
	} else {
		require.Equal(t, aliceID, winnerID)
	}

	w, entries := s.do(http.MethodGet, "/api/v1/lotteries/"+id+"/entries", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var losingEntry string
	for _, e := range entries["entries"].([]any) {
		if e.(map[string]any)["id"] != entry["id"] {
			losingEntry = e.(map[string]any)["id"].(string)
		}
	}
	require.NotEmpty(t, losingEntry)

	w, out = s.do(http.MethodPost, "/api/v1/lotteries/"+id+"/winner", loserToken, map[string]string{"entry_id": losingEntry})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "InvalidWinningTicket", out["code"])

	w, out = s.do(http.MethodPost, "/api/v1/lotteries/"+id+"/winner", loserToken, map[string]string{"entry_id": entry["id"].(string)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, winnerID, out["winner"])
	assert.Equal(t, "COMPLETED", out["status"])

	w, out = s.do(http.MethodPost, "/api/v1/lotteries/"+id+"/reward", loserToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AccessDenied", out["code"])

	w, _ = s.do(http.MethodPost, "/api/v1/lotteries/"+id+"/reward", winnerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, account := s.do(http.MethodGet, "/api/v1/accounts/me", winnerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"nft-1"}, account["assets"])
	assert.Equal(t, "8.50 USD", account["balanceDisplay"])
}

func TestAuthAndValidationErrors(t *testing.T) {
	s := newTestServer(t, false)

	w, _ := s.do(http.MethodGet, "/api/v1/lotteries", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	token, _ := s.register("carol@example.com")

	w, _ = s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "carol@example.com", "password": "password1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "carol@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/ledger/deposit", token, map[string]uint64{"amount": 10})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/lotteries", token, map[string]any{
		"end_time": 2000, "correlation_tag": "zz", "prize_reference": "nft-1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out := s.do(http.MethodPost, "/api/v1/lotteries", token, map[string]any{
		"start_time": 3000, "end_time": 2000, "correlation_tag": testTag, "prize_reference": "nft-1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidSchedule", out["code"])

	w, out = s.do(http.MethodGet, "/api/v1/lotteries/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "LotteryNotFound", out["code"])

	w, _ = s.do(http.MethodGet, "/api/v1/lotteries?status=bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out = s.do(http.MethodPost, "/api/v1/lotteries", token, map[string]any{
		"end_time": 2000, "correlation_tag": testTag, "prize_reference": "nft-unknown",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "AssetNotHeld", out["code"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, false)
	w, _ := s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOpenAccount(t *testing.T) {
	s := newTestServer(t, false)
	dave, daveID := s.register("dave@example.com")
	erin, erinID := s.register("erin@example.com")

	w, out := s.do(http.MethodPost, "/api/v1/accounts", dave, map[string]string{"label": "vault"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, daveID, out["controller"])
	daveVault := out["account"].(string)

	w, out = s.do(http.MethodPost, "/api/v1/accounts", dave, map[string]string{"label": "vault"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, daveVault, out["account"])

	// Erin naming Dave's identity or vault as a label gets accounts of her own
	for _, label := range []string{"vault", daveVault, daveID} {
		w, out = s.do(http.MethodPost, "/api/v1/accounts", erin, map[string]string{"label": label})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, erinID, out["controller"])
		assert.NotEqual(t, daveVault, out["account"])
		assert.NotEqual(t, daveID, out["account"])
	}

	w, _ = s.do(http.MethodPost, "/api/v1/accounts", erin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateLotteryRanges(t *testing.T) {
	s := newTestServer(t, true)
	creator, _ := s.register("frank@example.com")
	w, _ := s.do(http.MethodPost, "/api/v1/ledger/assets", creator, map[string]string{"asset_id": "nft-9"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, out := s.do(http.MethodPost, "/api/v1/lotteries", creator, map[string]any{
		"ticket_price": uint64(18446744073709551615), "end_time": 2000, "correlation_tag": testTag, "prize_reference": "nft-9",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidRequest", out["code"])

	// A zero end time is accepted; the lottery is simply already over
	w, out = s.do(http.MethodPost, "/api/v1/lotteries", creator, map[string]any{
		"correlation_tag": testTag, "prize_reference": "nft-9",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, float64(0), out["endTime"])
}
