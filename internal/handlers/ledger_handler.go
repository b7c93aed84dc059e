package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/raffle-backend/internal/services"
)

// LedgerAccess is the part of the ledger exposed over HTTP
type LedgerAccess interface {
	Balance(ctx context.Context, account string) (uint64, error)
	Assets(ctx context.Context, account string) ([]string, error)
	Deposit(ctx context.Context, account string, amount uint64) (uint64, error)
	MintAsset(ctx context.Context, assetID, account string) error
	OpenAccount(ctx context.Context, controller, label string) (string, error)
}

// LedgerHandler serves account views and the development faucet
type LedgerHandler struct {
	ledger         LedgerAccess
	authService    services.AuthService
	lotteryService services.LotteryService
	currency       Currency
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledger LedgerAccess, authService services.AuthService, lotteryService services.LotteryService, currency Currency) *LedgerHandler {
	return &LedgerHandler{
		ledger:         ledger,
		authService:    authService,
		lotteryService: lotteryService,
		currency:       currency,
	}
}

// DepositRequest is the body of POST /ledger/deposit
type DepositRequest struct {
	Amount uint64 `json:"amount" binding:"required,gt=0"`
}

// OpenAccountRequest is the body of POST /accounts
type OpenAccountRequest struct {
	Label string `json:"label" binding:"required"`
}

// MintAssetRequest is the body of POST /ledger/assets
type MintAssetRequest struct {
	AssetID string `json:"asset_id" binding:"required"`
}

// GetAccount handles GET /accounts/me
func (h *LedgerHandler) GetAccount(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var email string
	user, err := h.authService.GetUser(ctx, identity)
	switch {
	case err == nil:
		email = user.Email
	case !errors.Is(err, services.ErrUserNotFound):
		respondError(c, err)
		return
	}

	balance, err := h.ledger.Balance(ctx, identity)
	if err != nil {
		respondError(c, err)
		return
	}
	assets, err := h.ledger.Assets(ctx, identity)
	if err != nil {
		respondError(c, err)
		return
	}
	page, limit := pagination(c)
	entries, err := h.lotteryService.ListEntriesByOwner(ctx, identity, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"identity":       identity,
		"email":          email,
		"balance":        balance,
		"balanceDisplay": h.currency.Format(balance),
		"assets":         assets,
		"entries":        entries,
	})
}

// OpenAccount handles POST /accounts. The caller controls the new account,
// e.g. a separate destination for prizes. The account id is derived from
// the caller and the label.
func (h *LedgerHandler) OpenAccount(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	var req OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	account, err := h.ledger.OpenAccount(c.Request.Context(), identity, req.Label)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": account, "label": req.Label, "controller": identity})
}

// Deposit handles POST /ledger/deposit
func (h *LedgerHandler) Deposit(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	balance, err := h.ledger.Deposit(c.Request.Context(), identity, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance, "balanceDisplay": h.currency.Format(balance)})
}

// MintAsset handles POST /ledger/assets
func (h *LedgerHandler) MintAsset(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	var req MintAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.ledger.MintAsset(c.Request.Context(), req.AssetID, identity); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"assetId": req.AssetID, "account": identity})
}
