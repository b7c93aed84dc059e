package handlers

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"

	"github.com/ArowuTest/raffle-backend/internal/ledger"
	"github.com/ArowuTest/raffle-backend/internal/locker"
	"github.com/ArowuTest/raffle-backend/internal/middleware"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
	"github.com/ArowuTest/raffle-backend/internal/services"
)

// Currency renders amounts held in the smallest unit
type Currency struct {
	Code     string
	Decimals int32
}

// Format renders amount as a fixed point string, e.g. 150 -> "1.50 USD"
func (c Currency) Format(amount uint64) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -c.Decimals)
	s := d.StringFixed(c.Decimals)
	if c.Code == "" {
		return s
	}
	return s + " " + c.Code
}

// respondError maps service and ledger failures onto HTTP statuses
func respondError(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		slog.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal server error", "code": code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func classify(err error) (int, string) {
	var le *services.LotteryError
	if errors.As(err, &le) {
		switch le {
		case services.ErrAccessDenied:
			return http.StatusForbidden, le.Code
		case services.ErrLotteryNotFound, services.ErrEntryNotFound:
			return http.StatusNotFound, le.Code
		case services.ErrInvalidSchedule, services.ErrInvalidRequest:
			return http.StatusBadRequest, le.Code
		default:
			return http.StatusConflict, le.Code
		}
	}

	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "InsufficientFunds"
	case errors.Is(err, ledger.ErrAssetNotHeld):
		return http.StatusConflict, "AssetNotHeld"
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusForbidden, "AccessDenied"
	case errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest, "InvalidAmount"
	case errors.Is(err, ledger.ErrInvalidLabel):
		return http.StatusBadRequest, "InvalidLabel"
	case errors.Is(err, services.ErrSaleConflict), errors.Is(err, repositories.ErrConflict):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, repositories.ErrDuplicate):
		return http.StatusConflict, "Duplicate"
	case errors.Is(err, locker.ErrLockTimeout):
		return http.StatusServiceUnavailable, "Busy"
	case errors.Is(err, services.ErrEmailTaken):
		return http.StatusConflict, "EmailTaken"
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, "InvalidCredentials"
	case errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound, "UserNotFound"
	default:
		return http.StatusInternalServerError, "Internal"
	}
}

// callerIdentity reads the authenticated identity or aborts with 401
func callerIdentity(c *gin.Context) (string, bool) {
	identity, ok := middleware.Identity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
	return identity, ok
}

// pagination reads page and limit query parameters
func pagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		limit = 20
	}
	return page, limit
}
