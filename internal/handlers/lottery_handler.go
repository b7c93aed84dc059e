package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/services"
)

// LotteryHandler handles lottery-related HTTP requests
type LotteryHandler struct {
	lotteryService services.LotteryService
	ticketService  services.TicketService
	currency       Currency
}

// NewLotteryHandler creates a new LotteryHandler
func NewLotteryHandler(lotteryService services.LotteryService, ticketService services.TicketService, currency Currency) *LotteryHandler {
	return &LotteryHandler{
		lotteryService: lotteryService,
		ticketService:  ticketService,
		currency:       currency,
	}
}

// CreateLotteryRequest is the body of POST /lotteries
type CreateLotteryRequest struct {
	TicketPrice    uint64 `json:"ticket_price"`
	StartTime      uint64 `json:"start_time"`
	EndTime        uint64 `json:"end_time"`
	CorrelationTag string `json:"correlation_tag" binding:"required"`
	PrizeReference string `json:"prize_reference" binding:"required"`
}

// PickWinnerRequest is the body of POST /lotteries/:id/winner
type PickWinnerRequest struct {
	EntryID string `json:"entry_id" binding:"required"`
}

// RewardWinnerRequest is the body of POST /lotteries/:id/reward
type RewardWinnerRequest struct {
	Destination string `json:"destination"`
}

// LotteryResponse adds display fields to a lottery
type LotteryResponse struct {
	*models.Lottery
	TicketPriceDisplay string `json:"ticketPriceDisplay"`
}

func (h *LotteryHandler) present(l *models.Lottery) LotteryResponse {
	return LotteryResponse{Lottery: l, TicketPriceDisplay: h.currency.Format(l.TicketPrice)}
}

// CreateLottery handles POST /lotteries
func (h *LotteryHandler) CreateLottery(c *gin.Context) {
	creator, ok := callerIdentity(c)
	if !ok {
		return
	}
	var req CreateLotteryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tag, err := models.ParseCorrelationTag(strings.TrimPrefix(req.CorrelationTag, "0x"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lottery, err := h.lotteryService.CreateLottery(c.Request.Context(), creator, services.CreateLotteryParams{
		TicketPrice:    req.TicketPrice,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		CorrelationTag: tag,
		PrizeReference: req.PrizeReference,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.present(lottery))
}

// BuyTicket handles POST /lotteries/:id/tickets
func (h *LotteryHandler) BuyTicket(c *gin.Context) {
	buyer, ok := callerIdentity(c)
	if !ok {
		return
	}
	entry, err := h.ticketService.BuyTicket(c.Request.Context(), buyer, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// RequestRandomness handles POST /lotteries/:id/randomness
func (h *LotteryHandler) RequestRandomness(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}
	if err := h.lotteryService.RequestDraw(c.Request.Context(), caller, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Randomness requested"})
}

// PickWinner handles POST /lotteries/:id/winner
func (h *LotteryHandler) PickWinner(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}
	var req PickWinnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lottery, err := h.lotteryService.ResolveDraw(c.Request.Context(), caller, c.Param("id"), req.EntryID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.present(lottery))
}

// RewardWinner handles POST /lotteries/:id/reward
func (h *LotteryHandler) RewardWinner(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}
	var req RewardWinnerRequest
	// The body is optional; an empty destination means the caller's account.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	lottery, err := h.lotteryService.RewardWinner(c.Request.Context(), caller, c.Param("id"), req.Destination)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Prize released", "lottery": h.present(lottery)})
}

// CancelLottery handles POST /lotteries/:id/cancel
func (h *LotteryHandler) CancelLottery(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}
	lottery, err := h.lotteryService.CancelLottery(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.present(lottery))
}

// GetLottery handles GET /lotteries/:id
func (h *LotteryHandler) GetLottery(c *gin.Context) {
	lottery, err := h.lotteryService.GetLottery(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.present(lottery))
}

// ListLotteries handles GET /lotteries?status=&page=&limit=
func (h *LotteryHandler) ListLotteries(c *gin.Context) {
	status := models.LotteryStatus(strings.ToUpper(c.Query("status")))
	switch status {
	case "", models.LotteryStatusActive, models.LotteryStatusCompleted, models.LotteryStatusCancelled:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status (ACTIVE, COMPLETED or CANCELLED)"})
		return
	}
	page, limit := pagination(c)
	lotteries, err := h.lotteryService.ListLotteries(c.Request.Context(), status, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]LotteryResponse, 0, len(lotteries))
	for _, l := range lotteries {
		out = append(out, h.present(l))
	}
	c.JSON(http.StatusOK, gin.H{"lotteries": out, "page": page, "limit": limit})
}

// ListEntries handles GET /lotteries/:id/entries
func (h *LotteryHandler) ListEntries(c *gin.Context) {
	page, limit := pagination(c)
	entries, err := h.lotteryService.ListEntries(c.Request.Context(), c.Param("id"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "page": page, "limit": limit})
}

// GetEntry handles GET /entries/:id
func (h *LotteryHandler) GetEntry(c *gin.Context) {
	entry, err := h.lotteryService.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// GetWinningEntry handles GET /lotteries/:id/winning-entry
func (h *LotteryHandler) GetWinningEntry(c *gin.Context) {
	winning, err := h.lotteryService.FindWinningEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, winning)
}
