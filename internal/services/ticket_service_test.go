package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/raffle-backend/internal/ledger"
)

func TestBuyTicketWindow(t *testing.T) {
	h := newHarness(t)
	h.fund("alice", 1000)
	lottery := h.createLottery()

	// Sales before the start time are not rejected
	h.at(testStart - 10)
	h.buy("alice", lottery.ID)

	h.at(testEnd)
	h.buy("alice", lottery.ID)

	h.at(testEnd + 1)
	_, err := h.tickets.BuyTicket(h.ctx, "alice", lottery.ID)
	assert.ErrorIs(t, err, ErrLotteryExpired)

	current, err := h.lottery.GetLottery(h.ctx, lottery.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), current.TicketsSold)
	assert.Equal(t, uint64(800), h.balance("alice"))
}

func TestBuyTicketInsufficientFundsLeavesNoTrace(t *testing.T) {
	h := newHarness(t)
	h.fund("alice", testPrice-1)
	lottery := h.createLottery()

	_, err := h.tickets.BuyTicket(h.ctx, "alice", lottery.ID)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	current, err := h.lottery.GetLottery(h.ctx, lottery.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), current.TicketsSold)
	assert.Equal(t, uint64(testPrice-1), h.balance("alice"))

	entries, err := h.lottery.ListEntries(h.ctx, lottery.ID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuyTicketAfterWinnerPicked(t *testing.T) {
	h := newHarness(t)
	h.fund("alice", 1000)
	lottery := h.createLottery()
	entry := h.buy("alice", lottery.ID)

	h.at(testEnd + 1)
	require.NoError(t, h.lottery.RequestDraw(h.ctx, testCreator, lottery.ID))
	h.oracle.fulfill(testTag, seedValue(9))
	_, err := h.lottery.ResolveDraw(h.ctx, "alice", lottery.ID, entry.ID)
	require.NoError(t, err)

	_, err = h.tickets.BuyTicket(h.ctx, "alice", lottery.ID)
	assert.ErrorIs(t, err, ErrLotteryExpired)
}

func TestBuyTicketUnknownLottery(t *testing.T) {
	h := newHarness(t)
	_, err := h.tickets.BuyTicket(h.ctx, "alice", "missing")
	assert.ErrorIs(t, err, ErrLotteryNotFound)
}

func TestBuyFreeTicket(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ledger.MintAsset(h.ctx, testPrize, testCreator))
	lottery, err := h.lottery.CreateLottery(h.ctx, testCreator, CreateLotteryParams{
		StartTime: testStart, EndTime: testEnd, PrizeReference: testPrize,
	})
	require.NoError(t, err)

	entry := h.buy("alice", lottery.ID)
	assert.Equal(t, uint64(0), entry.EntryNumber)
}
