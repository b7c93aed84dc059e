package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/raffle-backend/internal/ledger"
	"github.com/ArowuTest/raffle-backend/internal/locker"
	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories/memory"
	"github.com/ArowuTest/raffle-backend/pkg/notifier"
	"github.com/ArowuTest/raffle-backend/pkg/vrf"
)

const (
	testCreator = "creator"
	testPrize   = "nft-1"
	testStart   = 1000
	testEnd     = 2000
	testPrice   = 100
)

var testTag = models.CorrelationTag{0xca, 0xfe}

// fakeOracle fulfils requests only when the test says so
type fakeOracle struct {
	mu        sync.Mutex
	requested map[models.CorrelationTag]bool
	values    map[models.CorrelationTag]models.Randomness
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		requested: make(map[models.CorrelationTag]bool),
		values:    make(map[models.CorrelationTag]models.Randomness),
	}
}

func (o *fakeOracle) SubmitRequest(ctx context.Context, tag models.CorrelationTag) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.requested[tag] {
		return vrf.ErrRequestExists
	}
	o.requested[tag] = true
	return nil
}

func (o *fakeOracle) ReadFulfilled(ctx context.Context, tag models.CorrelationTag) (*models.Randomness, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	value, ok := o.values[tag]
	if !ok {
		return nil, nil
	}
	return &value, nil
}

func (o *fakeOracle) fulfill(tag models.CorrelationTag, value models.Randomness) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.values[tag] = value
}

func (o *fakeOracle) wasRequested(tag models.CorrelationTag) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.requested[tag]
}

// seedValue returns a fulfilled value whose first eight bytes read n
func seedValue(n byte) models.Randomness {
	var value models.Randomness
	value[0] = n
	for i := 8; i < len(value); i++ {
		value[i] = 0xff
	}
	return value
}

type harness struct {
	t        *testing.T
	ctx      context.Context
	now      time.Time
	store    *memory.Store
	ledger   *ledger.Ledger
	oracle   *fakeOracle
	notifier *notifier.MockNotifier
	lottery  *LotteryServiceImpl
	tickets  *TicketServiceImpl
	escrow   *EscrowServiceImpl
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		ctx:      context.Background(),
		now:      time.Unix(1500, 0),
		store:    memory.NewStore(),
		oracle:   newFakeOracle(),
		notifier: &notifier.MockNotifier{},
	}
	lotteries := memory.NewLotteryRepository(h.store)
	entries := memory.NewEntryRepository(h.store)
	h.ledger = ledger.New(h.store, memory.NewAccountRepository(h.store), memory.NewAssetRepository(h.store))

	clock := func() time.Time { return h.now }
	h.escrow = NewEscrowService(h.store, lotteries, h.ledger)
	h.tickets = NewTicketService(h.store, lotteries, entries, h.ledger, locker.NewLocalLocker(), h.notifier, clock)
	h.lottery = NewLotteryService(h.store, lotteries, entries, h.escrow, NewRandomnessService(h.oracle), h.notifier, clock)
	return h
}

func (h *harness) at(unix int64) {
	h.now = time.Unix(unix, 0)
}

func (h *harness) fund(account string, amount uint64) {
	h.t.Helper()
	_, err := h.ledger.Deposit(h.ctx, account, amount)
	require.NoError(h.t, err)
}

func (h *harness) balance(account string) uint64 {
	h.t.Helper()
	balance, err := h.ledger.Balance(h.ctx, account)
	require.NoError(h.t, err)
	return balance
}

func (h *harness) holder(asset string) string {
	h.t.Helper()
	holder, err := h.ledger.AssetHolder(h.ctx, asset)
	require.NoError(h.t, err)
	return holder
}

// createLottery mints the prize to the creator and opens the standard lottery
func (h *harness) createLottery() *models.Lottery {
	h.t.Helper()
	require.NoError(h.t, h.ledger.MintAsset(h.ctx, testPrize, testCreator))
	lottery, err := h.lottery.CreateLottery(h.ctx, testCreator, CreateLotteryParams{
		TicketPrice:    testPrice,
		StartTime:      testStart,
		EndTime:        testEnd,
		CorrelationTag: testTag,
		PrizeReference: testPrize,
	})
	require.NoError(h.t, err)
	return lottery
}

func (h *harness) buy(buyer, lotteryID string) *models.Entry {
	h.t.Helper()
	entry, err := h.tickets.BuyTicket(h.ctx, buyer, lotteryID)
	require.NoError(h.t, err)
	return entry
}
