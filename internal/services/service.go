package services

import (
	"context"
	"time"

	"golang.org/x/exp/slog"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/pkg/notifier"
)

// Clock returns the current time. Lottery windows are compared in epoch seconds.
type Clock func() time.Time

// Ledger is the funds and asset ledger the raffle settles against
type Ledger interface {
	TransferFunds(ctx context.Context, from, to string, amount uint64, authority string) error
	TransferAsset(ctx context.Context, assetID, from, to string, authority string) error
	ControllerOf(ctx context.Context, account string) (string, error)
}

// Oracle is the external randomness oracle
type Oracle interface {
	SubmitRequest(ctx context.Context, tag models.CorrelationTag) error
	// ReadFulfilled returns nil until the request for tag is fulfilled
	ReadFulfilled(ctx context.Context, tag models.CorrelationTag) (*models.Randomness, error)
}

// CreateLotteryParams holds the creator supplied lottery settings
type CreateLotteryParams struct {
	TicketPrice    uint64
	StartTime      uint64
	EndTime        uint64
	CorrelationTag models.CorrelationTag
	PrizeReference string
}

// WinningEntry is the entry selected by a fulfilled value
type WinningEntry struct {
	Entry      *models.Entry     `json:"entry"`
	Index      uint64            `json:"index"`
	Randomness models.Randomness `json:"randomness"`
}

// LotteryService owns the lottery state machine
type LotteryService interface {
	// CreateLottery opens a lottery and escrows its prize
	CreateLottery(ctx context.Context, creator string, params CreateLotteryParams) (*models.Lottery, error)

	// RequestDraw asks the oracle for randomness once the sale has ended
	RequestDraw(ctx context.Context, caller, lotteryID string) error

	// ResolveDraw records the owner of the claimed entry as winner if the
	// fulfilled value selects it
	ResolveDraw(ctx context.Context, caller, lotteryID, entryID string) (*models.Lottery, error)

	// RewardWinner releases the prize to the winner
	RewardWinner(ctx context.Context, caller, lotteryID, destination string) (*models.Lottery, error)

	// CancelLottery closes a lottery nobody bought into and returns the prize
	CancelLottery(ctx context.Context, caller, lotteryID string) (*models.Lottery, error)

	GetLottery(ctx context.Context, lotteryID string) (*models.Lottery, error)
	ListLotteries(ctx context.Context, status models.LotteryStatus, page, limit int) ([]*models.Lottery, error)
	GetEntry(ctx context.Context, entryID string) (*models.Entry, error)
	ListEntries(ctx context.Context, lotteryID string, page, limit int) ([]*models.Entry, error)
	ListEntriesByOwner(ctx context.Context, owner string, page, limit int) ([]*models.Entry, error)

	// FindWinningEntry computes the entry a fulfilled value selects
	FindWinningEntry(ctx context.Context, lotteryID string) (*WinningEntry, error)
}

// TicketService sells lottery entries
type TicketService interface {
	BuyTicket(ctx context.Context, buyer, lotteryID string) (*models.Entry, error)
}

// RandomnessService brokers oracle requests and maps values onto entries
type RandomnessService interface {
	SubmitRequest(ctx context.Context, tag models.CorrelationTag) error
	ReadFulfilled(ctx context.Context, tag models.CorrelationTag) (*models.Randomness, error)
	WinningIndex(value models.Randomness, ticketsSold uint64) (uint64, error)
	VerifyClaim(value models.Randomness, ticketsSold, claimed uint64) error
}

// EscrowService keeps prizes in lottery custody
type EscrowService interface {
	TakeCustody(ctx context.Context, lottery *models.Lottery) error
	Release(ctx context.Context, caller, lotteryID, destination string) (*models.Lottery, error)
	ReturnToCreator(ctx context.Context, lottery *models.Lottery) error
}

// AuthService registers users and issues identity tokens
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// pastEnd reports whether now is strictly after the end timestamp
func pastEnd(now time.Time, end uint64) bool {
	n := now.Unix()
	return n > 0 && uint64(n) > end
}

// announce publishes event after a committed change. Failures are logged only.
func announce(ctx context.Context, n notifier.Notifier, event notifier.Event) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, event); err != nil {
		slog.Warn("Failed to publish lottery event", "type", event.Type, "lottery", event.LotteryID, "error", err)
	}
}
