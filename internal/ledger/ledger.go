// Package ledger is the funds and asset ledger the raffle settles against.
// Every debit must be authorized by the controller of the debited account.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/slog"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
	"github.com/ArowuTest/raffle-backend/internal/utils"
)

var (
	// ErrUnauthorized is returned when the authority does not control the source account
	ErrUnauthorized = errors.New("authority does not control the source account")
	// ErrInsufficientFunds is returned when the source balance is too low
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrAssetNotHeld is returned when the asset is not held by the source account
	ErrAssetNotHeld = errors.New("asset not held by source account")
	// ErrInvalidAmount is returned for zero amounts and for credits that
	// would push a balance past maxBalance
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidLabel is returned when an account is opened without a label
	ErrInvalidLabel = errors.New("account label is required")
)

// maxBalance bounds every balance so it fits the signed 64-bit integers
// MongoDB stores
const maxBalance = math.MaxInt64

func credit(balance, amount uint64) (uint64, error) {
	if amount > maxBalance || balance > maxBalance-amount {
		return 0, fmt.Errorf("%w: balance %d cannot take %d more", ErrInvalidAmount, balance, amount)
	}
	return balance + amount, nil
}

// Ledger moves balances and unique assets between accounts. Calls made inside
// a transaction ctx join that transaction.
type Ledger struct {
	tx       repositories.Transactor
	accounts repositories.AccountRepository
	assets   repositories.AssetRepository
}

// New creates a Ledger
func New(tx repositories.Transactor, accounts repositories.AccountRepository, assets repositories.AssetRepository) *Ledger {
	return &Ledger{tx: tx, accounts: accounts, assets: assets}
}

// TransferFunds debits from and credits to. authority must control from.
func (l *Ledger) TransferFunds(ctx context.Context, from, to string, amount uint64, authority string) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	return l.tx.WithTransaction(ctx, func(ctx context.Context) error {
		source, err := l.account(ctx, from)
		if err != nil {
			return err
		}
		if source.Controller != authority {
			return ErrUnauthorized
		}
		if source.Balance < amount {
			return fmt.Errorf("%w: balance %d, required %d", ErrInsufficientFunds, source.Balance, amount)
		}
		if from == to {
			return nil
		}

		dest, err := l.account(ctx, to)
		if err != nil {
			return err
		}
		credited, err := credit(dest.Balance, amount)
		if err != nil {
			return err
		}
		now := time.Now()
		source.Balance -= amount
		source.UpdatedAt = now
		dest.Balance = credited
		dest.UpdatedAt = now

		if err := l.accounts.Save(ctx, source); err != nil {
			return fmt.Errorf("failed to debit %s: %w", utils.MaskIdentity(from), err)
		}
		if err := l.accounts.Save(ctx, dest); err != nil {
			return fmt.Errorf("failed to credit %s: %w", utils.MaskIdentity(to), err)
		}
		return nil
	})
}

// TransferAsset moves a unique asset from one account to another. authority
// must control from, and from must hold the asset.
func (l *Ledger) TransferAsset(ctx context.Context, assetID, from, to string, authority string) error {
	return l.tx.WithTransaction(ctx, func(ctx context.Context) error {
		holding, err := l.assets.FindByID(ctx, assetID)
		if errors.Is(err, repositories.ErrNotFound) || (err == nil && holding.Account != from) {
			return fmt.Errorf("%w: %s", ErrAssetNotHeld, assetID)
		}
		if err != nil {
			return err
		}

		controller, err := l.ControllerOf(ctx, from)
		if err != nil {
			return err
		}
		if controller != authority {
			return ErrUnauthorized
		}

		holding.Account = to
		holding.UpdatedAt = time.Now()
		if err := l.assets.Save(ctx, holding); err != nil {
			return fmt.Errorf("failed to move asset %s: %w", assetID, err)
		}
		slog.Debug("Asset transferred", "asset", assetID, "from", utils.MaskIdentity(from), "to", utils.MaskIdentity(to))
		return nil
	})
}

// ControllerOf returns the identity allowed to debit account. Accounts that
// were never written are controlled by their own id.
func (l *Ledger) ControllerOf(ctx context.Context, account string) (string, error) {
	a, err := l.account(ctx, account)
	if err != nil {
		return "", err
	}
	return a.Controller, nil
}

// OpenAccount opens the account controller holds under label and returns its
// id. Opening the same label twice returns the same account.
func (l *Ledger) OpenAccount(ctx context.Context, controller, label string) (string, error) {
	if label == "" {
		return "", ErrInvalidLabel
	}
	id := utils.AccountID(controller, label)
	err := l.tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := l.accounts.FindByID(ctx, id)
		if err == nil {
			if existing.Controller != controller {
				return ErrUnauthorized
			}
			return nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		now := time.Now()
		return l.accounts.Save(ctx, &models.Account{
			ID:         id,
			Controller: controller,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Balance returns the balance of account, zero for unknown accounts
func (l *Ledger) Balance(ctx context.Context, account string) (uint64, error) {
	a, err := l.account(ctx, account)
	if err != nil {
		return 0, err
	}
	return a.Balance, nil
}

// AssetHolder returns the account currently holding assetID
func (l *Ledger) AssetHolder(ctx context.Context, assetID string) (string, error) {
	holding, err := l.assets.FindByID(ctx, assetID)
	if err != nil {
		return "", err
	}
	return holding.Account, nil
}

// Assets lists the asset ids held by account
func (l *Ledger) Assets(ctx context.Context, account string) ([]string, error) {
	holdings, err := l.assets.FindByAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(holdings))
	for _, h := range holdings {
		ids = append(ids, h.AssetID)
	}
	return ids, nil
}

// Deposit credits account out of thin air. Only reachable through the
// development faucet.
func (l *Ledger) Deposit(ctx context.Context, account string, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	var balance uint64
	err := l.tx.WithTransaction(ctx, func(ctx context.Context) error {
		a, err := l.account(ctx, account)
		if err != nil {
			return err
		}
		credited, err := credit(a.Balance, amount)
		if err != nil {
			return err
		}
		a.Balance = credited
		a.UpdatedAt = time.Now()
		balance = a.Balance
		return l.accounts.Save(ctx, a)
	})
	return balance, err
}

// MintAsset registers a new unique asset held by account. Only reachable
// through the development faucet.
func (l *Ledger) MintAsset(ctx context.Context, assetID, account string) error {
	return l.tx.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := l.assets.FindByID(ctx, assetID)
		if err == nil {
			return repositories.ErrDuplicate
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		return l.assets.Save(ctx, &models.AssetHolding{
			AssetID:   assetID,
			Account:   account,
			UpdatedAt: time.Now(),
		})
	})
}

// account loads id, or returns an empty self-controlled account
func (l *Ledger) account(ctx context.Context, id string) (*models.Account, error) {
	a, err := l.accounts.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		now := time.Now()
		return &models.Account{ID: id, Controller: id, CreatedAt: now, UpdatedAt: now}, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}
