// Package credits guards the per-search credit balance: a balance check before
// any provider work and one atomic conditional charge once results exist.
package credits

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/profile-sourcer/internal/metrics"
	"github.com/jonathan/profile-sourcer/internal/types"
)

// SearchCost is the number of credit units one sourcing search consumes.
const SearchCost = 1.0

var (
	// ErrInsufficientCredits means the balance is below SearchCost.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrUnknownAccount means the account does not exist.
	ErrUnknownAccount = errors.New("unknown account")
)

// Snapshot is the account state the pipeline reads.
type Snapshot struct {
	Tier             types.Tier `json:"tier"`
	CreditsRemaining float64    `json:"credits_remaining"`
}

// AccountService is the external account store.
type AccountService interface {
	GetSnapshot(ctx context.Context, accountID uuid.UUID) (*Snapshot, error)
	// ChargeOneUnit decrements the balance by SearchCost only if the balance
	// covers it, and returns the number of rows changed (0 or 1).
	ChargeOneUnit(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// Guard wraps an AccountService with the check and charge rules.
type Guard struct {
	accounts AccountService
}

// NewGuard creates a guard over the given account service.
func NewGuard(accounts AccountService) *Guard {
	return &Guard{accounts: accounts}
}

// Check returns the account snapshot, or ErrInsufficientCredits when the
// balance cannot cover one search.
func (g *Guard) Check(ctx context.Context, accountID uuid.UUID) (*Snapshot, error) {
	snap, err := g.accounts.GetSnapshot(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to read account: %w", err)
	}
	if snap.CreditsRemaining < SearchCost {
		return snap, ErrInsufficientCredits
	}
	return snap, nil
}

// Charge performs the single conditional decrement. Zero affected rows means
// another request drained the balance after Check.
func (g *Guard) Charge(ctx context.Context, accountID uuid.UUID) error {
	affected, err := g.accounts.ChargeOneUnit(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to charge account: %w", err)
	}
	if affected == 0 {
		return ErrInsufficientCredits
	}
	metrics.CreditsCharged.Add(SearchCost)
	return nil
}

// MemoryAccounts is an in-process AccountService backing the pipeline and
// guard tests.
type MemoryAccounts struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*Snapshot
}

// NewMemoryAccounts creates an empty store.
func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{accounts: make(map[uuid.UUID]*Snapshot)}
}

// Put sets an account's tier and balance.
func (m *MemoryAccounts) Put(id uuid.UUID, tier types.Tier, credits float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[id] = &Snapshot{Tier: tier, CreditsRemaining: credits}
}

// GetSnapshot implements AccountService.
func (m *MemoryAccounts) GetSnapshot(_ context.Context, id uuid.UUID) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.accounts[id]
	if !ok {
		return nil, ErrUnknownAccount
	}
	cp := *snap
	return &cp, nil
}

// ChargeOneUnit implements AccountService.
func (m *MemoryAccounts) ChargeOneUnit(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.accounts[id]
	if !ok || snap.CreditsRemaining < SearchCost {
		return 0, nil
	}
	snap.CreditsRemaining -= SearchCost
	return 1, nil
}
