package memory

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/token"
)

type store struct {
	mu       sync.Mutex
	mints    map[string]*token.Mint
	accounts map[string]*token.Account
	last     uint64
}

// New returns a new in memory token.Store
func New() token.Store {
	return &store{
		mints:    make(map[string]*token.Mint),
		accounts: make(map[string]*token.Account),
	}
}

// CreateMint implements token.Store.CreateMint
func (s *store) CreateMint(_ context.Context, data *token.Mint) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mints[data.Address]; ok {
		return token.ErrMintExists
	}

	s.last++
	data.Id = s.last
	data.Supply = 0
	data.CreatedAt = time.Now()

	s.mints[data.Address] = data.Clone()
	return nil
}

// GetMint implements token.Store.GetMint
func (s *store) GetMint(_ context.Context, address string) (*token.Mint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.mints[address]
	if !ok {
		return nil, token.ErrMintNotFound
	}
	return item.Clone(), nil
}

// CreateAccount implements token.Store.CreateAccount
func (s *store) CreateAccount(_ context.Context, data *token.Account) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mints[data.Mint]; !ok {
		return token.ErrMintNotFound
	}

	if _, ok := s.accounts[data.Address]; ok {
		return token.ErrAccountExists
	}

	s.last++
	data.Id = s.last
	data.Amount = 0
	data.CreatedAt = time.Now()
	data.LastUpdatedAt = data.CreatedAt

	s.accounts[data.Address] = data.Clone()
	return nil
}

// GetAccount implements token.Store.GetAccount
func (s *store) GetAccount(_ context.Context, address string) (*token.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.accounts[address]
	if !ok {
		return nil, token.ErrAccountNotFound
	}
	return item.Clone(), nil
}

// Transfer implements token.Store.Transfer
func (s *store) Transfer(_ context.Context, source, destination string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.accounts[source]
	if !ok {
		return token.ErrAccountNotFound
	}

	to, ok := s.accounts[destination]
	if !ok {
		return token.ErrAccountNotFound
	}

	if from.Mint != to.Mint {
		return token.ErrMintMismatch
	}

	if from.Amount < amount {
		return token.ErrInsufficientFunds
	}

	if from == to {
		return nil
	}

	from.Amount -= amount
	to.Amount += amount

	now := time.Now()
	from.LastUpdatedAt = now
	to.LastUpdatedAt = now
	return nil
}

// MintTo implements token.Store.MintTo
func (s *store) MintTo(_ context.Context, mint, destination string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.mints[mint]
	if !ok {
		return token.ErrMintNotFound
	}

	to, ok := s.accounts[destination]
	if !ok {
		return token.ErrAccountNotFound
	}

	if to.Mint != m.Address {
		return token.ErrMintMismatch
	}

	if amount > math.MaxInt64 || m.Supply > math.MaxInt64-amount {
		return token.ErrSupplyOverflow
	}

	m.Supply += amount
	to.Amount += amount
	to.LastUpdatedAt = time.Now()
	return nil
}

// Snapshot captures the store's state and returns a function that restores it
func (s *store) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	mints := make(map[string]*token.Mint, len(s.mints))
	for k, v := range s.mints {
		mints[k] = v.Clone()
	}

	accounts := make(map[string]*token.Account, len(s.accounts))
	for k, v := range s.accounts {
		accounts[k] = v.Clone()
	}

	last := s.last

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.mints = mints
		s.accounts = accounts
		s.last = last
	}
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mints = make(map[string]*token.Mint)
	s.accounts = make(map[string]*token.Account)
	s.last = 0
}
