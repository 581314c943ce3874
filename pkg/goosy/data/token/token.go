package token

import (
	"time"

	"github.com/pkg/errors"
)

// Mint is a token denomination
type Mint struct {
	Id uint64

	Address   string
	Authority string
	Decimals  uint8

	Supply uint64

	CreatedAt time.Time
}

// Account is an externally held token account backing a vault, or any other
// holder of the token such as a depositor's wallet.
type Account struct {
	Id uint64

	Address string
	Mint    string
	Owner   string

	Amount uint64

	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

func (m *Mint) Validate() error {
	if len(m.Address) == 0 {
		return errors.New("address is required")
	}

	if len(m.Authority) == 0 {
		return errors.New("authority is required")
	}

	return nil
}

func (m *Mint) Clone() *Mint {
	return &Mint{
		Id:        m.Id,
		Address:   m.Address,
		Authority: m.Authority,
		Decimals:  m.Decimals,
		Supply:    m.Supply,
		CreatedAt: m.CreatedAt,
	}
}

func (m *Mint) CopyTo(dst *Mint) {
	dst.Id = m.Id
	dst.Address = m.Address
	dst.Authority = m.Authority
	dst.Decimals = m.Decimals
	dst.Supply = m.Supply
	dst.CreatedAt = m.CreatedAt
}

func (a *Account) Validate() error {
	if len(a.Address) == 0 {
		return errors.New("address is required")
	}

	if len(a.Mint) == 0 {
		return errors.New("mint is required")
	}

	if len(a.Owner) == 0 {
		return errors.New("owner is required")
	}

	return nil
}

func (a *Account) Clone() *Account {
	return &Account{
		Id:            a.Id,
		Address:       a.Address,
		Mint:          a.Mint,
		Owner:         a.Owner,
		Amount:        a.Amount,
		CreatedAt:     a.CreatedAt,
		LastUpdatedAt: a.LastUpdatedAt,
	}
}

func (a *Account) CopyTo(dst *Account) {
	dst.Id = a.Id
	dst.Address = a.Address
	dst.Mint = a.Mint
	dst.Owner = a.Owner
	dst.Amount = a.Amount
	dst.CreatedAt = a.CreatedAt
	dst.LastUpdatedAt = a.LastUpdatedAt
}
