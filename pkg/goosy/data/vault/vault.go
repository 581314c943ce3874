package vault

import (
	"time"

	"github.com/pkg/errors"
)

type Type uint8

const (
	TypeUnknown Type = iota
	TypeUser
	TypeAdmin
)

// Record is a vault's mirrored balance of its external token account. Only
// TotalBalance changes after creation.
type Record struct {
	Id uint64

	Address string
	Bump    uint8

	Type Type

	// Index is the creation order position for user vaults. Admin vaults are
	// addressed without an index and always have zero here.
	Index uint32

	Owner string

	ExternalAccount string
	Mint            string

	TotalBalance uint64

	CreationDate time.Time

	Version       uint64
	LastUpdatedAt time.Time
}

func (r *Record) IsAdmin() bool {
	return r.Type == TypeAdmin
}

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	switch r.Type {
	case TypeUser:
	case TypeAdmin:
		if r.Index != 0 {
			return errors.New("admin vault cannot have an index")
		}
	default:
		return errors.New("type is required")
	}

	if len(r.Owner) == 0 {
		return errors.New("owner is required")
	}

	if len(r.ExternalAccount) == 0 {
		return errors.New("external account is required")
	}

	if len(r.Mint) == 0 {
		return errors.New("mint is required")
	}

	if r.CreationDate.IsZero() {
		return errors.New("creation date is required")
	}

	return nil
}

func (r *Record) Clone() *Record {
	return &Record{
		Id: r.Id,

		Address: r.Address,
		Bump:    r.Bump,

		Type:  r.Type,
		Index: r.Index,

		Owner: r.Owner,

		ExternalAccount: r.ExternalAccount,
		Mint:            r.Mint,

		TotalBalance: r.TotalBalance,

		CreationDate: r.CreationDate,

		Version:       r.Version,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Address = r.Address
	dst.Bump = r.Bump

	dst.Type = r.Type
	dst.Index = r.Index

	dst.Owner = r.Owner

	dst.ExternalAccount = r.ExternalAccount
	dst.Mint = r.Mint

	dst.TotalBalance = r.TotalBalance

	dst.CreationDate = r.CreationDate

	dst.Version = r.Version
	dst.LastUpdatedAt = r.LastUpdatedAt
}

func (t Type) String() string {
	switch t {
	case TypeUser:
		return "user"
	case TypeAdmin:
		return "admin"
	}
	return "unknown"
}
