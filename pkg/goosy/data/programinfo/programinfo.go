package programinfo

import (
	"time"

	"github.com/pkg/errors"
)

// Record is the singleton program state. VaultsCount is the next free vault
// index and only ever increases.
type Record struct {
	Id uint64

	Address string
	Bump    uint8

	Admin string

	VaultsCount uint32

	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	if len(r.Admin) == 0 {
		return errors.New("admin is required")
	}

	return nil
}

func (r *Record) Clone() *Record {
	return &Record{
		Id: r.Id,

		Address: r.Address,
		Bump:    r.Bump,

		Admin: r.Admin,

		VaultsCount: r.VaultsCount,

		CreatedAt:     r.CreatedAt,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Address = r.Address
	dst.Bump = r.Bump

	dst.Admin = r.Admin

	dst.VaultsCount = r.VaultsCount

	dst.CreatedAt = r.CreatedAt
	dst.LastUpdatedAt = r.LastUpdatedAt
}
