package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goosy-labs/goosy-vault/pkg/database/query"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/vault"
)

type ById []*vault.Record

func (a ById) Len() int           { return len(a) }
func (a ById) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ById) Less(i, j int) bool { return a[i].Id < a[j].Id }

type store struct {
	mu      sync.Mutex
	records []*vault.Record
	last    uint64
}

// New returns a new in memory vault.Store
func New() vault.Store {
	return &store{}
}

// Create implements vault.Store.Create
func (s *store) Create(_ context.Context, data *vault.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflicts(data) {
		return vault.ErrVaultExists
	}

	s.last++
	data.Id = s.last
	data.Version = 1
	data.LastUpdatedAt = time.Now()

	s.records = append(s.records, data.Clone())
	return nil
}

// Update implements vault.Store.Update
func (s *store) Update(_ context.Context, data *vault.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByAddress(data.Address)
	if item == nil {
		return vault.ErrVaultNotFound
	}

	if item.Version != data.Version {
		return vault.ErrStaleVersion
	}

	item.TotalBalance = data.TotalBalance
	item.Version++
	item.LastUpdatedAt = time.Now()

	item.CopyTo(data)
	return nil
}

// GetByAddress implements vault.Store.GetByAddress
func (s *store) GetByAddress(_ context.Context, address string) (*vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByAddress(address); item != nil {
		return item.Clone(), nil
	}
	return nil, vault.ErrVaultNotFound
}

// GetByIndex implements vault.Store.GetByIndex
func (s *store) GetByIndex(_ context.Context, index uint32) (*vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.records {
		if item.Type == vault.TypeUser && item.Index == index {
			return item.Clone(), nil
		}
	}
	return nil, vault.ErrVaultNotFound
}

// GetAdmin implements vault.Store.GetAdmin
func (s *store) GetAdmin(_ context.Context) (*vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.records {
		if item.Type == vault.TypeAdmin {
			return item.Clone(), nil
		}
	}
	return nil, vault.ErrVaultNotFound
}

// GetAllByType implements vault.Store.GetAllByType
func (s *store) GetAllByType(_ context.Context, t vault.Type, opts ...query.Option) ([]*vault.Record, error) {
	req, err := query.DefaultPaginationHandler(opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*vault.Record
	for _, item := range s.records {
		if item.Type == t {
			items = append(items, item)
		}
	}

	res := s.filter(items, req.Cursor, req.Limit, req.SortBy)
	if len(res) == 0 {
		return nil, vault.ErrVaultNotFound
	}
	return res, nil
}

// CountByType implements vault.Store.CountByType
func (s *store) CountByType(_ context.Context, t vault.Type) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count uint64
	for _, item := range s.records {
		if item.Type == t {
			count++
		}
	}
	return count, nil
}

// Snapshot captures the store's state and returns a function that restores it
func (s *store) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]*vault.Record, len(s.records))
	for i, item := range s.records {
		records[i] = item.Clone()
	}
	last := s.last

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.records = records
		s.last = last
	}
}

func (s *store) conflicts(data *vault.Record) bool {
	for _, item := range s.records {
		if item.Address == data.Address || item.ExternalAccount == data.ExternalAccount {
			return true
		}
		if item.Type == vault.TypeAdmin && data.Type == vault.TypeAdmin {
			return true
		}
		if item.Type == vault.TypeUser && data.Type == vault.TypeUser && item.Index == data.Index {
			return true
		}
	}
	return false
}

func (s *store) findByAddress(address string) *vault.Record {
	for _, item := range s.records {
		if item.Address == address {
			return item
		}
	}
	return nil
}

func (s *store) filter(items []*vault.Record, cursor query.Cursor, limit uint64, direction query.Ordering) []*vault.Record {
	var start uint64
	if direction == query.Descending {
		start = s.last + 1
	}
	if len(cursor) > 0 {
		start = cursor.ToUint64()
	}

	var res []*vault.Record
	for _, item := range items {
		if item.Id > start && direction == query.Ascending {
			res = append(res, item.Clone())
		}
		if item.Id < start && direction == query.Descending {
			res = append(res, item.Clone())
		}
	}

	if direction == query.Descending {
		sort.Sort(sort.Reverse(ById(res)))
	} else {
		sort.Sort(ById(res))
	}

	if limit > 0 && len(res) > int(limit) {
		return res[:limit]
	}
	return res
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.last = 0
}
