package memory

import (
	"context"
	"sync"
	"time"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/programinfo"
)

type store struct {
	mu      sync.Mutex
	records []*programinfo.Record
	last    uint64
}

// New returns a new in memory programinfo.Store
func New() programinfo.Store {
	return &store{}
}

// Create implements programinfo.Store.Create
func (s *store) Create(_ context.Context, data *programinfo.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.find(data.Address); item != nil {
		return programinfo.ErrProgramInfoExists
	}

	s.last++
	data.Id = s.last
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}
	data.LastUpdatedAt = time.Now()

	s.records = append(s.records, data.Clone())
	return nil
}

// Get implements programinfo.Store.Get
func (s *store) Get(_ context.Context, address string) (*programinfo.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.find(address); item != nil {
		return item.Clone(), nil
	}
	return nil, programinfo.ErrProgramInfoNotFound
}

// IncrementVaultsCount implements programinfo.Store.IncrementVaultsCount
func (s *store) IncrementVaultsCount(_ context.Context, address string, expected uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(address)
	if item == nil {
		return programinfo.ErrProgramInfoNotFound
	}

	if item.VaultsCount != expected {
		return programinfo.ErrStaleProgramInfo
	}

	item.VaultsCount++
	item.LastUpdatedAt = time.Now()
	return nil
}

// Snapshot captures the store's state and returns a function that restores it
func (s *store) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.cloneAll()
	last := s.last

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.records = records
		s.last = last
	}
}

func (s *store) find(address string) *programinfo.Record {
	for _, item := range s.records {
		if item.Address == address {
			return item
		}
	}
	return nil
}

func (s *store) cloneAll() []*programinfo.Record {
	res := make([]*programinfo.Record, len(s.records))
	for i, item := range s.records {
		res[i] = item.Clone()
	}
	return res
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.last = 0
}
