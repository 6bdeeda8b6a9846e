package pipeline

import (
	"sync/atomic"

	"github.com/couchcryptid/disaster-funding-service/internal/dataset"
)

// Store holds the loaded dataset. It is empty until the startup load
// succeeds and is never replaced afterwards.
type Store struct {
	ds atomic.Pointer[dataset.Dataset]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the loaded dataset or dataset.ErrNotLoaded.
func (s *Store) Get() (*dataset.Dataset, error) {
	ds := s.ds.Load()
	if ds == nil {
		return nil, dataset.ErrNotLoaded
	}
	return ds, nil
}

// Set publishes a loaded dataset to readers.
func (s *Store) Set(ds *dataset.Dataset) {
	s.ds.Store(ds)
}
