package storage

import (
	"sync"

	"github.com/fieldops/pdvstamp/internal/models"
)

// EvidenceStore keeps evidence records in memory, keyed by ID. It is safe for
// concurrent use; records are lost when the service stops.
type EvidenceStore struct {
	records map[string]*models.Evidence
	mu      sync.RWMutex
}

// New creates an empty store
func New() *EvidenceStore {
	return &EvidenceStore{
		records: make(map[string]*models.Evidence),
	}
}

// Get returns the record stored under id
func (s *EvidenceStore) Get(id string) (*models.Evidence, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, exists := s.records[id]
	return record, exists
}

// Set stores record under id, replacing any previous record
func (s *EvidenceStore) Set(id string, record *models.Evidence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = record
}

// GetAll returns a copy of the index; the records themselves are shared
func (s *EvidenceStore) GetAll() map[string]*models.Evidence {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*models.Evidence, len(s.records))
	for k, v := range s.records {
		result[k] = v
	}
	return result
}

// Delete removes id and returns the record it held, if any
func (s *EvidenceStore) Delete(id string) (*models.Evidence, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, exists := s.records[id]
	delete(s.records, id)
	return record, exists
}
