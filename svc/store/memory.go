package store

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
)

type recordKey struct {
	id        string
	createdAt int64
}

func keyOf(id string, createdAt time.Time) recordKey {
	return recordKey{id: id, createdAt: notification.Truncate(createdAt).UnixMilli()}
}

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]notification.Record
	errs    []notification.ErrorRecord
	stats   []notification.ErrorStatistic
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[recordKey]notification.Record)}
}

func (s *MemoryStore) CreatePending(_ context.Context, r notification.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := keyOf(r.ID, r.CreatedAt)
	if _, ok := s.records[k]; ok {
		return nil
	}
	r.CreatedAt = notification.Truncate(r.CreatedAt)
	r.Data = maps.Clone(r.Data)
	s.records[k] = r
	return nil
}

func (s *MemoryStore) Transition(_ context.Context, id string, createdAt time.Time, status notification.Status, attrs notification.TransitionAttrs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := keyOf(id, createdAt)
	r, ok := s.records[k]
	if !ok {
		return ErrRecordNotFound
	}
	if err := CheckTransition(r.Status, status); err != nil {
		return err
	}
	attrs.Apply(&r, status)
	s.records[k] = r
	return nil
}

func (s *MemoryStore) AppendError(_ context.Context, rec notification.ErrorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, rec)
	return nil
}

func (s *MemoryStore) AppendStatistic(_ context.Context, stat notification.ErrorStatistic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = append(s.stats, stat)
	return nil
}

func (s *MemoryStore) History(_ context.Context, userID string, limit int) ([]notification.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]notification.Record, 0)
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b notification.Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns the record stored under (id, createdAt).
func (s *MemoryStore) Get(id string, createdAt time.Time) (notification.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[keyOf(id, createdAt)]
	return r, ok
}

// Records returns a snapshot of every stored record.
func (s *MemoryStore) Records() []notification.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Collect(maps.Values(s.records))
}

func (s *MemoryStore) Errors() []notification.ErrorRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.errs)
}

func (s *MemoryStore) Statistics() []notification.ErrorStatistic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.stats)
}
