package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/AnTengye/projectbrief/config"
	"github.com/AnTengye/projectbrief/model"
	"github.com/google/uuid"
)

// RecordStore persists submission rows. Rows are append-only.
type RecordStore interface {
	Insert(ctx context.Context, row model.PersistedRow) (string, error)
	// SelectAll returns rows in storage order; callers sort for display.
	SelectAll(ctx context.Context) ([]model.PersistedRow, error)
}

// Compile-time checks
var (
	_ RecordStore = (*MemoryRecordStore)(nil)
	_ RecordStore = (*PostgresRecordStore)(nil)
	_ RecordStore = (*SQLiteRecordStore)(nil)
)

// MemoryRecordStore keeps rows in process memory, in insertion order.
// Useful for development; rows vanish on restart.
type MemoryRecordStore struct {
	rows    []model.PersistedRow
	mu      sync.RWMutex
	maxRows int // Maximum rows to keep, 0 = unlimited
}

// NewMemoryRecordStore creates a store that keeps at most maxRows rows
func NewMemoryRecordStore(cfg *config.StoreConfig) *MemoryRecordStore {
	maxRows := cfg.MaxRows
	if maxRows < 0 {
		maxRows = 0
	}
	slog.Info("memory record store initialized", "max_rows", maxRows)
	return &MemoryRecordStore{maxRows: maxRows}
}

func (s *MemoryRecordStore) Insert(_ context.Context, row model.PersistedRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	s.rows = append(s.rows, row)

	s.cleanupIfNeeded()
	return row.ID, nil
}

func (s *MemoryRecordStore) SelectAll(_ context.Context) ([]model.PersistedRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.PersistedRow, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

// Count returns the number of rows in the store
func (s *MemoryRecordStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// cleanupIfNeeded drops the oldest rows beyond maxRows.
// Must be called with lock held
func (s *MemoryRecordStore) cleanupIfNeeded() {
	if s.maxRows <= 0 || len(s.rows) <= s.maxRows {
		return
	}

	removeCount := len(s.rows) - s.maxRows
	for _, r := range s.rows[:removeCount] {
		slog.Info("auto-cleaning old submission",
			"row_id", r.ID,
			"submission_date", r.SubmissionDate,
		)
	}
	s.rows = append([]model.PersistedRow(nil), s.rows[removeCount:]...)
}

// SortBySubmissionDate sorts rows in place by submission date. RFC 3339 UTC
// timestamps sort correctly as strings.
func SortBySubmissionDate(rows []model.PersistedRow, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return rows[i].SubmissionDate > rows[j].SubmissionDate
		}
		return rows[i].SubmissionDate < rows[j].SubmissionDate
	})
}
