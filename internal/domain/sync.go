package domain

import "time"

// AccountSyncState is the terminal state of one account within a sync run.
type AccountSyncState string

const (
	AccountSyncDone    AccountSyncState = "done"
	AccountSyncSkipped AccountSyncState = "skipped"
)

// SyncStats holds statistics about a sync run.
type SyncStats struct {
	Accounts   int
	Skipped    int
	Fetched    int
	Inserted   int
	Duplicates int
	Errors     int
	Published  int
	Duration   time.Duration
}

// Merge folds one account's counters into the run totals.
func (s *SyncStats) Merge(other *SyncStats) {
	s.Fetched += other.Fetched
	s.Inserted += other.Inserted
	s.Duplicates += other.Duplicates
	s.Errors += other.Errors
	s.Published += other.Published
}
