package models

import (
	"time"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/cryptox"
)

// JournalEntry is the persisted form of a journal note. The title stays
// plaintext for index views; content and tags exist only as envelopes.
type JournalEntry struct {
	ID        int64
	UserID    int64
	Title     string
	Content   cryptox.Envelope
	Tags      *cryptox.Envelope
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EntryMetadata is the envelope-free projection used for listings.
type EntryMetadata struct {
	ID        int64
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JournalStats summarizes a user's journal activity.
type JournalStats struct {
	TotalEntries     int64
	RecentEntries    int64
	ThisMonthEntries int64
}
