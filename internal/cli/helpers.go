package cli

import (
	"fmt"

	"github.com/headline-goat/oconv/internal/adwords"
	"github.com/headline-goat/oconv/internal/store"
	"github.com/headline-goat/oconv/internal/uploader"
)

// withStore opens the database, executes the function, and handles cleanup.
func withStore(fn func(*store.SQLiteStore) error) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(s)
}

// withUploader builds an uploader against the configured endpoint, journaling
// to the local database unless --no-journal is set.
func withUploader(fn func(*uploader.Uploader) error) error {
	session := adwords.Session{
		Endpoint: endpoint,
		Version:  apiVersion,
		Timeout:  timeout,
		Logger:   logger,
	}
	trackers := session.ConversionTrackerService()
	feeds := session.OfflineConversionFeedService()

	if noJournal {
		return fn(uploader.New(trackers, feeds, uploader.WithLogger(logger)))
	}

	return withStore(func(s *store.SQLiteStore) error {
		return fn(uploader.New(trackers, feeds, uploader.WithLogger(logger), uploader.WithJournal(s)))
	})
}
