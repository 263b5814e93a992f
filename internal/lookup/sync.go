package lookup

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"worldprod/internal/config"
	"worldprod/internal/storage"
)

const (
	lastSyncKey   = "lookup.last_sync"
	lastImportKey = "lookup.last_import"
)

type SyncService struct {
	db     *storage.DB
	client *Client
}

func NewSyncService(db *storage.DB, cfg config.Config) *SyncService {
	return &SyncService{db: db, client: NewClient(cfg)}
}

// Sync copies the mapping service into the local lookup table.
func (s *SyncService) Sync(ctx context.Context) (int, error) {
	entries, err := s.client.FetchAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(entries) > 0 {
		if err := s.db.UpsertLookupEntries(entries, "api"); err != nil {
			return 0, err
		}
	}
	_ = s.db.SetMetadata(lastSyncKey, time.Now().UTC().Format(time.RFC3339))
	return len(entries), nil
}

// ImportFile loads a lookup file into the local lookup table.
func ImportFile(db *storage.DB, path string) (int, error) {
	entries, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	if err := db.UpsertLookupEntries(entries, "file"); err != nil {
		return 0, err
	}
	_ = db.SetMetadata(lastImportKey, path)
	return len(entries), nil
}

// Load builds the index for a run: the lookup file when one is configured,
// otherwise whatever the database holds. A nil index means no lookup at all.
func Load(db *storage.DB, cfg config.Config) (*Index, error) {
	if cfg.LookupFile != "" {
		entries, err := LoadFile(cfg.LookupFile)
		if err != nil {
			return nil, err
		}
		return BuildIndex(entries), nil
	}
	if db == nil {
		return nil, nil
	}
	entries, err := db.ListLookupEntries()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return BuildIndex(entries), nil
}

// Status describes the local lookup table. Stamps are nil until the first
// sync or import.
type Status struct {
	Pages      int
	LastSync   *string
	LastImport *string
}

func LoadStatus(db *storage.DB) (Status, error) {
	entries, err := db.ListLookupEntries()
	if err != nil {
		return Status{}, err
	}
	st := Status{Pages: len(entries)}
	if st.LastSync, err = db.GetMetadata(lastSyncKey); err != nil {
		return Status{}, eris.Wrap(err, "lookup: read last sync")
	}
	if st.LastImport, err = db.GetMetadata(lastImportKey); err != nil {
		return Status{}, eris.Wrap(err, "lookup: read last import")
	}
	return st, nil
}
