package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aktis-collector-wonderdesk/internal/common"
	"aktis-collector-wonderdesk/internal/interfaces"
	"aktis-collector-wonderdesk/internal/models"

	bolt "go.etcd.io/bbolt"
)

const (
	historyBucket  = "history"
	metadataBucket = "metadata"
	lastRunKey     = "last_run"
)

type historyStore struct {
	db     *bolt.DB
	config *common.StorageConfig
}

// NewHistoryStore opens the bbolt database holding per-tenant daily entries
func NewHistoryStore(config *common.StorageConfig) (interfaces.HistoryStore, error) {
	dbDir := filepath.Dir(config.DatabasePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, common.WrapError(err, common.ErrorTypeStorage, "DB_DIR", "failed to create database directory")
	}

	db, err := bolt.Open(config.DatabasePath, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, common.WrapError(err, common.ErrorTypeStorage, "DB_OPEN", "failed to open database").
			WithContext("path", config.DatabasePath)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(historyBucket)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(metadataBucket)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, common.WrapError(err, common.ErrorTypeStorage, "DB_BUCKETS", "failed to create buckets")
	}

	return &historyStore{
		db:     db,
		config: config,
	}, nil
}

func (s *historyStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func tenantPrefix(tenantCode string) []byte {
	return []byte(strings.ToUpper(tenantCode) + "/")
}

func historyKey(tenantCode, day string) []byte {
	return append(tenantPrefix(tenantCode), day...)
}

// SaveEntry stores entry under tenant/day, replacing an earlier run for the same day
func (s *historyStore) SaveEntry(entry *models.HistoryEntry) error {
	if entry.TenantCode == "" || entry.Day == "" {
		return common.NewStorageError("ENTRY_INVALID", "history entry needs a tenant and a day")
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal entry %s/%s: %w", entry.TenantCode, entry.Day, err)
		}
		if err := tx.Bucket([]byte(historyBucket)).Put(historyKey(entry.TenantCode, entry.Day), data); err != nil {
			return fmt.Errorf("failed to save entry %s/%s: %w", entry.TenantCode, entry.Day, err)
		}

		lastRun, _ := entry.RecordedAt.MarshalBinary()
		return tx.Bucket([]byte(metadataBucket)).Put([]byte(lastRunKey), lastRun)
	})
	if err != nil {
		return common.WrapError(err, common.ErrorTypeStorage, "ENTRY_WRITE", "failed to save history entry")
	}
	return nil
}

func (s *historyStore) GetEntry(tenantCode, day string) (*models.HistoryEntry, error) {
	var entry *models.HistoryEntry

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(historyBucket)).Get(historyKey(tenantCode, day))
		if data == nil {
			return nil
		}
		entry = &models.HistoryEntry{}
		return json.Unmarshal(data, entry)
	})
	if err != nil {
		return nil, common.WrapError(err, common.ErrorTypeStorage, "ENTRY_READ", "failed to read history entry")
	}
	return entry, nil
}

// LastNonZeroClosed walks the tenant's entries backwards from day, exclusive
func (s *historyStore) LastNonZeroClosed(tenantCode, day string) (*models.HistoryEntry, error) {
	var found *models.HistoryEntry
	prefix := tenantPrefix(tenantCode)
	limit := historyKey(tenantCode, day)

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(historyBucket)).Cursor()

		k, v := c.Seek(limit)
		if k == nil {
			k, v = c.Last()
		} else {
			k, v = c.Prev()
		}
		for ; k != nil && bytes.HasPrefix(k, prefix); k, v = c.Prev() {
			var entry models.HistoryEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			if entry.ClosedTotal > 0 {
				found = &entry
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, common.WrapError(err, common.ErrorTypeStorage, "ENTRY_READ", "failed to scan history")
	}
	return found, nil
}

// ListEntries returns the tenant's entries oldest first
func (s *historyStore) ListEntries(tenantCode string) ([]*models.HistoryEntry, error) {
	var entries []*models.HistoryEntry
	prefix := tenantPrefix(tenantCode)

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(historyBucket)).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var entry models.HistoryEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, common.WrapError(err, common.ErrorTypeStorage, "ENTRY_READ", "failed to list history")
	}
	return entries, nil
}
