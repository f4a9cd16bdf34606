package services

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"aktis-collector-wonderdesk/internal/common"
)

const (
	SummaryCSV     = "agencias_wonderdesk_stats.csv"
	TicketsCSV     = "tickets_wonderdesk.csv"
	RollupCSV      = "ds_cross_agencies.csv"
	OpenTicketsCSV = "open_tickets_wonderdesk.csv"
)

// WriteCSV writes rows to dir/name, creating dir when needed, and returns the path
func WriteCSV(dir, name string, rows [][]string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", common.WrapError(err, common.ErrorTypePublish, "CSV_DIR", "failed to create output directory").
			WithContext("dir", dir)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", common.WrapError(err, common.ErrorTypePublish, "CSV_CREATE", "failed to create csv file").
			WithContext("path", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return "", common.WrapError(err, common.ErrorTypePublish, "CSV_WRITE", "failed to write csv file").
			WithContext("path", path)
	}
	if err := f.Close(); err != nil {
		return "", common.WrapError(err, common.ErrorTypePublish, "CSV_WRITE", "failed to close csv file").
			WithContext("path", path)
	}
	return path, nil
}
