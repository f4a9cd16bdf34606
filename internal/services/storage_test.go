package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"aktis-collector-wonderdesk/internal/common"
	"aktis-collector-wonderdesk/internal/interfaces"
	"aktis-collector-wonderdesk/internal/models"
)

func newTestStore(t *testing.T) interfaces.HistoryStore {
	t.Helper()
	store, err := NewHistoryStore(&common.StorageConfig{
		Enabled:      true,
		DatabasePath: filepath.Join(t.TempDir(), "nested", "history.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestHistoryStoreSaveAndGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveEntry(&models.HistoryEntry{TenantCode: "acme", Day: "2024-03-01", OpenTotal: 4, ClosedTotal: 10}))
	require.NoError(t, store.SaveEntry(&models.HistoryEntry{TenantCode: "ACME", Day: "2024-03-01", OpenTotal: 5, ClosedTotal: 11}))

	entry, err := store.GetEntry("Acme", "2024-03-01")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, 5, entry.OpenTotal)
	require.Equal(t, 11, entry.ClosedTotal)
	require.False(t, entry.RecordedAt.IsZero())

	missing, err := store.GetEntry("ACME", "2024-03-02")
	require.NoError(t, err)
	require.Nil(t, missing)

	err = store.SaveEntry(&models.HistoryEntry{TenantCode: "ACME"})
	require.True(t, common.IsErrorType(err, common.ErrorTypeStorage))
}

func TestHistoryStoreLastNonZeroClosed(t *testing.T) {
	store := newTestStore(t)

	for _, e := range []models.HistoryEntry{
		{TenantCode: "A", Day: "2024-03-01", ClosedTotal: 7},
		{TenantCode: "A", Day: "2024-03-02", ClosedTotal: 9},
		{TenantCode: "A", Day: "2024-03-03", ClosedTotal: 0},
		{TenantCode: "A", Day: "2024-03-05", ClosedTotal: 12},
		{TenantCode: "AB", Day: "2024-03-04", ClosedTotal: 99},
		{TenantCode: "B", Day: "2024-03-01", ClosedTotal: 50},
	} {
		require.NoError(t, store.SaveEntry(&e))
	}

	cases := []struct {
		tenant string
		day    string
		want   int
		found  bool
	}{
		{"A", "2024-03-04", 9, true},
		{"A", "2024-03-03", 9, true},
		{"A", "2024-03-02", 7, true},
		{"A", "2024-03-01", 0, false},
		{"A", "2024-04-01", 12, true},
		{"AB", "2024-03-05", 99, true},
		{"B", "2024-03-01", 0, false},
		{"C", "2024-03-10", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.tenant+"/"+tc.day, func(t *testing.T) {
			entry, err := store.LastNonZeroClosed(tc.tenant, tc.day)
			require.NoError(t, err)
			if !tc.found {
				require.Nil(t, entry)
				return
			}
			require.NotNil(t, entry)
			require.Equal(t, tc.want, entry.ClosedTotal)
		})
	}
}

func TestHistoryStoreListEntries(t *testing.T) {
	store := newTestStore(t)

	for _, day := range []string{"2024-03-03", "2024-03-01", "2024-03-02"} {
		require.NoError(t, store.SaveEntry(&models.HistoryEntry{TenantCode: "A", Day: day, ClosedTotal: 1}))
	}
	require.NoError(t, store.SaveEntry(&models.HistoryEntry{TenantCode: "AB", Day: "2024-03-01", ClosedTotal: 1}))

	entries, err := store.ListEntries("A")
	require.NoError(t, err)

	var days []string
	for _, e := range entries {
		days = append(days, e.Day)
	}
	require.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-03"}, days)
}
