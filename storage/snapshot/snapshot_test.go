package snapshot_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierbot/pkg/logger"
	"courierbot/pkg/models"
	"courierbot/storage"
	"courierbot/storage/snapshot"
)

func testLogger() logger.ILogger {
	return logger.New("snapshot-test", "error")
}

func openStore(t *testing.T, path string) storage.IStorage {
	t.Helper()
	stg, err := snapshot.New(path, testLogger())
	require.NoError(t, err)
	return stg
}

func TestOrderCounterNeverReused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	stg := openStore(t, path)

	first := stg.Order().Create(&models.Order{CustomerName: "one"})
	second := stg.Order().Create(&models.Order{CustomerName: "two"})
	require.Equal(t, first.ID+1, second.ID)

	// deleting the latest order must not free its id
	require.NoError(t, stg.Order().Delete(second.ID))
	third := stg.Order().Create(&models.Order{CustomerName: "three"})
	assert.Greater(t, third.ID, second.ID)

	require.NoError(t, stg.Close())

	// the counter survives a restart
	stg = openStore(t, path)
	defer func() { require.NoError(t, stg.Close()) }()
	fourth := stg.Order().Create(&models.Order{CustomerName: "four"})
	assert.Greater(t, fourth.ID, third.ID)
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	stg := openStore(t, path)

	total := 12.50
	given := 20.0
	o := stg.Order().Create(&models.Order{
		CustomerName:  "Dara",
		MapLink:       "location:11.55,104.92",
		TotalAmount:   &total,
		GivenCash:     &given,
		PaymentMethod: models.PaymentQR,
		Items:         "2x noodles",
	})
	stg.Driver().Create(&models.Driver{ID: 7, Name: "Rith", Status: models.DriverOnline})
	stg.UpdateSettings(func(s *models.Settings) { s.ArchiveDays = 14 })
	require.NoError(t, stg.Close())

	stg = openStore(t, path)
	defer func() { require.NoError(t, stg.Close()) }()

	loaded, err := stg.Order().GetByID(o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dara", loaded.CustomerName)
	require.NotNil(t, loaded.TotalAmount)
	assert.Equal(t, 12.50, *loaded.TotalAmount)
	require.NotNil(t, loaded.GivenCash)
	assert.Equal(t, 20.0, *loaded.GivenCash)
	assert.Equal(t, models.PaymentQR, loaded.PaymentMethod)

	drv, err := stg.Driver().Get(7)
	require.NoError(t, err)
	assert.Equal(t, models.DriverOnline, drv.Status)

	assert.Equal(t, 14, stg.Settings().ArchiveDays)
}

func TestFlushWritesValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	stg := openStore(t, path)
	defer func() { require.NoError(t, stg.Close()) }()

	stg.Order().Create(&models.Order{CustomerName: "x"})
	require.NoError(t, stg.Flush())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "orders")
	assert.Contains(t, doc, "orderCounter")

	// no half-written temp file left behind
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestBackupKeepsPreviousGoodFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	stg := openStore(t, path)
	defer func() { require.NoError(t, stg.Close()) }()

	stg.Order().Create(&models.Order{CustomerName: "first"})
	require.NoError(t, stg.Flush())
	stg.Order().Create(&models.Order{CustomerName: "second"})
	require.NoError(t, stg.Flush())

	bak, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	var doc struct {
		Orders []*models.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(bak, &doc))
	// the backup is the state before the latest write
	require.Len(t, doc.Orders, 1)
	assert.Equal(t, "first", doc.Orders[0].CustomerName)

	// rewriting unchanged content must not overwrite the backup with the
	// latest state, or recovery would have nothing older to fall back to
	require.NoError(t, stg.Flush())
	require.NoError(t, stg.Flush())
	again, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, bak, again)
}

func TestSaveAfterCloseIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	stg := openStore(t, path)
	stg.Order().Create(&models.Order{CustomerName: "x"})
	require.NoError(t, stg.Close())

	// late saves against a closed store must not panic on the writer queue
	stg.Save()
	require.NoError(t, stg.Flush())
	require.NoError(t, stg.Close())
}

func TestConcurrentSavesDuringClose(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 25; i++ {
		path := filepath.Join(dir, fmt.Sprintf("data-%d.json", i))
		stg := openStore(t, path)
		stg.Order().Create(&models.Order{CustomerName: "x"})

		var wg sync.WaitGroup
		start := make(chan struct{})
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for k := 0; k < 20; k++ {
					stg.Save()
				}
			}()
		}
		close(start)
		require.NoError(t, stg.Close())
		wg.Wait()
	}
}

func TestLoadFallsBackToBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	stg := openStore(t, path)

	o := stg.Order().Create(&models.Order{CustomerName: "survivor"})
	require.NoError(t, stg.Flush())
	stg.Order().Create(&models.Order{CustomerName: "lost"})
	require.NoError(t, stg.Close())

	// corrupt the primary; the .bak sibling still holds the older state
	require.NoError(t, os.WriteFile(path, []byte("{ truncated"), 0o644))

	stg = openStore(t, path)
	defer func() { require.NoError(t, stg.Close()) }()

	loaded, err := stg.Order().GetByID(o.ID)
	require.NoError(t, err)
	assert.Equal(t, "survivor", loaded.CustomerName)
}

func TestLoadBothCorruptStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	require.NoError(t, os.WriteFile(path+".bak", []byte("also not json"), 0o644))

	stg := openStore(t, path)
	defer func() { require.NoError(t, stg.Close()) }()

	assert.Empty(t, stg.Order().All())
	assert.Equal(t, int64(1), stg.OrderCounter())
	assert.Equal(t, models.DefaultSettings(), stg.Settings())

	// the unreadable payload is preserved for inspection
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	found := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "data.json.corrupt-") {
			found = true
		}
	}
	assert.True(t, found, "corrupt dump should be written next to the data file")
}

func TestStaleSessionsDroppedOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	stg := openStore(t, path)

	stg.Driver().Create(&models.Driver{ID: 7, Name: "Rith", Status: models.DriverBusy})
	o := stg.Order().Create(&models.Order{CustomerName: "x", Status: models.StatusPickedUp})

	now := time.Now()
	// live session bound to existing driver and order
	stg.Session().Append(&models.Session{
		ID:        models.NewSessionID(7, o.ID, now),
		DriverID:  7,
		OrderID:   o.ID,
		StartedAt: now,
		ExpiresAt: now.Add(30 * time.Minute),
	})
	// expired session
	stg.Session().Append(&models.Session{
		ID:        models.NewSessionID(7, o.ID, now.Add(-time.Hour)),
		DriverID:  7,
		OrderID:   o.ID,
		StartedAt: now.Add(-time.Hour),
		ExpiresAt: now.Add(-30 * time.Minute),
	})
	// session for a driver that no longer exists
	stg.Session().Append(&models.Session{
		ID:        models.NewSessionID(99, o.ID, now),
		DriverID:  99,
		OrderID:   o.ID,
		StartedAt: now,
		ExpiresAt: now.Add(30 * time.Minute),
	})
	require.NoError(t, stg.Close())

	stg = openStore(t, path)
	defer func() { require.NoError(t, stg.Close()) }()

	sessions := stg.Session().All()
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(7), sessions[0].DriverID)
	assert.True(t, sessions[0].ActiveAt(time.Now()))
}

func TestSetOrderCounter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	stg := openStore(t, path)
	defer func() { require.NoError(t, stg.Close()) }()

	stg.SetOrderCounter(500)
	o := stg.Order().Create(&models.Order{CustomerName: "x"})
	assert.Equal(t, int64(500), o.ID)
	assert.Equal(t, int64(501), stg.OrderCounter())
}
