package service_test

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"courierbot/pkg/lock"
	"courierbot/pkg/logger"
	"courierbot/pkg/models"
	"courierbot/service"
	"courierbot/storage"
	"courierbot/storage/snapshot"
)

const testAdminID int64 = 1000

// recordGateway captures every outbound notification so tests can assert on
// who was told what.
type recordGateway struct {
	mu        sync.Mutex
	texts     map[int64][]string
	locations map[int64][]models.LatLon
	prompts   map[int64][]int64
}

func newRecordGateway() *recordGateway {
	return &recordGateway{
		texts:     make(map[int64][]string),
		locations: make(map[int64][]models.LatLon),
		prompts:   make(map[int64][]int64),
	}
}

func (g *recordGateway) SendText(userID int64, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts[userID] = append(g.texts[userID], text)
	return nil
}

func (g *recordGateway) SendLocation(userID int64, lat, lon float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.locations[userID] = append(g.locations[userID], models.LatLon{Latitude: lat, Longitude: lon})
	return nil
}

func (g *recordGateway) PromptFeedback(userID, orderID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts[userID] = append(g.prompts[userID], orderID)
	return nil
}

func (g *recordGateway) textCount(userID int64, substr string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, text := range g.texts[userID] {
		if strings.Contains(text, substr) {
			n++
		}
	}
	return n
}

func (g *recordGateway) locationCount(userID int64) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locations[userID])
}

func (g *recordGateway) promptsFor(userID int64) []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int64(nil), g.prompts[userID]...)
}

type testEnv struct {
	stg  storage.IStorage
	gw   *recordGateway
	clk  *clock.Mock
	svc  service.IServiceManager
	path string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.New("service-test", "error")
	path := filepath.Join(t.TempDir(), "data.json")
	stg, err := snapshot.New(path, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stg.Close() })

	gw := newRecordGateway()
	clk := clock.NewMock()
	locker := lock.NewAssignLocker(t.TempDir())
	svc := service.New(stg, gw, locker, testAdminID, clk, log)
	t.Cleanup(svc.Live().Shutdown)

	return &testEnv{stg: stg, gw: gw, clk: clk, svc: svc, path: path}
}

func (e *testEnv) onlineDriver(t *testing.T, id int64, name string) *models.Driver {
	t.Helper()
	return e.stg.Driver().Create(&models.Driver{ID: id, Name: name, Status: models.DriverOnline})
}

func (e *testEnv) customer(t *testing.T, id int64, name string) *models.Customer {
	t.Helper()
	return e.stg.Customer().GetOrCreate(id, name, "")
}
