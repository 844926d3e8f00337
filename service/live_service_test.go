package service_test

import (
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierbot/pkg/models"
	"courierbot/service"
	"courierbot/storage"
)

// liveOrder sets up an assigned order with a customer and a structured
// destination the scheduler can measure against.
func liveOrder(t *testing.T, env *testEnv, driverID, customerID int64, mapLink string) *models.Order {
	t.Helper()
	env.onlineDriver(t, driverID, "Rith")
	cust := env.customer(t, customerID, "Dara")
	o := env.svc.Dispatch().Create(service.CreateOrderParams{
		CustomerName: "Dara",
		CustomerID:   &cust.ID,
		MapLink:      mapLink,
	})
	_, err := env.svc.Dispatch().Assign(o.ID)
	require.NoError(t, err)
	require.NoError(t, env.svc.Dispatch().Pickup(o.ID, driverID))
	return o
}

func TestStartRequiresExistingOrder(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Live().Start(7, 9999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOneActiveSessionPerDriver(t *testing.T) {
	env := newTestEnv(t)
	o1 := liveOrder(t, env, 7, 200, "location:11.60,104.99")
	o2 := env.svc.Dispatch().Create(service.CreateOrderParams{CustomerName: "Second"})

	sess1, err := env.svc.Live().Start(7, o1.ID)
	require.NoError(t, err)

	// a second start ends the first session rather than stacking
	sess2, err := env.svc.Live().Start(7, o2.ID)
	require.NoError(t, err)
	require.NotEqual(t, sess1.ID, sess2.ID)

	active, ok := env.stg.Session().ActiveForDriver(7, env.clk.Now())
	require.True(t, ok)
	assert.Equal(t, sess2.ID, active.ID)
	assert.Equal(t, o2.ID, active.OrderID)

	prev, err := env.stg.Session().Get(sess1.ID)
	require.NoError(t, err)
	assert.True(t, prev.Ended)
	require.NotNil(t, prev.EndedAt)
}

func TestUpdateLocationWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	liveOrder(t, env, 7, 200, "location:11.60,104.99")

	_, err := env.svc.Live().UpdateLocation(7, 11.55, 104.92)
	assert.ErrorIs(t, err, service.ErrNoActiveSession)
}

func TestUpdateLocationSlidesExpiry(t *testing.T) {
	env := newTestEnv(t)
	// destination kilometers away so proximity never triggers
	o := liveOrder(t, env, 7, 200, "location:11.60,104.99")

	sess, err := env.svc.Live().Start(7, o.ID)
	require.NoError(t, err)
	startExpiry := sess.ExpiresAt

	env.clk.Add(20 * time.Minute)
	updated, err := env.svc.Live().UpdateLocation(7, 11.55, 104.92)
	require.NoError(t, err)
	assert.True(t, updated.ExpiresAt.After(startExpiry))

	// 40 minutes after start the un-slid session would be dead; the update
	// at minute 20 pushed expiry to minute 50
	env.clk.Add(20 * time.Minute)
	_, ok := env.stg.Session().ActiveForDriver(7, env.clk.Now())
	assert.True(t, ok)

	// past the slid deadline the timer fires and ends the session
	env.clk.Add(11 * time.Minute)
	require.Eventually(t, func() bool {
		got, err := env.stg.Session().Get(sess.ID)
		return err == nil && got.Ended
	}, 2*time.Second, 10*time.Millisecond)

	_, ok = env.stg.Session().ActiveForDriver(7, env.clk.Now())
	assert.False(t, ok)
}

func TestUpdateLocationForwardsToCustomer(t *testing.T) {
	env := newTestEnv(t)
	o := liveOrder(t, env, 7, 200, "location:11.60,104.99")

	_, err := env.svc.Live().Start(7, o.ID)
	require.NoError(t, err)
	_, err = env.svc.Live().UpdateLocation(7, 11.55, 104.92)
	require.NoError(t, err)

	// the position reaches the customer immediately
	assert.GreaterOrEqual(t, env.gw.locationCount(200), 1)

	drv, err := env.stg.Driver().Get(7)
	require.NoError(t, err)
	require.NotNil(t, drv.LastKnown)
	assert.Equal(t, 11.55, drv.LastKnown.Latitude)
}

func TestLocationUpdatesDuringForwarding(t *testing.T) {
	env := newTestEnv(t)
	o := liveOrder(t, env, 7, 200, "location:11.60,104.99")

	sess, err := env.svc.Live().Start(7, o.ID)
	require.NoError(t, err)
	_, err = env.svc.Live().UpdateLocation(7, 11.55, 104.92)
	require.NoError(t, err)

	// driver positions stream in while the forwarder re-sends on its ticker
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, uerr := env.svc.Live().UpdateLocation(7, 11.55+float64(i)*1e-6, 104.92)
			if uerr != nil {
				return
			}
		}
	}()
	for i := 0; i < 20; i++ {
		env.clk.Add(15 * time.Second)
	}
	wg.Wait()

	got, err := env.stg.Session().Get(sess.ID)
	require.NoError(t, err)
	assert.False(t, got.Ended)
	require.NotNil(t, got.LastLocation)
	assert.InDelta(t, 11.55, got.LastLocation.Latitude, 1e-3)
	assert.GreaterOrEqual(t, env.gw.locationCount(200), 50)
}

func TestProximityAutoArrival(t *testing.T) {
	env := newTestEnv(t)
	o := liveOrder(t, env, 7, 200, "location:11.5500,104.9200")

	_, err := env.svc.Live().Start(7, o.ID)
	require.NoError(t, err)

	// ~62m out, no arrival yet
	_, err = env.svc.Live().UpdateLocation(7, 11.5504, 104.9204)
	require.NoError(t, err)
	loaded, _ := env.stg.Order().GetByID(o.ID)
	assert.Equal(t, models.StatusPickedUp, loaded.Status)

	// ~15m out, inside the radius
	_, err = env.svc.Live().UpdateLocation(7, 11.5501, 104.9201)
	require.NoError(t, err)
	loaded, _ = env.stg.Order().GetByID(o.ID)
	assert.Equal(t, models.StatusArrived, loaded.Status)
	assert.Equal(t, 1, env.gw.textCount(testAdminID, "auto-arrived"))

	// arriving ends the live session
	_, ok := env.stg.Session().ActiveForDriver(7, env.clk.Now())
	assert.False(t, ok)

	// a fresh session with another in-range update does not re-fire
	env.clk.Add(time.Second)
	_, err = env.svc.Live().Start(7, o.ID)
	require.NoError(t, err)
	_, err = env.svc.Live().UpdateLocation(7, 11.5501, 104.9201)
	require.NoError(t, err)
	loaded, _ = env.stg.Order().GetByID(o.ID)
	assert.Equal(t, models.StatusArrived, loaded.Status)
	assert.Equal(t, 1, env.gw.textCount(testAdminID, "auto-arrived"))
}

// Full pass over one order: payment arithmetic verified from the durable
// document, then the approach sequence that auto-arrives it.
func TestOrderEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	o := liveOrder(t, env, 7, 200, "location:11.5500,104.9200")

	require.NoError(t, env.svc.Dispatch().SetTotal(o.ID, 12.50))
	require.NoError(t, env.svc.Dispatch().SetGivenCash(o.ID, 20))
	require.NoError(t, env.stg.Flush())

	raw, err := os.ReadFile(env.path)
	require.NoError(t, err)
	var doc struct {
		Orders []*models.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc.Orders, 1)
	require.NotNil(t, doc.Orders[0].ChangeCash)
	assert.InDelta(t, 7.50, *doc.Orders[0].ChangeCash, 0.001)

	_, err = env.svc.Live().Start(7, o.ID)
	require.NoError(t, err)

	_, err = env.svc.Live().UpdateLocation(7, 11.5504, 104.9204)
	require.NoError(t, err)
	loaded, _ := env.stg.Order().GetByID(o.ID)
	assert.Equal(t, models.StatusPickedUp, loaded.Status)

	_, err = env.svc.Live().UpdateLocation(7, 11.5501, 104.9201)
	require.NoError(t, err)
	loaded, _ = env.stg.Order().GetByID(o.ID)
	assert.Equal(t, models.StatusArrived, loaded.Status)
}

func TestStopEndsSession(t *testing.T) {
	env := newTestEnv(t)
	o := liveOrder(t, env, 7, 200, "location:11.60,104.99")

	sess, err := env.svc.Live().Start(7, o.ID)
	require.NoError(t, err)

	// wrong order id leaves the session alone
	assert.False(t, env.svc.Live().Stop(7, o.ID+1))
	assert.True(t, env.svc.Live().Stop(7, o.ID))

	got, err := env.stg.Session().Get(sess.ID)
	require.NoError(t, err)
	assert.True(t, got.Ended)

	// nothing left to stop
	assert.False(t, env.svc.Live().Stop(7, o.ID))
}

func TestRoutePreview(t *testing.T) {
	env := newTestEnv(t)
	o := liveOrder(t, env, 7, 200, "location:11.5500,104.9200")

	// no position known yet
	preview, err := env.svc.Live().Route(7, o.ID)
	require.NoError(t, err)
	assert.False(t, preview.Available)

	_, err = env.svc.Live().Start(7, o.ID)
	require.NoError(t, err)
	_, err = env.svc.Live().UpdateLocation(7, 11.5504, 104.9204)
	require.NoError(t, err)

	preview, err = env.svc.Live().Route(7, o.ID)
	require.NoError(t, err)
	require.True(t, preview.Available)
	assert.InDelta(t, 62, preview.DistanceMeters, 10)
	assert.Greater(t, preview.ETASeconds, 0)
	assert.Contains(t, preview.DirectionsURL, "google.com/maps/dir")

	// free-text destination cannot be routed
	noDest := env.svc.Dispatch().Create(service.CreateOrderParams{CustomerName: "x", MapLink: "behind the market"})
	preview, err = env.svc.Live().Route(7, noDest.ID)
	require.NoError(t, err)
	assert.False(t, preview.Available)
}
