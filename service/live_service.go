package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"courierbot/pkg/gateway"
	"courierbot/pkg/geo"
	"courierbot/pkg/i18n"
	"courierbot/pkg/logger"
	"courierbot/pkg/models"
	"courierbot/storage"
)

const (
	sessionTTL   = 30 * time.Minute
	forwardEvery = 15 * time.Second
)

// ErrNoActiveSession means the driver sent a location without an open live
// session; the update is dropped.
var ErrNoActiveSession = errors.New("no active live session")

// RoutePreview is a driver-facing summary of the remaining leg to the
// order's destination.
type RoutePreview struct {
	Available      bool
	Origin         models.LatLon
	Destination    models.LatLon
	DistanceMeters float64
	ETASeconds     int
	DirectionsURL  string
}

// LiveService runs the live-location sessions: a session lives 30 minutes
// past the last location update, forwards the driver's position to the
// customer every 15 seconds, and auto-arrives the order when the driver gets
// within the arrival radius.
type LiveService interface {
	Start(driverID, orderID int64) (*models.Session, error)
	Stop(driverID, orderID int64) bool
	UpdateLocation(driverID int64, lat, lon float64) (*models.Session, error)
	Route(driverID, orderID int64) (RoutePreview, error)
	Rehydrate()
	Shutdown()
}

type sessionTimers struct {
	expiry      *clock.Timer
	forwardStop chan struct{}
}

type liveService struct {
	stg      storage.IStorage
	gw       gateway.Gateway
	adminID  int64
	clk      clock.Clock
	log      logger.ILogger
	dispatch *dispatchService

	mu     sync.Mutex
	timers map[string]*sessionTimers
}

func newLiveService(stg storage.IStorage, gw gateway.Gateway, adminID int64, clk clock.Clock, log logger.ILogger) *liveService {
	return &liveService{
		stg:     stg,
		gw:      gw,
		adminID: adminID,
		clk:     clk,
		log:     log,
		timers:  make(map[string]*sessionTimers),
	}
}

// Start opens a fresh session for the driver on the order, ending any session
// the driver already had open. A driver shares for at most one order at a
// time.
func (s *liveService) Start(driverID, orderID int64) (*models.Session, error) {
	if _, err := s.stg.Order().GetByID(orderID); err != nil {
		return nil, err
	}
	now := s.clk.Now()
	if prev, ok := s.stg.Session().ActiveForDriver(driverID, now); ok {
		s.end(prev.ID, false)
	}

	sess := &models.Session{
		ID:        models.NewSessionID(driverID, orderID, now),
		DriverID:  driverID,
		OrderID:   orderID,
		StartedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	}
	s.stg.Session().Append(sess)
	s.arm(sess.ID, sessionTTL)

	s.notifyCustomer(orderID, i18n.LiveStarted, s.driverName(driverID), sess.ExpiresAt.Format("15:04"))
	s.log.Info("live session started",
		logger.String("session_id", sess.ID),
		logger.Int64("driver_id", driverID),
		logger.Int64("order_id", orderID))
	return sess, nil
}

// Stop ends the driver's active session. When orderID is non-zero only a
// session for that order is stopped.
func (s *liveService) Stop(driverID, orderID int64) bool {
	sess, ok := s.stg.Session().ActiveForDriver(driverID, s.clk.Now())
	if !ok {
		return false
	}
	if orderID != 0 && sess.OrderID != orderID {
		return false
	}
	s.end(sess.ID, false)
	s.notifyCustomer(sess.OrderID, i18n.LiveStopped, s.driverName(driverID))
	return true
}

// UpdateLocation records a driver position: the session's expiry slides
// another 30 minutes out, the customer gets the position right away, and a
// close-enough position auto-arrives the order.
func (s *liveService) UpdateLocation(driverID int64, lat, lon float64) (*models.Session, error) {
	now := s.clk.Now()
	for _, expired := range s.stg.Session().EndExpired(now) {
		s.finishExpired(expired)
	}

	sess, ok := s.stg.Session().ActiveForDriver(driverID, now)
	if !ok {
		return nil, ErrNoActiveSession
	}

	loc := models.LatLon{Latitude: lat, Longitude: lon}
	expires := now.Add(sessionTTL)
	_ = s.stg.Session().Update(sess.ID, func(ss *models.Session) {
		ss.LastLocation = &loc
		ss.ExpiresAt = expires
	})
	// sess is the repo's copy, mirror the update for the caller
	sess.LastLocation = &loc
	sess.ExpiresAt = expires
	s.slide(sess.ID, sessionTTL)

	_ = s.stg.Driver().Update(driverID, func(d *models.Driver) {
		d.LastKnown = &loc
	})

	if o, err := s.stg.Order().GetByID(sess.OrderID); err == nil && o.CustomerID != nil {
		lang := s.customerLang(*o.CustomerID)
		if err := s.gw.SendLocation(*o.CustomerID, lat, lon); err != nil {
			s.log.Error("failed to forward location", logger.Int64("customer_id", *o.CustomerID), logger.Error(err))
		}
		s.send(*o.CustomerID, i18n.T(lang, i18n.LiveShared, s.driverName(driverID), expires.Format("15:04")))

		if dest, ok := o.Destination(); ok {
			dist := geo.HaversineMeters(lat, lon, dest.Latitude, dest.Longitude)
			if dist <= geo.ArrivalRadiusMeters && s.dispatch != nil {
				s.dispatch.autoArrive(sess.OrderID, driverID, dist)
			}
		}
	}

	return sess, nil
}

// Route computes the remaining leg from the driver's latest position to the
// order's destination.
func (s *liveService) Route(driverID, orderID int64) (RoutePreview, error) {
	o, err := s.stg.Order().GetByID(orderID)
	if err != nil {
		return RoutePreview{}, err
	}
	dest, ok := o.Destination()
	if !ok {
		return RoutePreview{}, nil
	}

	var origin *models.LatLon
	if sess, ok := s.stg.Session().ActiveForDriver(driverID, s.clk.Now()); ok && sess.LastLocation != nil {
		origin = sess.LastLocation
	} else if d, err := s.stg.Driver().Get(driverID); err == nil {
		origin = d.LastKnown
	}
	if origin == nil {
		return RoutePreview{}, nil
	}

	dist := geo.HaversineMeters(origin.Latitude, origin.Longitude, dest.Latitude, dest.Longitude)
	eta, _ := geo.ETASeconds(dist, geo.DefaultSpeedKmph)
	return RoutePreview{
		Available:      true,
		Origin:         *origin,
		Destination:    dest,
		DistanceMeters: dist,
		ETASeconds:     eta,
		DirectionsURL: fmt.Sprintf(
			"https://www.google.com/maps/dir/?api=1&origin=%f,%f&destination=%f,%f",
			origin.Latitude, origin.Longitude, dest.Latitude, dest.Longitude),
	}, nil
}

// Rehydrate re-arms timers for sessions that survived a restart. Sessions
// already past expiry were dropped at load time.
func (s *liveService) Rehydrate() {
	now := s.clk.Now()
	for _, sess := range s.stg.Session().All() {
		if !sess.ActiveAt(now) {
			continue
		}
		s.arm(sess.ID, sess.ExpiresAt.Sub(now))
		s.log.Info("rehydrated live session",
			logger.String("session_id", sess.ID),
			logger.Int64("driver_id", sess.DriverID))
	}
}

// Shutdown cancels every timer. Sessions stay persisted and come back via
// Rehydrate on the next start.
func (s *liveService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.expiry.Stop()
		close(t.forwardStop)
		delete(s.timers, id)
	}
}

// arm starts the expiry timer and the forwarding ticker for a session.
func (s *liveService) arm(sessionID string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.timers[sessionID]; ok {
		old.expiry.Stop()
		close(old.forwardStop)
	}
	t := &sessionTimers{
		expiry:      s.clk.AfterFunc(ttl, func() { s.expire(sessionID) }),
		forwardStop: make(chan struct{}),
	}
	s.timers[sessionID] = t
	go s.forwardLoop(sessionID, t.forwardStop)
}

// slide pushes the expiry timer out without restarting the forward loop.
func (s *liveService) slide(sessionID string, ttl time.Duration) {
	s.mu.Lock()
	t, ok := s.timers[sessionID]
	if ok {
		t.expiry.Stop()
		t.expiry = s.clk.AfterFunc(ttl, func() { s.expire(sessionID) })
	}
	s.mu.Unlock()
	if !ok {
		s.arm(sessionID, ttl)
	}
}

func (s *liveService) forwardLoop(sessionID string, stop chan struct{}) {
	ticker := s.clk.Ticker(forwardEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.forward(sessionID)
		}
	}
}

// forward re-sends the session's last known position to the customer.
func (s *liveService) forward(sessionID string) {
	sess, err := s.stg.Session().Get(sessionID)
	if err != nil || !sess.ActiveAt(s.clk.Now()) || sess.LastLocation == nil {
		return
	}
	o, err := s.stg.Order().GetByID(sess.OrderID)
	if err != nil || o.CustomerID == nil {
		return
	}
	if err := s.gw.SendLocation(*o.CustomerID, sess.LastLocation.Latitude, sess.LastLocation.Longitude); err != nil {
		s.log.Error("failed to forward location", logger.Int64("customer_id", *o.CustomerID), logger.Error(err))
	}
}

// expire fires from the expiry timer: the session ends and both sides hear
// the sharing is over.
func (s *liveService) expire(sessionID string) {
	sess, err := s.stg.Session().Get(sessionID)
	if err != nil || sess.Ended {
		s.cancelTimers(sessionID)
		return
	}
	s.end(sessionID, true)
	s.send(sess.DriverID, i18n.T(s.driverLang(sess.DriverID), i18n.LiveExpired))
	s.notifyCustomer(sess.OrderID, i18n.LiveEnded)
	s.log.Info("live session expired", logger.String("session_id", sessionID))
}

// finishExpired handles a session EndExpired already marked ended.
func (s *liveService) finishExpired(sess *models.Session) {
	s.cancelTimers(sess.ID)
	s.send(sess.DriverID, i18n.T(s.driverLang(sess.DriverID), i18n.LiveExpired))
	s.notifyCustomer(sess.OrderID, i18n.LiveEnded)
}

// end marks a session ended and cancels its timers.
func (s *liveService) end(sessionID string, alreadyExpired bool) {
	now := s.clk.Now()
	_ = s.stg.Session().Update(sessionID, func(sess *models.Session) {
		sess.Ended = true
		sess.EndedAt = &now
		if !alreadyExpired && sess.ExpiresAt.After(now) {
			sess.ExpiresAt = now
		}
	})
	s.cancelTimers(sessionID)
}

func (s *liveService) cancelTimers(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[sessionID]; ok {
		t.expiry.Stop()
		close(t.forwardStop)
		delete(s.timers, sessionID)
	}
}

func (s *liveService) notifyCustomer(orderID int64, key string, args ...interface{}) {
	o, err := s.stg.Order().GetByID(orderID)
	if err != nil || o.CustomerID == nil {
		return
	}
	s.send(*o.CustomerID, i18n.T(s.customerLang(*o.CustomerID), key, args...))
}

func (s *liveService) driverName(driverID int64) string {
	if d, err := s.stg.Driver().Get(driverID); err == nil && d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("Driver %d", driverID)
}

func (s *liveService) driverLang(driverID int64) string {
	if d, err := s.stg.Driver().Get(driverID); err == nil && d.Lang != "" {
		return d.Lang
	}
	return i18n.LangEN
}

func (s *liveService) customerLang(customerID int64) string {
	if c, err := s.stg.Customer().Get(customerID); err == nil && c.Lang != "" {
		return c.Lang
	}
	return i18n.LangEN
}

func (s *liveService) send(userID int64, text string) {
	if err := s.gw.SendText(userID, text); err != nil {
		s.log.Error("failed to send notification", logger.Int64("user_id", userID), logger.Error(err))
	}
}
