package service

import (
	"github.com/benbjohnson/clock"

	"courierbot/pkg/gateway"
	"courierbot/pkg/lock"
	"courierbot/pkg/logger"
	"courierbot/storage"
)

type IServiceManager interface {
	Dispatch() DispatchService
	Live() LiveService
}

type service struct {
	dispatchService *dispatchService
	liveService     *liveService
}

// New wires the order lifecycle engine and the live-location scheduler
// together: arriving stops the driver's session, and a close-enough location
// update auto-arrives the order.
func New(stg storage.IStorage, gw gateway.Gateway, locker *lock.AssignLocker, adminID int64, clk clock.Clock, log logger.ILogger) IServiceManager {
	d := newDispatchService(stg, gw, locker, adminID, log)
	l := newLiveService(stg, gw, adminID, clk, log)
	d.live = l
	l.dispatch = d
	return &service{
		dispatchService: d,
		liveService:     l,
	}
}

func (s *service) Dispatch() DispatchService {
	return s.dispatchService
}

func (s *service) Live() LiveService {
	return s.liveService
}
