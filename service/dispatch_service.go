package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"courierbot/pkg/gateway"
	"courierbot/pkg/i18n"
	"courierbot/pkg/lock"
	"courierbot/pkg/logger"
	"courierbot/pkg/models"
	"courierbot/storage"
)

var (
	// ErrInvalidTransition marks a lifecycle request that is a no-op for the
	// order's current status. Bad input from a chat UI is normal; callers
	// report it back to the user instead of failing.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNoDriver means no driver was online to take the order; it stays
	// queued in "new".
	ErrNoDriver = errors.New("no available driver")
)

// CreateOrderParams carries the optional initial fields of a new order.
type CreateOrderParams struct {
	CustomerName string
	CustomerID   *int64
	MapLink      string
	Items        string
}

// DispatchService is the order lifecycle engine: it owns every legal status
// transition, the driver-status side effects, and the operator field-edit
// flow.
type DispatchService interface {
	Create(p CreateOrderParams) *models.Order
	Assign(orderID int64) (*models.Driver, error)
	Pickup(orderID, driverID int64) error
	Arrive(orderID, driverID int64) error
	Complete(orderID int64) error
	Cancel(orderID int64) error
	Archive(orderID int64) error
	ArchiveOlderThan(days int) int
	Delete(orderID int64) error
	RecordFeedback(orderID int64, stars int) error

	SetPaymentMethod(orderID int64, method string) error
	MarkPaid(orderID int64) error
	SetTotal(orderID int64, amount float64) error
	SetGivenCash(orderID int64, amount float64) error
	AppendItems(orderID int64, text string) error
	SetMapLink(orderID int64, link string) error
	SetCustomer(orderID int64, customerID *int64, name string) error

	BeginEdit(operatorID, orderID int64, field EditField)
	PendingEdit(operatorID int64) (EditToken, bool)
	ClearEdit(operatorID int64)
	ApplyEditText(operatorID int64, text string) (EditToken, bool, error)
	ApplyEditLocation(operatorID int64, lat, lon float64) (EditToken, bool, error)
	ApplyEditContact(operatorID, contactUserID int64, name string) (EditToken, bool, error)
	ApplyEditMedia(operatorID int64, media *models.Media) (EditToken, bool, error)
}

type dispatchService struct {
	stg     storage.IStorage
	gw      gateway.Gateway
	locker  *lock.AssignLocker
	adminID int64
	log     logger.ILogger
	live    *liveService

	editMu  sync.Mutex
	pending map[int64]EditToken
}

func newDispatchService(stg storage.IStorage, gw gateway.Gateway, locker *lock.AssignLocker, adminID int64, log logger.ILogger) *dispatchService {
	return &dispatchService{
		stg:     stg,
		gw:      gw,
		locker:  locker,
		adminID: adminID,
		log:     log,
		pending: make(map[int64]EditToken),
	}
}

func (s *dispatchService) Create(p CreateOrderParams) *models.Order {
	o := &models.Order{
		Status:       models.StatusNew,
		CustomerName: p.CustomerName,
		CustomerID:   p.CustomerID,
		MapLink:      p.MapLink,
		Items:        p.Items,
	}
	return s.stg.Order().Create(o)
}

// Assign binds the first online driver to a "new" order under the
// cross-process lock. Lock contention means another instance is already
// assigning this order; the caller backs off.
func (s *dispatchService) Assign(orderID int64) (*models.Driver, error) {
	o, err := s.stg.Order().GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != models.StatusNew {
		return nil, ErrInvalidTransition
	}

	release, err := s.locker.Acquire(orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	drv, ok := s.stg.Driver().FirstOnline()
	if !ok {
		// keep the order queued, make sure no stale driver binding remains
		_ = s.stg.Order().Update(orderID, func(o *models.Order) {
			o.DriverID = nil
			o.DriverName = ""
			o.DriverStatus = ""
			o.DriverAssigned = false
		})
		return nil, ErrNoDriver
	}

	_ = s.stg.Order().Update(orderID, func(o *models.Order) {
		o.Status = models.StatusAssigned
		o.DriverAssigned = true
		o.DriverID = &drv.ID
		o.DriverName = drv.Name
		o.DriverStatus = string(models.DriverAssigned)
	})
	_ = s.stg.Driver().Update(drv.ID, func(d *models.Driver) {
		d.Status = models.DriverAssigned
	})

	s.send(drv.ID, fmt.Sprintf("Order for you:\n%s", s.summarize(orderID)))
	return drv, nil
}

func (s *dispatchService) Pickup(orderID, driverID int64) error {
	o, err := s.stg.Order().GetByID(orderID)
	if err != nil {
		return err
	}
	if o.Status != models.StatusAssigned {
		return ErrInvalidTransition
	}
	_ = s.stg.Order().Update(orderID, func(o *models.Order) {
		o.Status = models.StatusPickedUp
		o.DriverID = &driverID
		o.DriverStatus = string(models.DriverBusy)
	})
	_ = s.stg.Driver().Update(driverID, func(d *models.Driver) {
		d.Status = models.DriverBusy
	})
	if o.CustomerID != nil {
		s.send(*o.CustomerID, i18n.T(s.langOf(*o.CustomerID), i18n.PickedUpNotify, orderID))
	}
	return nil
}

// Arrive is the manual transition pressed by the driver; it also ends the
// driver's live session for this order.
func (s *dispatchService) Arrive(orderID, driverID int64) error {
	o, err := s.stg.Order().GetByID(orderID)
	if err != nil {
		return err
	}
	if o.Status != models.StatusPickedUp {
		return ErrInvalidTransition
	}
	s.markArrived(o, driverID)
	if o.CustomerID != nil {
		s.send(*o.CustomerID, i18n.T(s.langOf(*o.CustomerID), i18n.ArrivedNotify, orderID))
	}
	return nil
}

// autoArrive is the proximity-triggered variant: any non-terminal,
// not-yet-arrived order transitions, and driver plus operator hear about it.
// Repeated in-range updates are no-ops.
func (s *dispatchService) autoArrive(orderID, driverID int64, distanceM float64) bool {
	o, err := s.stg.Order().GetByID(orderID)
	if err != nil {
		return false
	}
	if o.Status == models.StatusArrived || o.Status.Terminal() {
		return false
	}
	s.markArrived(o, driverID)
	if o.CustomerID != nil {
		s.send(*o.CustomerID, i18n.T(s.langOf(*o.CustomerID), i18n.ArrivedNotify, orderID))
	}
	s.send(driverID, fmt.Sprintf("Auto-marked order #%04d as arrived (within %.0fm).", orderID, distanceM))
	s.notifyAdmin(fmt.Sprintf("Order #%04d auto-arrived (driver within %.0fm).", orderID, distanceM))
	return true
}

func (s *dispatchService) markArrived(o *models.Order, driverID int64) {
	if s.live != nil {
		s.live.Stop(driverID, o.ID)
	}
	_ = s.stg.Order().Update(o.ID, func(o *models.Order) {
		o.Status = models.StatusArrived
	})
}

func (s *dispatchService) Complete(orderID int64) error {
	o, err := s.stg.Order().GetByID(orderID)
	if err != nil {
		return err
	}
	if o.Status.Terminal() {
		return ErrInvalidTransition
	}
	_ = s.stg.Order().Update(orderID, func(o *models.Order) {
		o.Status = models.StatusCompleted
		o.DriverStatus = string(models.DriverOnline)
	})
	if o.DriverID != nil {
		_ = s.stg.Driver().Update(*o.DriverID, func(d *models.Driver) {
			d.Status = models.DriverOnline
		})
	}
	if o.CustomerID != nil {
		if err := s.gw.PromptFeedback(*o.CustomerID, orderID); err != nil {
			s.log.Error("failed to prompt feedback", logger.Int64("order_id", orderID), logger.Error(err))
		}
	}
	return nil
}

func (s *dispatchService) Cancel(orderID int64) error {
	o, err := s.stg.Order().GetByID(orderID)
	if err != nil {
		return err
	}
	if o.Status.Terminal() {
		return ErrInvalidTransition
	}
	_ = s.stg.Order().Update(orderID, func(o *models.Order) {
		o.Status = models.StatusCancelled
	})
	s.clearEditsFor(orderID)
	return nil
}

func (s *dispatchService) Archive(orderID int64) error {
	return s.stg.Order().Update(orderID, func(o *models.Order) {
		o.Status = models.StatusArchived
	})
}

// ArchiveOlderThan retires every non-archived order older than the retention
// window and returns how many were touched.
func (s *dispatchService) ArchiveOlderThan(days int) int {
	cutoff := time.Now().AddDate(0, 0, -days)
	n := 0
	for _, o := range s.stg.Order().All() {
		if o.Status != models.StatusArchived && o.CreatedAt.Before(cutoff) {
			_ = s.stg.Order().Update(o.ID, func(o *models.Order) {
				o.Status = models.StatusArchived
			})
			n++
		}
	}
	return n
}

func (s *dispatchService) Delete(orderID int64) error {
	s.clearEditsFor(orderID)
	return s.stg.Order().Delete(orderID)
}

func (s *dispatchService) RecordFeedback(orderID int64, stars int) error {
	if stars < 1 || stars > 5 {
		return fmt.Errorf("feedback out of range: %d", stars)
	}
	o, err := s.stg.Order().GetByID(orderID)
	if err != nil {
		return err
	}
	_ = s.stg.Order().Update(orderID, func(o *models.Order) {
		o.Feedback = &stars
	})
	if o.DriverID != nil {
		name := o.CustomerName
		if name == "" {
			name = "Customer"
		}
		s.send(*o.DriverID, fmt.Sprintf("%s gave you %d⭐", name, stars))
	}
	s.notifyAdmin(fmt.Sprintf("Feedback: %d for order #%04d", stars, orderID))
	return nil
}

func (s *dispatchService) SetPaymentMethod(orderID int64, method string) error {
	return s.stg.Order().Update(orderID, func(o *models.Order) {
		o.PaymentMethod = method
		if method == models.PaymentCash {
			o.GivenCash = nil
			o.ChangeCash = nil
		}
	})
}

func (s *dispatchService) MarkPaid(orderID int64) error {
	return s.stg.Order().Update(orderID, func(o *models.Order) {
		o.PaidStatus = models.PaidStatusPaid
	})
}

func (s *dispatchService) SetTotal(orderID int64, amount float64) error {
	return s.stg.Order().Update(orderID, func(o *models.Order) {
		o.TotalAmount = &amount
		recomputeChange(o)
	})
}

func (s *dispatchService) SetGivenCash(orderID int64, amount float64) error {
	return s.stg.Order().Update(orderID, func(o *models.Order) {
		o.GivenCash = &amount
		recomputeChange(o)
	})
}

// recomputeChange keeps change = given − total whenever both are set; the
// change stays unset while the total is unknown.
func recomputeChange(o *models.Order) {
	if o.TotalAmount != nil && o.GivenCash != nil {
		change := *o.GivenCash - *o.TotalAmount
		o.ChangeCash = &change
	} else {
		o.ChangeCash = nil
	}
}

func (s *dispatchService) AppendItems(orderID int64, text string) error {
	return s.stg.Order().Update(orderID, func(o *models.Order) {
		if o.Items != "" {
			o.Items += "\n"
		}
		o.Items += text
	})
}

func (s *dispatchService) SetMapLink(orderID int64, link string) error {
	return s.stg.Order().Update(orderID, func(o *models.Order) {
		o.MapLink = link
	})
}

func (s *dispatchService) SetCustomer(orderID int64, customerID *int64, name string) error {
	return s.stg.Order().Update(orderID, func(o *models.Order) {
		if name != "" {
			o.CustomerName = name
		}
		o.CustomerID = customerID
	})
}

// summarize renders a plain-text order card for driver notifications.
func (s *dispatchService) summarize(orderID int64) string {
	o, err := s.stg.Order().GetByID(orderID)
	if err != nil {
		return fmt.Sprintf("#%04d", orderID)
	}
	total := ""
	if o.TotalAmount != nil {
		total = fmt.Sprintf("%.2f", *o.TotalAmount)
	}
	return fmt.Sprintf("%s #%04d\n👤 %s\n📍 %s\n💲 %s\n📃 %s",
		o.Status.Emoji(), o.ID, o.CustomerName, o.MapLink, total, o.Items)
}

func (s *dispatchService) langOf(userID int64) string {
	if d, err := s.stg.Driver().Get(userID); err == nil && d.Lang != "" {
		return d.Lang
	}
	if c, err := s.stg.Customer().Get(userID); err == nil && c.Lang != "" {
		return c.Lang
	}
	return i18n.LangEN
}

func (s *dispatchService) send(userID int64, text string) {
	if err := s.gw.SendText(userID, text); err != nil {
		s.log.Error("failed to send notification", logger.Int64("user_id", userID), logger.Error(err))
	}
}

func (s *dispatchService) notifyAdmin(text string) {
	if s.adminID == 0 {
		s.log.Info("no admin configured, dropping admin notice", logger.String("text", text))
		return
	}
	s.send(s.adminID, text)
}
