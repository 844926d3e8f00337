package storage

import (
	"errors"
	"time"

	"courierbot/pkg/models"
)

// ErrNotFound is returned when a lookup misses. A missing entity is a normal
// outcome of stale chat input and handlers report it back, not crash on it.
var ErrNotFound = errors.New("not found")

// IStorage is the entity registry plus its durable snapshot. All registries
// live in memory; Save queues a write of the whole document and Flush waits
// until every queued write has hit the disk.
type IStorage interface {
	Order() IOrderStorage
	Driver() IDriverStorage
	Customer() ICustomerStorage
	Session() ISessionStorage
	QR() IQRStorage
	Profile() IProfileStorage

	Settings() models.Settings
	UpdateSettings(fn func(*models.Settings))

	OrderCounter() int64
	SetOrderCounter(n int64)

	Save()
	Flush() error
	Close() error
}

type IOrderStorage interface {
	// Create assigns the next counter value, fills defaults and persists.
	Create(o *models.Order) *models.Order
	GetByID(id int64) (*models.Order, error)
	All() []*models.Order
	ByStatus(statuses ...models.OrderStatus) []*models.Order
	ActiveForDriver(driverID int64) []*models.Order
	CompletedCountForDriver(driverID int64) int
	// LatestWhere walks orders newest-first and returns the first match.
	LatestWhere(match func(*models.Order) bool) (*models.Order, bool)
	// Update mutates the order under the registry lock and persists.
	Update(id int64, fn func(*models.Order)) error
	Delete(id int64) error
	MaxID() int64
}

type IDriverStorage interface {
	Create(d *models.Driver) *models.Driver
	Get(id int64) (*models.Driver, error)
	All() []*models.Driver
	Connected() []*models.Driver
	FirstOnline() (*models.Driver, bool)
	Update(id int64, fn func(*models.Driver)) error
	Delete(id int64) error
}

type ICustomerStorage interface {
	GetOrCreate(id int64, name, username string) *models.Customer
	Get(id int64) (*models.Customer, error)
	ByUsername(username string) (*models.Customer, bool)
	Update(id int64, fn func(*models.Customer)) error
}

type ISessionStorage interface {
	Append(s *models.Session)
	Get(id string) (*models.Session, error)
	ActiveForDriver(driverID int64, now time.Time) (*models.Session, bool)
	All() []*models.Session
	Update(id string, fn func(*models.Session)) error
	// EndExpired marks every session past its expiry as ended and returns them.
	EndExpired(now time.Time) []*models.Session
	// DropInvalid removes sessions that are ended, expired, or reference a
	// missing driver/order/customer. Returns how many were dropped.
	DropInvalid(now time.Time) int
}

type IQRStorage interface {
	Add(q *models.QRCode)
	Get(id string) (*models.QRCode, error)
	All() []*models.QRCode
	Update(id string, fn func(*models.QRCode)) error
	Delete(id string) error
}

type IProfileStorage interface {
	// Create assigns the next profile counter value and persists.
	Create(name, pin string) *models.ShiftProfile
	Get(id int64) (*models.ShiftProfile, error)
	All() []*models.ShiftProfile
	Update(id int64, fn func(*models.ShiftProfile)) error
}
