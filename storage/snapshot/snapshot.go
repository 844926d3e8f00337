// Package snapshot persists the whole entity registry as one JSON document.
// Writes are queued through a single worker so they never interleave, each
// write goes through a temp file and an atomic rename, and the previous good
// file is kept as a .bak sibling for corruption recovery.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"courierbot/pkg/logger"
	"courierbot/pkg/models"
	"courierbot/storage"
)

// Document is the durable snapshot: every registry plus counters and settings.
type Document struct {
	Orders         []*models.Order        `json:"orders"`
	Drivers        []*models.Driver       `json:"drivers"`
	Customers      []*models.Customer     `json:"customers"`
	Sessions       []*models.Session      `json:"sessions"`
	QRCodes        []*models.QRCode       `json:"qrCodes"`
	ShiftProfiles  []*models.ShiftProfile `json:"shiftProfiles"`
	OrderCounter   int64                  `json:"orderCounter"`
	ProfileCounter int64                  `json:"profileCounter"`
	Settings       models.Settings        `json:"settings"`
}

type saveReq struct {
	data []byte
	done chan error
}

type Store struct {
	mu  sync.Mutex
	doc Document

	path string
	log  logger.ILogger

	saveCh  chan saveReq
	stopped chan struct{}
	closed  bool
}

// New opens the snapshot at path, falling back to the .bak sibling when the
// primary is corrupt and to empty state when both are unreadable. Sessions
// referencing missing entities are dropped before the store is handed out.
func New(path string, log logger.ILogger) (storage.IStorage, error) {
	s := &Store{
		path: path,
		log:  log,
		doc: Document{
			OrderCounter:   1,
			ProfileCounter: 1,
			Settings:       models.DefaultSettings(),
		},
		saveCh:  make(chan saveReq, 64),
		stopped: make(chan struct{}),
	}
	s.load()
	go s.run()

	if dropped := s.Session().DropInvalid(time.Now()); dropped > 0 {
		s.log.Info("dropped stale sessions on load", logger.Int("count", dropped))
		s.Save()
	}
	return s, nil
}

func (s *Store) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Error("failed to read data file", logger.Error(err))
		}
		return
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		bak, bakErr := os.ReadFile(s.path + ".bak")
		if bakErr == nil && json.Unmarshal(bak, &doc) == nil {
			s.log.Warning("primary data file corrupted, loaded from backup",
				logger.String("backup", s.path+".bak"))
		} else {
			dump := fmt.Sprintf("%s.corrupt-%d.json", s.path, time.Now().UnixMilli())
			if dumpErr := os.WriteFile(dump, raw, 0o644); dumpErr == nil {
				s.log.Error("failed to load data, corrupt dump written",
					logger.String("dump", dump), logger.Error(err))
			} else {
				s.log.Error("failed to load data", logger.Error(err))
			}
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Orders = doc.Orders
	s.doc.Drivers = doc.Drivers
	s.doc.Customers = doc.Customers
	s.doc.Sessions = doc.Sessions
	s.doc.QRCodes = doc.QRCodes
	s.doc.ShiftProfiles = doc.ShiftProfiles
	if doc.OrderCounter > 0 {
		s.doc.OrderCounter = doc.OrderCounter
	}
	if doc.ProfileCounter > 0 {
		s.doc.ProfileCounter = doc.ProfileCounter
	}
	if doc.Settings.ArchiveDays > 0 {
		s.doc.Settings = doc.Settings
	}
	s.log.Info("loaded data", logger.String("file", s.path),
		logger.Int("orders", len(s.doc.Orders)), logger.Int("drivers", len(s.doc.Drivers)))
}

// run is the single writer. Requests are handled strictly in arrival order.
func (s *Store) run() {
	for req := range s.saveCh {
		err := s.writeSnapshot(req.data)
		if err != nil {
			s.log.Error("failed to save data", logger.Error(err))
		}
		if req.done != nil {
			req.done <- err
		}
	}
	close(s.stopped)
}

func (s *Store) writeSnapshot(data []byte) error {
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	// keep a backup of the previous good file, best effort; a rewrite of
	// identical content must not promote it into the backup slot
	if prev, err := os.ReadFile(s.path); err == nil && !bytes.Equal(prev, data) {
		_ = os.WriteFile(s.path+".bak", prev, 0o644)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (s *Store) marshal() []byte {
	data, err := json.MarshalIndent(&s.doc, "", "  ")
	if err != nil {
		// the document is plain structs and slices, this cannot happen
		s.log.Error("failed to marshal data", logger.Error(err))
		return nil
	}
	return data
}

// Save snapshots the current document and queues it for writing. The caller
// observes the in-memory mutation immediately; durability lags behind.
func (s *Store) Save() {
	// the queue send stays under the mutex so it cannot interleave with
	// Close closing the channel; the writer never takes this mutex
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	data := s.marshal()
	if data == nil {
		return
	}
	s.saveCh <- saveReq{data: data}
}

// Flush waits until every save queued so far has reached the disk.
func (s *Store) Flush() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	data := s.marshal()
	if data == nil {
		s.mu.Unlock()
		return nil
	}
	done := make(chan error, 1)
	s.saveCh <- saveReq{data: data, done: done}
	s.mu.Unlock()
	return <-done
}

// Close flushes pending writes and stops the writer.
func (s *Store) Close() error {
	err := s.Flush()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return err
	}
	s.closed = true
	close(s.saveCh)
	s.mu.Unlock()
	<-s.stopped
	return err
}

func (s *Store) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Settings
}

func (s *Store) UpdateSettings(fn func(*models.Settings)) {
	s.mu.Lock()
	fn(&s.doc.Settings)
	s.mu.Unlock()
	s.Save()
}

func (s *Store) OrderCounter() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.OrderCounter
}

func (s *Store) SetOrderCounter(n int64) {
	s.mu.Lock()
	s.doc.OrderCounter = n
	s.mu.Unlock()
	s.Save()
}

func (s *Store) Order() storage.IOrderStorage       { return &orderRepo{s} }
func (s *Store) Driver() storage.IDriverStorage     { return &driverRepo{s} }
func (s *Store) Customer() storage.ICustomerStorage { return &customerRepo{s} }
func (s *Store) Session() storage.ISessionStorage   { return &sessionRepo{s} }
func (s *Store) QR() storage.IQRStorage             { return &qrRepo{s} }
func (s *Store) Profile() storage.IProfileStorage   { return &profileRepo{s} }
