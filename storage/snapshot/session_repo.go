package snapshot

import (
	"time"

	"courierbot/pkg/models"
	"courierbot/storage"
)

type sessionRepo struct {
	s *Store
}

func (r *sessionRepo) Append(sess *models.Session) {
	r.s.mu.Lock()
	r.s.doc.Sessions = append(r.s.doc.Sessions, sess)
	r.s.mu.Unlock()
	r.s.Save()
}

// Get returns a copy; sessions are shared with the forwarding goroutines, so
// readers never see the stored struct and all mutation goes through Update.
func (r *sessionRepo) Get(id string) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sess := range r.s.doc.Sessions {
		if sess.ID == id {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *sessionRepo) ActiveForDriver(driverID int64, now time.Time) (*models.Session, bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sess := range r.s.doc.Sessions {
		if sess.DriverID == driverID && sess.ActiveAt(now) {
			cp := *sess
			return &cp, true
		}
	}
	return nil, false
}

func (r *sessionRepo) All() []*models.Session {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Session, 0, len(r.s.doc.Sessions))
	for _, sess := range r.s.doc.Sessions {
		cp := *sess
		out = append(out, &cp)
	}
	return out
}

func (r *sessionRepo) Update(id string, fn func(*models.Session)) error {
	r.s.mu.Lock()
	var found *models.Session
	for _, sess := range r.s.doc.Sessions {
		if sess.ID == id {
			found = sess
			break
		}
	}
	if found == nil {
		r.s.mu.Unlock()
		return storage.ErrNotFound
	}
	fn(found)
	r.s.mu.Unlock()
	r.s.Save()
	return nil
}

func (r *sessionRepo) EndExpired(now time.Time) []*models.Session {
	r.s.mu.Lock()
	var ended []*models.Session
	for _, sess := range r.s.doc.Sessions {
		if !sess.Ended && !sess.ExpiresAt.After(now) {
			sess.Ended = true
			at := now
			sess.EndedAt = &at
			cp := *sess
			ended = append(ended, &cp)
		}
	}
	r.s.mu.Unlock()
	if len(ended) > 0 {
		r.s.Save()
	}
	return ended
}

func (r *sessionRepo) DropInvalid(now time.Time) int {
	r.s.mu.Lock()
	valid := r.s.doc.Sessions[:0]
	dropped := 0
	for _, sess := range r.s.doc.Sessions {
		if r.sessionValid(sess, now) {
			valid = append(valid, sess)
		} else {
			dropped++
		}
	}
	r.s.doc.Sessions = valid
	r.s.mu.Unlock()
	return dropped
}

// sessionValid requires an active session whose driver and order still exist,
// and whose order's customer (when set) still exists. Caller holds the lock.
func (r *sessionRepo) sessionValid(sess *models.Session, now time.Time) bool {
	if sess == nil || !sess.ActiveAt(now) {
		return false
	}
	var drv *models.Driver
	for _, d := range r.s.doc.Drivers {
		if d.ID == sess.DriverID {
			drv = d
			break
		}
	}
	if drv == nil {
		return false
	}
	var ord *models.Order
	for _, o := range r.s.doc.Orders {
		if o.ID == sess.OrderID {
			ord = o
			break
		}
	}
	if ord == nil {
		return false
	}
	if ord.CustomerID != nil {
		for _, c := range r.s.doc.Customers {
			if c.ID == *ord.CustomerID {
				return true
			}
		}
		return false
	}
	return true
}
