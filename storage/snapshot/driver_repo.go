package snapshot

import (
	"courierbot/pkg/models"
	"courierbot/storage"
)

type driverRepo struct {
	s *Store
}

func (r *driverRepo) Create(d *models.Driver) *models.Driver {
	r.s.mu.Lock()
	for _, existing := range r.s.doc.Drivers {
		if existing.ID == d.ID {
			r.s.mu.Unlock()
			return existing
		}
	}
	if d.Status == "" {
		d.Status = models.DriverPending
	}
	r.s.doc.Drivers = append(r.s.doc.Drivers, d)
	r.s.mu.Unlock()
	r.s.Save()
	return d
}

func (r *driverRepo) Get(id int64) (*models.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.doc.Drivers {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *driverRepo) All() []*models.Driver {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Driver, len(r.s.doc.Drivers))
	copy(out, r.s.doc.Drivers)
	return out
}

func (r *driverRepo) Connected() []*models.Driver {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Driver
	for _, d := range r.s.doc.Drivers {
		if d.Status.Connected() {
			out = append(out, d)
		}
	}
	return out
}

func (r *driverRepo) FirstOnline() (*models.Driver, bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.doc.Drivers {
		if d.Status == models.DriverOnline {
			return d, true
		}
	}
	return nil, false
}

func (r *driverRepo) Update(id int64, fn func(*models.Driver)) error {
	r.s.mu.Lock()
	var found *models.Driver
	for _, d := range r.s.doc.Drivers {
		if d.ID == id {
			found = d
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

func (r *driverRepo) Delete(id int64) error {
	r.s.mu.Lock()
	idx := -1
	for i, d := range r.s.doc.Drivers {
		if d.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		r.s.mu.Unlock()
		return storage.ErrNotFound
	}
	r.s.doc.Drivers = append(r.s.doc.Drivers[:idx], r.s.doc.Drivers[idx+1:]...)
	r.s.mu.Unlock()
	r.s.Save()
	return nil
}
