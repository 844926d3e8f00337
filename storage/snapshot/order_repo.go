package snapshot

import (
	"time"

	"courierbot/pkg/models"
	"courierbot/storage"
)

type orderRepo struct {
	s *Store
}

func (r *orderRepo) Create(o *models.Order) *models.Order {
	r.s.mu.Lock()
	o.ID = r.s.doc.OrderCounter
	r.s.doc.OrderCounter++
	if o.Status == "" {
		o.Status = models.StatusNew
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	r.s.doc.Orders = append(r.s.doc.Orders, o)
	r.s.mu.Unlock()
	r.s.Save()
	return o
}

func (r *orderRepo) GetByID(id int64) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.doc.Orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *orderRepo) All() []*models.Order {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Order, len(r.s.doc.Orders))
	copy(out, r.s.doc.Orders)
	return out
}

func (r *orderRepo) ByStatus(statuses ...models.OrderStatus) []*models.Order {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Order
	for _, o := range r.s.doc.Orders {
		for _, st := range statuses {
			if o.Status == st {
				out = append(out, o)
				break
			}
		}
	}
	return out
}

func (r *orderRepo) ActiveForDriver(driverID int64) []*models.Order {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Order
	for _, o := range r.s.doc.Orders {
		if o.DriverID != nil && *o.DriverID == driverID && o.Status.Active() {
			out = append(out, o)
		}
	}
	return out
}

func (r *orderRepo) CompletedCountForDriver(driverID int64) int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, o := range r.s.doc.Orders {
		if o.DriverID != nil && *o.DriverID == driverID && o.Status == models.StatusCompleted {
			n++
		}
	}
	return n
}

func (r *orderRepo) LatestWhere(match func(*models.Order) bool) (*models.Order, bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := len(r.s.doc.Orders) - 1; i >= 0; i-- {
		if match(r.s.doc.Orders[i]) {
			return r.s.doc.Orders[i], true
		}
	}
	return nil, false
}

func (r *orderRepo) Update(id int64, fn func(*models.Order)) error {
	r.s.mu.Lock()
	var found *models.Order
	for _, o := range r.s.doc.Orders {
		if o.ID == id {
			found = o
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

func (r *orderRepo) Delete(id int64) error {
	r.s.mu.Lock()
	idx := -1
	for i, o := range r.s.doc.Orders {
		if o.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		r.s.mu.Unlock()
		return storage.ErrNotFound
	}
	r.s.doc.Orders = append(r.s.doc.Orders[:idx], r.s.doc.Orders[idx+1:]...)
	r.s.mu.Unlock()
	r.s.Save()
	return nil
}

func (r *orderRepo) MaxID() int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var max int64
	for _, o := range r.s.doc.Orders {
		if o.ID > max {
			max = o.ID
		}
	}
	return max
}
