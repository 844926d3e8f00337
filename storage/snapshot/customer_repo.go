package snapshot

import (
	"courierbot/pkg/models"
	"courierbot/storage"
)

type customerRepo struct {
	s *Store
}

func (r *customerRepo) GetOrCreate(id int64, name, username string) *models.Customer {
	r.s.mu.Lock()
	for _, c := range r.s.doc.Customers {
		if c.ID == id {
			r.s.mu.Unlock()
			return c
		}
	}
	c := &models.Customer{ID: id, Name: name, Username: username}
	r.s.doc.Customers = append(r.s.doc.Customers, c)
	r.s.mu.Unlock()
	r.s.Save()
	return c
}

func (r *customerRepo) Get(id int64) (*models.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.doc.Customers {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *customerRepo) ByUsername(username string) (*models.Customer, bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.doc.Customers {
		if c.Username == username {
			return c, true
		}
	}
	return nil, false
}

func (r *customerRepo) Update(id int64, fn func(*models.Customer)) error {
	r.s.mu.Lock()
	var found *models.Customer
	for _, c := range r.s.doc.Customers {
		if c.ID == id {
			found = c
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
