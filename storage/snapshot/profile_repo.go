package snapshot

import (
	"time"

	"courierbot/pkg/models"
	"courierbot/storage"
)

type profileRepo struct {
	s *Store
}

func (r *profileRepo) Create(name, pin string) *models.ShiftProfile {
	r.s.mu.Lock()
	p := &models.ShiftProfile{
		ID:        r.s.doc.ProfileCounter,
		Name:      name,
		PIN:       pin,
		CreatedAt: time.Now(),
	}
	r.s.doc.ProfileCounter++
	r.s.doc.ShiftProfiles = append(r.s.doc.ShiftProfiles, p)
	r.s.mu.Unlock()
	r.s.Save()
	return p
}

func (r *profileRepo) Get(id int64) (*models.ShiftProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.doc.ShiftProfiles {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *profileRepo) All() []*models.ShiftProfile {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.ShiftProfile, len(r.s.doc.ShiftProfiles))
	copy(out, r.s.doc.ShiftProfiles)
	return out
}

func (r *profileRepo) Update(id int64, fn func(*models.ShiftProfile)) error {
	r.s.mu.Lock()
	var found *models.ShiftProfile
	for _, p := range r.s.doc.ShiftProfiles {
		if p.ID == id {
			found = p
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
