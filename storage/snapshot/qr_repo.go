package snapshot

import (
	"courierbot/pkg/models"
	"courierbot/storage"
)

type qrRepo struct {
	s *Store
}

func (r *qrRepo) Add(q *models.QRCode) {
	r.s.mu.Lock()
	r.s.doc.QRCodes = append(r.s.doc.QRCodes, q)
	r.s.mu.Unlock()
	r.s.Save()
}

func (r *qrRepo) Get(id string) (*models.QRCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, q := range r.s.doc.QRCodes {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *qrRepo) All() []*models.QRCode {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.QRCode, len(r.s.doc.QRCodes))
	copy(out, r.s.doc.QRCodes)
	return out
}

func (r *qrRepo) Update(id string, fn func(*models.QRCode)) error {
	r.s.mu.Lock()
	var found *models.QRCode
	for _, q := range r.s.doc.QRCodes {
		if q.ID == id {
			found = q
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

func (r *qrRepo) Delete(id string) error {
	r.s.mu.Lock()
	idx := -1
	for i, q := range r.s.doc.QRCodes {
		if q.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		r.s.mu.Unlock()
		return storage.ErrNotFound
	}
	r.s.doc.QRCodes = append(r.s.doc.QRCodes[:idx], r.s.doc.QRCodes[idx+1:]...)
	r.s.mu.Unlock()
	r.s.Save()
	return nil
}
