package models

import (
	"strings"
	"time"
)

const (
	MediaPhoto    = "photo"
	MediaDocument = "document"
	MediaText     = "text"
)

// Media is an attachment payload relayed through the messaging gateway,
// either pinned to an order or stored as a QR code's content.
type Media struct {
	Type   string `json:"type"`
	FileID string `json:"file_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Text   string `json:"text,omitempty"`
}

type QRCode struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Enabled   bool      `json:"enabled"`
	Media     *Media    `json:"media"`
	CreatedAt time.Time `json:"createdAt"`
}

// Matches reports whether an inbound payment proof corresponds to this QR
// entry. Photos and documents match by file id, text by containment of the
// stored text or the code label.
func (q *QRCode) Matches(media *Media, text string) bool {
	if q.Media != nil && media != nil {
		if q.Media.Type == MediaPhoto && media.Type == MediaPhoto && q.Media.FileID == media.FileID {
			return true
		}
		if q.Media.Type == MediaDocument && media.Type == MediaDocument && q.Media.FileID == media.FileID {
			return true
		}
	}
	if text != "" {
		if q.Media != nil && q.Media.Type == MediaText && q.Media.Text != "" && strings.Contains(text, q.Media.Text) {
			return true
		}
		if strings.Contains(text, q.Code) {
			return true
		}
	}
	return false
}
