package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierbot/pkg/models"
)

func TestOrderStatusTerminal(t *testing.T) {
	assert.False(t, models.StatusNew.Terminal())
	assert.False(t, models.StatusAssigned.Terminal())
	assert.False(t, models.StatusPickedUp.Terminal())
	assert.False(t, models.StatusArrived.Terminal())
	assert.True(t, models.StatusCompleted.Terminal())
	assert.True(t, models.StatusCancelled.Terminal())
	assert.True(t, models.StatusArchived.Terminal())
}

func TestOrderStatusActive(t *testing.T) {
	assert.False(t, models.StatusNew.Active())
	assert.True(t, models.StatusAssigned.Active())
	assert.True(t, models.StatusPickedUp.Active())
	assert.True(t, models.StatusArrived.Active())
	assert.False(t, models.StatusCompleted.Active())
	assert.False(t, models.StatusArchived.Active())
}

func TestOrderDestination(t *testing.T) {
	o := &models.Order{MapLink: "location:11.55,104.92"}
	dest, ok := o.Destination()
	require.True(t, ok)
	assert.Equal(t, 11.55, dest.Latitude)

	o = &models.Order{MapLink: "behind the market"}
	_, ok = o.Destination()
	assert.False(t, ok)
}

func TestSessionActiveAt(t *testing.T) {
	now := time.Now()
	sess := &models.Session{
		ID:        models.NewSessionID(7, 3, now),
		DriverID:  7,
		OrderID:   3,
		StartedAt: now,
		ExpiresAt: now.Add(30 * time.Minute),
	}

	assert.True(t, sess.ActiveAt(now))
	assert.True(t, sess.ActiveAt(now.Add(29*time.Minute)))
	assert.False(t, sess.ActiveAt(now.Add(30*time.Minute)))

	sess.Ended = true
	assert.False(t, sess.ActiveAt(now))
}

func TestQRCodeMatches(t *testing.T) {
	photoQR := &models.QRCode{
		ID:      "a",
		Code:    "ABA-123",
		Enabled: true,
		Media:   &models.Media{Type: models.MediaPhoto, FileID: "file-1"},
	}
	textQR := &models.QRCode{
		ID:      "b",
		Code:    "WING-77",
		Enabled: true,
		Media:   &models.Media{Type: models.MediaText, Text: "pay to 012 345 678"},
	}

	assert.True(t, photoQR.Matches(&models.Media{Type: models.MediaPhoto, FileID: "file-1"}, ""))
	assert.False(t, photoQR.Matches(&models.Media{Type: models.MediaPhoto, FileID: "file-2"}, ""))
	assert.False(t, photoQR.Matches(&models.Media{Type: models.MediaDocument, FileID: "file-1"}, ""))

	assert.True(t, textQR.Matches(nil, "sent, pay to 012 345 678 done"))
	assert.True(t, textQR.Matches(nil, "paid via WING-77 just now"))
	assert.False(t, textQR.Matches(nil, "paid"))
	assert.False(t, textQR.Matches(nil, ""))
}
