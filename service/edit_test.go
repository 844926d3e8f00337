package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierbot/pkg/models"
	"courierbot/service"
)

const operatorID int64 = 1000

func TestApplyEditTextWithoutPendingEdit(t *testing.T) {
	env := newTestEnv(t)
	_, ok, err := env.svc.Dispatch().ApplyEditText(operatorID, "hello")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplyEditTextAmounts(t *testing.T) {
	env := newTestEnv(t)
	o := env.svc.Dispatch().Create(service.CreateOrderParams{CustomerName: "Dara"})

	env.svc.Dispatch().BeginEdit(operatorID, o.ID, service.EditTotalAmount)
	tok, ok, err := env.svc.Dispatch().ApplyEditText(operatorID, "$12.50")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, service.EditTotalAmount, tok.Field)

	env.svc.Dispatch().BeginEdit(operatorID, o.ID, service.EditGivenCash)
	_, ok, err = env.svc.Dispatch().ApplyEditText(operatorID, "20,00")
	require.NoError(t, err)
	require.True(t, ok)

	loaded, _ := env.stg.Order().GetByID(o.ID)
	require.NotNil(t, loaded.TotalAmount)
	assert.Equal(t, 12.50, *loaded.TotalAmount)
	require.NotNil(t, loaded.ChangeCash)
	assert.InDelta(t, 7.50, *loaded.ChangeCash, 0.001)

	// the marker is consumed, a second message is not an edit
	_, ok, err = env.svc.Dispatch().ApplyEditText(operatorID, "21")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplyEditTextRejectsBadAmount(t *testing.T) {
	env := newTestEnv(t)
	o := env.svc.Dispatch().Create(service.CreateOrderParams{CustomerName: "Dara"})

	env.svc.Dispatch().BeginEdit(operatorID, o.ID, service.EditTotalAmount)
	tok, ok, err := env.svc.Dispatch().ApplyEditText(operatorID, "twelve fifty")
	require.True(t, ok)
	assert.Error(t, err)
	assert.Equal(t, o.ID, tok.OrderID)

	loaded, _ := env.stg.Order().GetByID(o.ID)
	assert.Nil(t, loaded.TotalAmount)

	// negative amounts are rejected the same way
	env.svc.Dispatch().BeginEdit(operatorID, o.ID, service.EditTotalAmount)
	_, _, err = env.svc.Dispatch().ApplyEditText(operatorID, "-5")
	assert.Error(t, err)
}

func TestApplyEditTextFields(t *testing.T) {
	env := newTestEnv(t)
	o := env.svc.Dispatch().Create(service.CreateOrderParams{CustomerName: "old name", Items: "2x noodles"})

	env.svc.Dispatch().BeginEdit(operatorID, o.ID, service.EditCustomerName)
	_, _, err := env.svc.Dispatch().ApplyEditText(operatorID, "Sokha")
	require.NoError(t, err)

	env.svc.Dispatch().BeginEdit(operatorID, o.ID, service.EditItems)
	_, _, err = env.svc.Dispatch().ApplyEditText(operatorID, "1x coffee")
	require.NoError(t, err)

	loaded, _ := env.stg.Order().GetByID(o.ID)
	// names overwrite, items append
	assert.Equal(t, "Sokha", loaded.CustomerName)
	assert.Equal(t, "2x noodles\n1x coffee", loaded.Items)
}

func TestApplyEditTextMapLink(t *testing.T) {
	env := newTestEnv(t)
	o := env.svc.Dispatch().Create(service.CreateOrderParams{CustomerName: "Dara"})

	env.svc.Dispatch().BeginEdit(operatorID, o.ID, service.EditMapLink)
	_, _, err := env.svc.Dispatch().ApplyEditText(operatorID, "location:11.55, 104.92")
	require.NoError(t, err)
	loaded, _ := env.stg.Order().GetByID(o.ID)
	dest, ok := loaded.Destination()
	require.True(t, ok)
	assert.Equal(t, 11.55, dest.Latitude)

	// plain urls and free text are kept verbatim
	env.svc.Dispatch().BeginEdit(operatorID, o.ID, service.EditMapLink)
	_, _, err = env.svc.Dispatch().ApplyEditText(operatorID, "https://maps.app.goo.gl/abc")
	require.NoError(t, err)
	loaded, _ = env.stg.Order().GetByID(o.ID)
	assert.Equal(t, "https://maps.app.goo.gl/abc", loaded.MapLink)
}

func TestApplyEditLocation(t *testing.T) {
	env := newTestEnv(t)
	o := env.svc.Dispatch().Create(service.CreateOrderParams{CustomerName: "Dara"})

	// a shared pin lands on the destination whatever field was marked
	env.svc.Dispatch().BeginEdit(operatorID, o.ID, service.EditItems)
	tok, ok, err := env.svc.Dispatch().ApplyEditLocation(operatorID, 11.55, 104.92)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, o.ID, tok.OrderID)

	loaded, _ := env.stg.Order().GetByID(o.ID)
	dest, found := loaded.Destination()
	require.True(t, found)
	assert.Equal(t, 11.55, dest.Latitude)
	assert.Equal(t, 104.92, dest.Longitude)
}

func TestApplyEditContact(t *testing.T) {
	env := newTestEnv(t)
	o := env.svc.Dispatch().Create(service.CreateOrderParams{CustomerName: "Dara"})

	// contacts only resolve when a customer was asked for
	env.svc.Dispatch().BeginEdit(operatorID, o.ID, service.EditItems)
	_, ok, _ := env.svc.Dispatch().ApplyEditContact(operatorID, 333, "Sokha")
	assert.False(t, ok)

	env.svc.Dispatch().ClearEdit(operatorID)
	env.svc.Dispatch().BeginEdit(operatorID, o.ID, service.EditCustomer)
	_, ok, err := env.svc.Dispatch().ApplyEditContact(operatorID, 333, "Sokha")
	require.NoError(t, err)
	require.True(t, ok)

	loaded, _ := env.stg.Order().GetByID(o.ID)
	require.NotNil(t, loaded.CustomerID)
	assert.Equal(t, int64(333), *loaded.CustomerID)
	assert.Equal(t, "Sokha", loaded.CustomerName)
}

func TestApplyEditMedia(t *testing.T) {
	env := newTestEnv(t)
	o := env.svc.Dispatch().Create(service.CreateOrderParams{CustomerName: "Dara"})

	media := &models.Media{Type: models.MediaPhoto, FileID: "file-1"}

	env.svc.Dispatch().BeginEdit(operatorID, o.ID, service.EditItems)
	_, ok, _ := env.svc.Dispatch().ApplyEditMedia(operatorID, media)
	assert.False(t, ok)

	env.svc.Dispatch().ClearEdit(operatorID)
	env.svc.Dispatch().BeginEdit(operatorID, o.ID, service.EditAttachMedia)
	_, ok, err := env.svc.Dispatch().ApplyEditMedia(operatorID, media)
	require.NoError(t, err)
	require.True(t, ok)

	loaded, _ := env.stg.Order().GetByID(o.ID)
	require.NotNil(t, loaded.Media)
	assert.Equal(t, "file-1", loaded.Media.FileID)
}

func TestCancelClearsPendingEdits(t *testing.T) {
	env := newTestEnv(t)
	o := env.svc.Dispatch().Create(service.CreateOrderParams{CustomerName: "Dara"})

	env.svc.Dispatch().BeginEdit(operatorID, o.ID, service.EditTotalAmount)
	require.NoError(t, env.svc.Dispatch().Cancel(o.ID))

	_, ok := env.svc.Dispatch().PendingEdit(operatorID)
	assert.False(t, ok)
}
