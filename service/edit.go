package service

import (
	"strings"

	"github.com/spf13/cast"

	"courierbot/pkg/models"
)

// EditField names an order field the operator is about to overwrite.
type EditField string

const (
	EditCustomerName EditField = "customer_name"
	EditTotalAmount  EditField = "total_amount"
	EditGivenCash    EditField = "given_cash"
	EditItems        EditField = "items"
	EditMapLink      EditField = "map_link"
	EditAttachMedia  EditField = "attach_media"
	EditCustomer     EditField = "assign_customer"
)

// EditToken is a per-operator marker: the next message from that operator is
// the value for Field on OrderID.
type EditToken struct {
	OrderID int64
	Field   EditField
}

func (s *dispatchService) BeginEdit(operatorID, orderID int64, field EditField) {
	s.editMu.Lock()
	s.pending[operatorID] = EditToken{OrderID: orderID, Field: field}
	s.editMu.Unlock()
}

func (s *dispatchService) PendingEdit(operatorID int64) (EditToken, bool) {
	s.editMu.Lock()
	tok, ok := s.pending[operatorID]
	s.editMu.Unlock()
	return tok, ok
}

func (s *dispatchService) ClearEdit(operatorID int64) {
	s.editMu.Lock()
	delete(s.pending, operatorID)
	s.editMu.Unlock()
}

func (s *dispatchService) clearEditsFor(orderID int64) {
	s.editMu.Lock()
	for op, tok := range s.pending {
		if tok.OrderID == orderID {
			delete(s.pending, op)
		}
	}
	s.editMu.Unlock()
}

// ApplyEditText routes a free-text operator message to the pending edit.
// Priority: an explicit field marker wins, then a "$1.50" style amount fills
// whichever money field was requested, otherwise the text lands on the marked
// field (items append, everything else overwrite). Returns false when the
// operator had no pending edit.
func (s *dispatchService) ApplyEditText(operatorID int64, text string) (EditToken, bool, error) {
	tok, ok := s.PendingEdit(operatorID)
	if !ok {
		return EditToken{}, false, nil
	}
	s.ClearEdit(operatorID)

	text = strings.TrimSpace(text)
	var err error
	switch tok.Field {
	case EditTotalAmount, EditGivenCash:
		amount, ok := parseAmount(text)
		if !ok {
			return tok, true, errBadAmount(text)
		}
		if tok.Field == EditTotalAmount {
			err = s.SetTotal(tok.OrderID, amount)
		} else {
			err = s.SetGivenCash(tok.OrderID, amount)
		}
	case EditCustomerName:
		err = s.stg.Order().Update(tok.OrderID, func(o *models.Order) {
			o.CustomerName = text
		})
	case EditItems:
		err = s.AppendItems(tok.OrderID, text)
	case EditMapLink:
		if ll, ok := models.ParseLocationLink(text); ok {
			err = s.SetMapLink(tok.OrderID, models.LocationLink(ll.Latitude, ll.Longitude))
		} else {
			err = s.SetMapLink(tok.OrderID, text)
		}
	default:
		err = s.AppendItems(tok.OrderID, text)
	}
	return tok, true, err
}

// ApplyEditLocation consumes a shared location as the destination for the
// pending edit, falling back to the map_link field when the marker was for
// something else.
func (s *dispatchService) ApplyEditLocation(operatorID int64, lat, lon float64) (EditToken, bool, error) {
	tok, ok := s.PendingEdit(operatorID)
	if !ok {
		return EditToken{}, false, nil
	}
	s.ClearEdit(operatorID)
	return tok, true, s.SetMapLink(tok.OrderID, models.LocationLink(lat, lon))
}

// ApplyEditContact resolves a shared contact into the order's customer.
func (s *dispatchService) ApplyEditContact(operatorID, contactUserID int64, name string) (EditToken, bool, error) {
	tok, ok := s.PendingEdit(operatorID)
	if !ok || tok.Field != EditCustomer {
		return EditToken{}, false, nil
	}
	s.ClearEdit(operatorID)
	id := contactUserID
	return tok, true, s.SetCustomer(tok.OrderID, &id, name)
}

// ApplyEditMedia attaches a photo or document to the marked order.
func (s *dispatchService) ApplyEditMedia(operatorID int64, media *models.Media) (EditToken, bool, error) {
	tok, ok := s.PendingEdit(operatorID)
	if !ok || tok.Field != EditAttachMedia {
		return EditToken{}, false, nil
	}
	s.ClearEdit(operatorID)
	err := s.stg.Order().Update(tok.OrderID, func(o *models.Order) {
		o.Media = media
	})
	return tok, true, err
}

// parseAmount accepts "$1.50", "1.50" and "1,50".
func parseAmount(text string) (float64, bool) {
	text = strings.TrimPrefix(strings.TrimSpace(text), "$")
	text = strings.ReplaceAll(text, ",", ".")
	v, err := cast.ToFloat64E(text)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

type badAmountError struct{ text string }

func (e badAmountError) Error() string { return "not an amount: " + e.text }

func errBadAmount(text string) error { return badAmountError{text: text} }
