package bot

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"courierbot/pkg/i18n"
	"courierbot/pkg/models"
)

func (b *Bot) handleStart(c tele.Context) error {
	from := c.Sender()
	b.Stg.Customer().GetOrCreate(from.ID, strings.TrimSpace(from.FirstName+" "+from.LastName), from.Username)

	if b.isAdmin(from.ID) {
		return b.sendAdminMenu()
	}
	name := from.FirstName
	if name == "" {
		name = "friend"
	}
	return c.Send(i18n.T(b.langOf(from.ID), i18n.Welcome, name), &tele.ReplyMarkup{RemoveKeyboard: true})
}

// customerText appends free text to the customer's open order.
func (b *Bot) customerText(c tele.Context) error {
	if c.Chat() == nil || c.Chat().Type != tele.ChatPrivate {
		return nil
	}
	fromID := c.Sender().ID
	if o, ok := b.latestNewOrderFor(fromID); ok {
		if err := b.Svc.Dispatch().AppendItems(o.ID, c.Text()); err != nil {
			return err
		}
		return c.Send("Added to order items.")
	}
	return b.customerQRProofText(c)
}

func (b *Bot) latestNewOrderFor(customerID int64) (*models.Order, bool) {
	return b.Stg.Order().LatestWhere(func(o *models.Order) bool {
		return o.CustomerID != nil && *o.CustomerID == customerID && o.Status == models.StatusNew
	})
}

func (b *Bot) customerLocation(c tele.Context) error {
	o, ok := b.latestNewOrderFor(c.Sender().ID)
	if !ok {
		return nil
	}
	loc := c.Message().Location
	if err := b.Svc.Dispatch().SetMapLink(o.ID, models.LocationLink(float64(loc.Lat), float64(loc.Lng))); err != nil {
		return err
	}
	return c.Send(i18n.T(b.langOf(c.Sender().ID), i18n.LocationSaved))
}

// customerMedia checks a payment proof against the stored QR codes for the
// customer's unpaid QR order.
func (b *Bot) customerMedia(c tele.Context) error {
	return b.matchQRProof(c, mediaFromMessage(c.Message()))
}

func (b *Bot) customerQRProofText(c tele.Context) error {
	return b.matchQRProof(c, &models.Media{Type: models.MediaText, Text: c.Text()})
}

func (b *Bot) matchQRProof(c tele.Context, proof *models.Media) error {
	if proof == nil {
		return nil
	}
	fromID := c.Sender().ID
	o, ok := b.Stg.Order().LatestWhere(func(o *models.Order) bool {
		return o.CustomerID != nil && *o.CustomerID == fromID &&
			o.PaymentMethod == models.PaymentQR && o.PaidStatus != models.PaidStatusPaid
	})
	if !ok {
		return nil
	}
	var matched *models.QRCode
	for _, q := range b.Stg.QR().All() {
		if q.Matches(proof, proof.Text) {
			matched = q
			break
		}
	}
	if matched == nil {
		return nil
	}

	if err := b.Svc.Dispatch().MarkPaid(o.ID); err != nil {
		return err
	}
	if err := c.Send(i18n.T(b.langOf(fromID), i18n.PaymentReceived, o.ID)); err != nil {
		return err
	}
	if o.DriverID != nil {
		_ = b.SendText(*o.DriverID, fmt.Sprintf("Order %s marked PAID by customer.", orderTag(o.ID)))
	}
	b.notifyAdmin(fmt.Sprintf("Order %s paid via QR by %s", orderTag(o.ID), o.CustomerName))
	return nil
}

func (b *Bot) customerCallback(c tele.Context, data string) error {
	verb, rest, _ := strings.Cut(data, ":")
	switch verb {
	case "fb":
		starsStr, idStr, _ := strings.Cut(rest, ":")
		stars := int(parseID(starsStr))
		orderID := parseID(idStr)
		if err := b.Svc.Dispatch().RecordFeedback(orderID, stars); err != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Order not found"})
		}
		return c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("Thanks for your %d⭐", stars)})

	case "cust_ok":
		return c.Respond(&tele.CallbackResponse{Text: "👍"})

	case "eta":
		orderID := parseID(rest)
		o, err := b.Stg.Order().GetByID(orderID)
		if err != nil || o.DriverID == nil {
			return c.Respond(&tele.CallbackResponse{Text: "No driver on the way yet"})
		}
		route, err := b.Svc.Live().Route(*o.DriverID, orderID)
		if err != nil || !route.Available {
			return c.Respond(&tele.CallbackResponse{Text: "ETA not available yet"})
		}
		return c.Respond(&tele.CallbackResponse{
			Text: fmt.Sprintf("Driver is about %d min away", route.ETASeconds/60),
		})
	}
	return c.Respond()
}
