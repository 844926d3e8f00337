package bot

import (
	"strings"

	tele "gopkg.in/telebot.v3"
)

// Update dispatchers. The admin gets first claim on every update, then a
// registered driver, then the sender is treated as a customer.

func (b *Bot) handleText(c tele.Context) error {
	if b.isAdmin(c.Sender().ID) {
		return b.adminText(c)
	}
	if drv, err := b.Stg.Driver().Get(c.Sender().ID); err == nil {
		return b.driverText(c, drv)
	}
	return b.customerText(c)
}

func (b *Bot) handleLocation(c tele.Context) error {
	if b.isAdmin(c.Sender().ID) {
		return b.adminLocation(c)
	}
	if _, err := b.Stg.Driver().Get(c.Sender().ID); err == nil {
		return b.driverLocation(c)
	}
	return b.customerLocation(c)
}

func (b *Bot) handleContact(c tele.Context) error {
	if b.isAdmin(c.Sender().ID) {
		return b.adminContact(c)
	}
	return nil
}

func (b *Bot) handleMedia(c tele.Context) error {
	if b.isAdmin(c.Sender().ID) {
		return b.adminMedia(c)
	}
	return b.customerMedia(c)
}

func (b *Bot) handleCallback(c tele.Context) error {
	data := strings.TrimSpace(strings.TrimPrefix(c.Callback().Data, "\f"))

	switch {
	case strings.HasPrefix(data, "driver_"), strings.HasPrefix(data, "delay:"):
		return b.driverCallback(c, data)
	case strings.HasPrefix(data, "fb:"), strings.HasPrefix(data, "cust_ok:"), strings.HasPrefix(data, "eta:"):
		return b.customerCallback(c, data)
	}

	if !b.isAdmin(c.Sender().ID) {
		return c.Respond()
	}
	return b.adminCallback(c, data)
}
