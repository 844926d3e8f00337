package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"courierbot/pkg/i18n"
	"courierbot/pkg/models"
	"courierbot/service"
)

func (b *Bot) handleRegister(c tele.Context) error {
	from := c.Sender()
	if _, err := b.Stg.Driver().Get(from.ID); err != nil {
		b.Stg.Driver().Create(&models.Driver{
			ID:       from.ID,
			Name:     strings.TrimSpace(from.FirstName + " " + from.LastName),
			Username: from.Username,
			Status:   models.DriverPending,
		})
	}
	if err := c.Send(i18n.T(b.langOf(from.ID), i18n.RegSent)); err != nil {
		return err
	}
	if b.Cfg.AdminID == 0 {
		return nil
	}
	_, err := b.Bot.Send(&tele.User{ID: b.Cfg.AdminID},
		fmt.Sprintf("NEW DRIVER %s wants to join.", from.FirstName),
		driverApprovalKeyboard(from.ID))
	return err
}

func (b *Bot) handleConnect(c tele.Context) error {
	drv, err := b.Stg.Driver().Get(c.Sender().ID)
	if err != nil {
		return c.Send("You are not registered. Use /register")
	}
	if drv.Status == models.DriverPending {
		return c.Send("Your registration is still waiting for approval.")
	}
	return b.setDriverOnline(c, drv)
}

func (b *Bot) handleDisconnect(c tele.Context) error {
	drv, err := b.Stg.Driver().Get(c.Sender().ID)
	if err != nil {
		return c.Send("You are not registered. Use /register")
	}
	return b.setDriverOffline(c, drv)
}

func (b *Bot) setDriverOnline(c tele.Context, drv *models.Driver) error {
	_ = b.Stg.Driver().Update(drv.ID, func(d *models.Driver) { d.Status = models.DriverOnline })
	if err := c.Send(i18n.T(b.langOf(drv.ID), i18n.NowOnline), driverOnlineKeyboard()); err != nil {
		return err
	}
	b.notifyAdmin(fmt.Sprintf("Driver %s connected", drv.Name))
	return nil
}

func (b *Bot) setDriverOffline(c tele.Context, drv *models.Driver) error {
	_ = b.Stg.Driver().Update(drv.ID, func(d *models.Driver) { d.Status = models.DriverOffline })
	if err := c.Send(i18n.T(b.langOf(drv.ID), i18n.NowOffline), driverOfflineKeyboard()); err != nil {
		return err
	}
	b.notifyAdmin(fmt.Sprintf("Driver %s disconnected", drv.Name))
	return nil
}

func (b *Bot) driverText(c tele.Context, drv *models.Driver) error {
	t := strings.TrimSpace(c.Text())
	upper := strings.ToUpper(t)

	switch {
	case t == "🇰🇭" || upper == "KH" || upper == "KHMER":
		_ = b.Stg.Driver().Update(drv.ID, func(d *models.Driver) { d.Lang = i18n.LangKH })
		return c.Send("ភាសា ត្រូវបាន ផ្លាស់ប្ដូរ ទៅ ខ្មែរ 🇰🇭", driverSettingsKeyboard(i18n.LangKH))
	case upper == "EN" || upper == "ENGLISH":
		_ = b.Stg.Driver().Update(drv.ID, func(d *models.Driver) { d.Lang = i18n.LangEN })
		return c.Send("Language set to English", driverSettingsKeyboard(i18n.LangEN))
	case t == "🚀CONNECT" || upper == "CONNECT":
		if drv.Status == models.DriverPending {
			return c.Send("Your registration is still waiting for approval.")
		}
		return b.setDriverOnline(c, drv)
	case t == "✖️LOGOUT" || upper == "LOGOUT":
		return b.setDriverOffline(c, drv)
	case t == "📥MY ORDERS" || strings.EqualFold(t, "my orders"):
		return b.driverMyOrders(c, drv)
	case t == "📊STATS" || upper == "STATS":
		completed := b.Stg.Order().CompletedCountForDriver(drv.ID)
		active := len(b.Stg.Order().ActiveForDriver(drv.ID))
		return c.Send(fmt.Sprintf("Stats: %d completed, %d active", completed, active))
	case t == "⚙️SETTINGS" || upper == "SETTINGS":
		return c.Send("Driver settings", driverSettingsKeyboard(drv.Lang))
	}
	return nil
}

func (b *Bot) driverMyOrders(c tele.Context, drv *models.Driver) error {
	my := b.Stg.Order().ActiveForDriver(drv.ID)
	if len(my) == 0 {
		return c.Send("No active orders")
	}
	var lines []string
	for _, o := range my {
		lines = append(lines, fmt.Sprintf("%s — %s", orderTag(o.ID), o.Status))
	}
	return c.Send(strings.Join(lines, "\n"))
}

// driverLocation feeds the live session. No open session means the update is
// ignored with a hint; everything else (sliding expiry, forwarding,
// auto-arrival) happens in the live service.
func (b *Bot) driverLocation(c tele.Context) error {
	loc := c.Message().Location
	_, err := b.Svc.Live().UpdateLocation(c.Sender().ID, float64(loc.Lat), float64(loc.Lng))
	if errors.Is(err, service.ErrNoActiveSession) {
		return c.Send(i18n.T(b.langOf(c.Sender().ID), i18n.NoActiveLive))
	}
	return err
}

func (b *Bot) driverCallback(c tele.Context, data string) error {
	verb, rest, _ := strings.Cut(data, ":")
	driverID := c.Sender().ID

	switch verb {
	case "driver_pickup":
		orderID := parseID(rest)
		if err := b.Svc.Dispatch().Pickup(orderID, driverID); err != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Order is not assigned to you anymore"})
		}
		if err := c.Respond(&tele.CallbackResponse{Text: "You picked up the order"}); err != nil {
			return err
		}
		if o, err := b.Stg.Order().GetByID(orderID); err == nil && o.CustomerID != nil {
			_, _ = b.Bot.Send(&tele.User{ID: *o.CustomerID},
				fmt.Sprintf("Your order %s has been picked up. Your driver %s is on the way.", orderTag(orderID), o.DriverName),
				etaKeyboard(orderID))
		}
		return c.Send("Order active", driverActiveOrderKeyboard(orderID))

	case "driver_arrived":
		orderID := parseID(rest)
		if err := b.Svc.Dispatch().Arrive(orderID, driverID); err != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Order is not on the way"})
		}
		return c.Respond(&tele.CallbackResponse{Text: "Marked as arrived"})

	case "driver_start_live":
		orderID := parseID(rest)
		sess, err := b.Svc.Live().Start(driverID, orderID)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Order not found"})
		}
		if err := c.Respond(&tele.CallbackResponse{Text: i18n.T(b.langOf(driverID), i18n.LiveStarted, driverName(b, driverID), sess.ExpiresAt.Format("15:04"))}); err != nil {
			return err
		}
		return c.Send(i18n.T(b.langOf(driverID), i18n.StartLivePrompt))

	case "driver_stop_live":
		orderID := parseID(rest)
		if !b.Svc.Live().Stop(driverID, orderID) {
			return c.Respond(&tele.CallbackResponse{Text: "No live session running"})
		}
		return c.Respond(&tele.CallbackResponse{Text: i18n.T(b.langOf(driverID), i18n.LiveStopped, driverName(b, driverID))})

	case "driver_route":
		return b.driverRoute(c, parseID(rest))

	case "driver_delay":
		orderID := parseID(rest)
		if err := c.Respond(&tele.CallbackResponse{Text: "Select delay"}); err != nil {
			return err
		}
		return c.Send("Select delay: 2mn, 5mn, +10mn", delayOptionsKeyboard(orderID))

	case "delay":
		minsStr, idStr, _ := strings.Cut(rest, ":")
		mins, _ := strconv.Atoi(minsStr)
		o, err := b.Stg.Order().GetByID(parseID(idStr))
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Order not found"})
		}
		if o.CustomerID != nil {
			_, _ = b.Bot.Send(&tele.User{ID: *o.CustomerID},
				fmt.Sprintf("Hi, here's %s, I am %d minutes away.", driverName(b, driverID), mins),
				customerOkKeyboard(o.ID))
		}
		return c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("Delay message sent (%dmn)", mins)})
	}
	return c.Respond()
}

func (b *Bot) driverRoute(c tele.Context, orderID int64) error {
	if err := c.Respond(&tele.CallbackResponse{Text: "Route preview"}); err != nil {
		return err
	}
	route, err := b.Svc.Live().Route(c.Sender().ID, orderID)
	if err != nil || !route.Available {
		return c.Send("🛵 Route preview:\nDistance: N/A\nETA: N/A")
	}
	text := fmt.Sprintf("🛵 Route preview:\nDistance: %.0f m\nETA: %d min",
		route.DistanceMeters, route.ETASeconds/60)
	return c.Send(text, openInMapsKeyboard(route.DirectionsURL))
}

func driverName(b *Bot, driverID int64) string {
	if d, err := b.Stg.Driver().Get(driverID); err == nil && d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("Driver %d", driverID)
}

// Plain-text lifecycle commands kept alongside the inline buttons.

func (b *Bot) handlePickupCmd(c tele.Context) error {
	return b.lifecycleCmd(c, func(orderID int64) error {
		return b.Svc.Dispatch().Pickup(orderID, c.Sender().ID)
	}, "Picked up order %s")
}

func (b *Bot) handleArrivedCmd(c tele.Context) error {
	return b.lifecycleCmd(c, func(orderID int64) error {
		return b.Svc.Dispatch().Arrive(orderID, c.Sender().ID)
	}, "Marked order %s as arrived")
}

func (b *Bot) handleCompleteCmd(c tele.Context) error {
	return b.lifecycleCmd(c, b.Svc.Dispatch().Complete, "Completed order %s")
}

func (b *Bot) lifecycleCmd(c tele.Context, apply func(int64) error, okMsg string) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: send the order number, e.g. /pickup 12")
	}
	orderID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("Order not found")
	}
	if err := apply(orderID); err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			return c.Send("Order is not in the right state for that")
		}
		return c.Send("Order not found")
	}
	return c.Send(fmt.Sprintf(okMsg, orderTag(orderID)))
}

func (b *Bot) handleLangEN(c tele.Context) error {
	return b.setLang(c, i18n.LangEN, "Language set to English")
}

func (b *Bot) handleLangKH(c tele.Context) error {
	return b.setLang(c, i18n.LangKH, "ភាសាត្រូវបានផ្លាស់ប្តូរ")
}

func (b *Bot) setLang(c tele.Context, lang, ack string) error {
	userID := c.Sender().ID
	if _, err := b.Stg.Driver().Get(userID); err == nil {
		_ = b.Stg.Driver().Update(userID, func(d *models.Driver) { d.Lang = lang })
	}
	if _, err := b.Stg.Customer().Get(userID); err == nil {
		_ = b.Stg.Customer().Update(userID, func(cu *models.Customer) { cu.Lang = lang })
	}
	return c.Send(ack)
}
