package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"courierbot/pkg/i18n"
	"courierbot/pkg/logger"
	"courierbot/pkg/models"
	"courierbot/service"
	"courierbot/storage"
)

func (b *Bot) adminCallback(c tele.Context, data string) error {
	verb, rest, _ := strings.Cut(data, ":")
	switch verb {
	case "go":
		return b.cbGo(c, rest)
	case "open":
		return b.cbOpen(c, rest)
	case "setpay":
		return b.cbSetPay(c, rest)
	case "setpaid":
		return b.cbSetPaid(c, rest)
	case "settotal":
		return b.cbBeginEdit(c, rest, service.EditTotalAmount,
			"Send $<amount> as a message to set the total",
			"Please send the new total as $<amount> to update order %s")
	case "setloc":
		return b.cbBeginEdit(c, rest, service.EditMapLink,
			"Please send a location now (use Telegram location attachment).",
			"Send location to attach to order %s")
	case "attach":
		return b.cbBeginEdit(c, rest, service.EditAttachMedia,
			"Please send photo/document or text to attach to the order.",
			"Send photo, document or text to attach to order %s")
	case "editcust":
		return b.cbBeginEdit(c, rest, service.EditCustomerName,
			"Reply with the new customer name or forward a contact.",
			"Please reply with the new customer name for order %s")
	case "edititems":
		return b.cbBeginEdit(c, rest, service.EditItems,
			"Reply with the updated items text.",
			"Please send the updated items for order %s")
	case "sendqr":
		return b.cbPickQR(c, rest)
	case "qr":
		return b.cbQR(c, rest)
	case "cancel":
		return b.cbCancel(c, rest)
	case "delete":
		return b.cbDelete(c, rest)
	case "back":
		return b.cbBack(c, rest)
	case "nav":
		return b.cbNav(c, rest)
	case "settings":
		return b.cbSettings(c, rest)
	case "stats":
		return b.cbStats(c, rest)
	case "drv_approve":
		return b.cbDriverApprove(c, rest)
	case "drv_reject":
		return b.cbDriverReject(c, rest)
	case "archive_approve":
		return b.cbArchiveApprove(c, rest)
	case "archive_reject":
		return b.cbArchiveReject(c)
	case "admin_track":
		return b.cbTrackDriver(c, rest)
	case "admin_drv_stats":
		return b.cbDriverStats(c, rest)
	}
	return c.Respond()
}

func parseID(s string) int64 {
	id, _ := strconv.ParseInt(s, 10, 64)
	return id
}

// cbGo dispatches the order to the first online driver.
func (b *Bot) cbGo(c tele.Context, rest string) error {
	orderID := parseID(rest)
	drv, err := b.Svc.Dispatch().Assign(orderID)
	switch {
	case err == nil:
		b.sendDriverReadyCard(orderID)
		if err := c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("Order assigned to %s", drv.Name)}); err != nil {
			return err
		}
		b.notifyAdmin(fmt.Sprintf("Order %s assigned to %s", orderTag(orderID), drv.Name))
	case errors.Is(err, service.ErrNoDriver):
		if err := c.Respond(&tele.CallbackResponse{Text: "No available drivers — order kept in queue"}); err != nil {
			return err
		}
	case errors.Is(err, service.ErrInvalidTransition):
		return c.Respond(&tele.CallbackResponse{Text: "Order is not in the queue"})
	case errors.Is(err, storage.ErrNotFound):
		return c.Respond(&tele.CallbackResponse{Text: "Order not found"})
	default:
		// lock held by another instance
		return c.Respond(&tele.CallbackResponse{Text: "Order is being assigned, try again"})
	}
	// drop the inline buttons from the prompt message
	_ = c.Edit(&tele.ReplyMarkup{})
	return nil
}

func (b *Bot) cbOpen(c tele.Context, rest string) error {
	idStr, section, _ := strings.Cut(rest, ":")
	if err := c.Respond(&tele.CallbackResponse{Text: "Opening order in edit mode"}); err != nil {
		return err
	}
	return b.sendOrderDetails(parseID(idStr), true, section)
}

func (b *Bot) cbSetPay(c tele.Context, rest string) error {
	method, idStr, _ := strings.Cut(rest, ":")
	orderID := parseID(idStr)
	if err := b.Svc.Dispatch().SetPaymentMethod(orderID, method); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Order not found"})
	}
	if method == models.PaymentCash {
		b.Svc.Dispatch().BeginEdit(c.Sender().ID, orderID, service.EditGivenCash)
		if err := c.Respond(&tele.CallbackResponse{Text: "Payment method set to CASH — send $amount to set given cash"}); err != nil {
			return err
		}
		if err := c.Send(fmt.Sprintf("Send $<amount> to set given cash for order %s", orderTag(orderID))); err != nil {
			return err
		}
	} else {
		b.Svc.Dispatch().ClearEdit(c.Sender().ID)
		if err := c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("Payment method set to %s", method)}); err != nil {
			return err
		}
	}
	return b.sendOrderDetails(orderID, true, "")
}

func (b *Bot) cbSetPaid(c tele.Context, rest string) error {
	orderID := parseID(rest)
	if err := b.Svc.Dispatch().MarkPaid(orderID); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Order not found"})
	}
	if err := c.Respond(&tele.CallbackResponse{Text: "Marked as PAID"}); err != nil {
		return err
	}
	return b.sendOrderDetails(orderID, true, "")
}

// cbBeginEdit marks the order field the next admin message should fill.
func (b *Bot) cbBeginEdit(c tele.Context, rest string, field service.EditField, ack, prompt string) error {
	orderID := parseID(rest)
	if _, err := b.Stg.Order().GetByID(orderID); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Order not found"})
	}
	b.Svc.Dispatch().BeginEdit(c.Sender().ID, orderID, field)
	if err := c.Respond(&tele.CallbackResponse{Text: ack}); err != nil {
		return err
	}
	return c.Send(fmt.Sprintf(prompt, orderTag(orderID)))
}

func (b *Bot) cbPickQR(c tele.Context, rest string) error {
	orderID := parseID(rest)
	if _, err := b.Stg.Order().GetByID(orderID); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Order not found"})
	}
	if err := c.Respond(&tele.CallbackResponse{Text: "Choose QR to send"}); err != nil {
		return err
	}
	return c.Send(fmt.Sprintf("Send which QR to order %s?", orderTag(orderID)),
		sendQRToOrderKeyboard(orderID, b.Stg.QR().All()))
}

func (b *Bot) cbQR(c tele.Context, rest string) error {
	action, rest, _ := strings.Cut(rest, ":")
	switch action {
	case "add":
		q := b.newQRCode()
		b.mu.Lock()
		b.pendingQR = q.ID
		b.mu.Unlock()
		if err := c.Respond(&tele.CallbackResponse{Text: "Send the QR image or code text now (as a photo or message)."}); err != nil {
			return err
		}
		return c.Send(fmt.Sprintf("Please send the QR image or code text for %s.", q.Code))
	case "toggle":
		q, err := b.Stg.QR().Get(rest)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: "QR not found"})
		}
		enabled := !q.Enabled
		_ = b.Stg.QR().Update(rest, func(q *models.QRCode) { q.Enabled = enabled })
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		return c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("QR %s set %s", q.Code, state)})
	case "opts":
		q, err := b.Stg.QR().Get(rest)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: "QR not found"})
		}
		if err := c.Respond(&tele.CallbackResponse{Text: "QR options"}); err != nil {
			return err
		}
		return c.Send(fmt.Sprintf("Options for %s", q.Code), qrOptionsKeyboard(q.ID))
	case "preview":
		return b.cbQRPreview(c, rest)
	case "del":
		q, err := b.Stg.QR().Get(rest)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: "QR not found"})
		}
		_ = b.Stg.QR().Delete(rest)
		if err := c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("Deleted %s", q.Code)}); err != nil {
			return err
		}
		return c.Send(fmt.Sprintf("Deleted QR %s", q.Code))
	case "send":
		qid, orderStr, _ := strings.Cut(rest, ":")
		return b.cbQRSend(c, qid, parseID(orderStr))
	}
	return c.Respond()
}

func (b *Bot) cbQRPreview(c tele.Context, qid string) error {
	q, err := b.Stg.QR().Get(qid)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "QR not found"})
	}
	if err := c.Respond(&tele.CallbackResponse{Text: "Previewing QR"}); err != nil {
		return err
	}
	caption := fmt.Sprintf("Preview %s", q.Code)
	return b.sendMedia(b.Cfg.AdminID, q, caption, fmt.Sprintf("QR code: %s", q.Code))
}

// cbQRSend delivers a payment QR to the order's customer and flips the order
// to QR payment.
func (b *Bot) cbQRSend(c tele.Context, qid string, orderID int64) error {
	q, err := b.Stg.QR().Get(qid)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "QR or order not found"})
	}
	o, err := b.Stg.Order().GetByID(orderID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "QR or order not found"})
	}
	if o.CustomerID == nil {
		return c.Respond(&tele.CallbackResponse{Text: "Order has no customer"})
	}
	caption := fmt.Sprintf("Use this QR to pay for order %s", orderTag(orderID))
	if err := b.sendMedia(*o.CustomerID, q, caption, fmt.Sprintf("QR code: %s\n%s", q.Code, caption)); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Failed to send QR"})
	}
	_ = b.Svc.Dispatch().SetPaymentMethod(orderID, models.PaymentQR)
	if err := c.Respond(&tele.CallbackResponse{Text: "QR sent to customer"}); err != nil {
		return err
	}
	return c.Send(fmt.Sprintf("QR %s sent to %s", q.Code, o.CustomerName))
}

// sendMedia pushes a QR's stored media to a user, falling back to plain text.
func (b *Bot) sendMedia(userID int64, q *models.QRCode, caption, fallback string) error {
	user := &tele.User{ID: userID}
	if q.Media != nil {
		switch q.Media.Type {
		case models.MediaPhoto:
			_, err := b.Bot.Send(user, &tele.Photo{File: tele.File{FileID: q.Media.FileID}, Caption: caption})
			return err
		case models.MediaDocument:
			_, err := b.Bot.Send(user, &tele.Document{File: tele.File{FileID: q.Media.FileID}, FileName: q.Media.Name, Caption: caption})
			return err
		case models.MediaText:
			return b.SendText(userID, fmt.Sprintf("QR code: %s\n%s", q.Media.Text, caption))
		}
	}
	return b.SendText(userID, fallback)
}

func (b *Bot) cbCancel(c tele.Context, rest string) error {
	orderID := parseID(rest)
	if err := b.Svc.Dispatch().Cancel(orderID); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Order not found or already closed"})
	}
	if err := c.Respond(&tele.CallbackResponse{Text: "Order cancelled"}); err != nil {
		return err
	}
	return b.sendOrderDetails(orderID, false, "")
}

func (b *Bot) cbDelete(c tele.Context, rest string) error {
	orderID := parseID(rest)
	if err := b.Svc.Dispatch().Delete(orderID); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Order not found"})
	}
	if err := c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("Deleted order %s", orderTag(orderID))}); err != nil {
		return err
	}
	return c.Send(fmt.Sprintf("Order %s deleted.", orderTag(orderID)))
}

func (b *Bot) cbBack(c tele.Context, target string) error {
	if err := c.Respond(&tele.CallbackResponse{Text: "Back"}); err != nil {
		return err
	}
	switch target {
	case sectionOrders, sectionActive, sectionCompleted:
		return b.sendOrdersList(target)
	}
	return b.sendAdminMenu()
}

// cbNav steps through the completed list from an open order card.
func (b *Bot) cbNav(c tele.Context, rest string) error {
	dir, idStr, _ := strings.Cut(rest, ":")
	completed := b.ordersBySection(sectionCompleted)
	idx := -1
	for i, o := range completed {
		if o.ID == parseID(idStr) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return c.Respond(&tele.CallbackResponse{Text: "Not found in completed list"})
	}
	if dir == "prev" && idx > 0 {
		idx--
	}
	if dir == "next" && idx < len(completed)-1 {
		idx++
	}
	if err := c.Respond(&tele.CallbackResponse{Text: "Opening order"}); err != nil {
		return err
	}
	return b.sendOrderDetails(completed[idx].ID, false, "")
}

func (b *Bot) cbSettings(c tele.Context, rest string) error {
	action, rest, _ := strings.Cut(rest, ":")
	switch action {
	case "open":
		if err := c.Respond(&tele.CallbackResponse{Text: "Settings"}); err != nil {
			return err
		}
		s := b.Stg.Settings()
		return c.Send("Settings", adminSettingsKeyboard(s.ArchiveDays, s.EmojisMode))
	case "emojis":
		var enabled bool
		b.Stg.UpdateSettings(func(s *models.Settings) {
			s.EmojisMode = !s.EmojisMode
			enabled = s.EmojisMode
		})
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		if err := c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("Emojis mode %s", state)}); err != nil {
			return err
		}
		s := b.Stg.Settings()
		return c.Send("Settings", adminSettingsKeyboard(s.ArchiveDays, s.EmojisMode))
	case "archive":
		if err := c.Respond(&tele.CallbackResponse{Text: "Archive days"}); err != nil {
			return err
		}
		return c.Send(fmt.Sprintf("Current archive days: %d", b.Stg.Settings().ArchiveDays), archiveDaysKeyboard())
	case "qr":
		if err := c.Respond(&tele.CallbackResponse{Text: "QR management"}); err != nil {
			return err
		}
		return c.Send("QR Codes", qrCodesListKeyboard(b.Stg.QR().All()))
	case "set":
		key, valStr, _ := strings.Cut(rest, ":")
		val, err := strconv.Atoi(valStr)
		if err != nil || key != "archiveDays" {
			return c.Respond()
		}
		b.Stg.UpdateSettings(func(s *models.Settings) { s.ArchiveDays = val })
		if err := c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("Set %s = %d", key, val)}); err != nil {
			return err
		}
		return c.Send(fmt.Sprintf("Updated %s to %d", key, val))
	}
	return c.Respond()
}

func (b *Bot) cbStats(c tele.Context, rest string) error {
	action, idStr, _ := strings.Cut(rest, ":")
	switch action {
	case "new_profile":
		b.mu.Lock()
		b.pendingProfile = &profileDraft{Step: draftStepName}
		b.mu.Unlock()
		if err := c.Respond(&tele.CallbackResponse{Text: "Creating new profile — send profile name now"}); err != nil {
			return err
		}
		return c.Send("Please send the new profile name (one line)")
	case "open":
		p, err := b.Stg.Profile().Get(parseID(idStr))
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Profile not found"})
		}
		if err := c.Respond(&tele.CallbackResponse{Text: "Opening profile"}); err != nil {
			return err
		}
		return c.Send(formatProfile(p), profileKeyboard(p), tele.ModeHTML)
	case "start":
		id := parseID(idStr)
		if _, err := b.Stg.Profile().Get(id); err != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Profile not found"})
		}
		var name string
		_ = b.Stg.Profile().Update(id, func(p *models.ShiftProfile) {
			p.ActiveShift = &models.ShiftRecord{StartedAt: time.Now()}
			name = p.Name
		})
		if err := c.Respond(&tele.CallbackResponse{Text: "Shift started"}); err != nil {
			return err
		}
		return c.Send(fmt.Sprintf("Shift started for %s", name))
	case "close":
		id := parseID(idStr)
		p, err := b.Stg.Profile().Get(id)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Profile not found"})
		}
		if p.ActiveShift == nil {
			return c.Respond(&tele.CallbackResponse{Text: "No active shift"})
		}
		_ = b.Stg.Profile().Update(id, func(p *models.ShiftProfile) {
			now := time.Now()
			rec := *p.ActiveShift
			rec.ClosedAt = &now
			p.Shifts = append(p.Shifts, rec)
			p.ActiveShift = nil
		})
		if err := c.Respond(&tele.CallbackResponse{Text: "Shift closed and saved"}); err != nil {
			return err
		}
		return c.Send(fmt.Sprintf("Shift for %s closed and saved.", p.Name))
	case "list":
		if err := c.Respond(&tele.CallbackResponse{Text: "Profiles"}); err != nil {
			return err
		}
		return b.sendStatsMenu()
	}
	return c.Respond()
}

func formatProfile(p *models.ShiftProfile) string {
	status := "Not running"
	connected := 0
	if p.ActiveShift != nil {
		elapsed := time.Since(p.ActiveShift.StartedAt)
		status = fmt.Sprintf("Started at %s (running %dh %dm)",
			p.ActiveShift.StartedAt.Format("2006-01-02 15:04"),
			int(elapsed.Hours()), int(elapsed.Minutes())%60)
		connected = len(p.ActiveShift.ConnectedDrivers)
	}
	return fmt.Sprintf("<b>📊 PROGRESSION</b> (%s)\n%s\n<b>Connected drivers:</b> %d\n<b>Total stars:</b> %d",
		p.Name, status, connected, p.TotalStars)
}

func (b *Bot) cbDriverApprove(c tele.Context, rest string) error {
	driverID := parseID(rest)
	if err := b.Stg.Driver().Update(driverID, func(d *models.Driver) { d.Status = models.DriverOffline }); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Driver not found"})
	}
	if err := c.Respond(&tele.CallbackResponse{Text: "Driver approved"}); err != nil {
		return err
	}
	if _, err := b.Bot.Send(&tele.User{ID: driverID}, i18n.T(b.langOf(driverID), i18n.RegApproved), driverOfflineKeyboard()); err != nil {
		b.Log.Error("failed to notify approved driver", logger.Int64("driver_id", driverID), logger.Error(err))
	}
	_ = c.Delete()
	return nil
}

func (b *Bot) cbDriverReject(c tele.Context, rest string) error {
	driverID := parseID(rest)
	_ = b.Stg.Driver().Delete(driverID)
	if err := c.Respond(&tele.CallbackResponse{Text: "Driver rejected"}); err != nil {
		return err
	}
	_ = b.SendText(driverID, "Your registration was rejected.")
	_ = c.Delete()
	return nil
}

func (b *Bot) cbArchiveApprove(c tele.Context, rest string) error {
	orderID := parseID(rest)
	if err := c.Respond(&tele.CallbackResponse{Text: "Archive approved"}); err != nil {
		return err
	}
	_ = c.Delete()
	if orderID > 0 {
		if err := b.Svc.Dispatch().Archive(orderID); err != nil {
			return c.Send("Order not found")
		}
		return c.Send(fmt.Sprintf("Order %s archived.", orderTag(orderID)))
	}
	days := b.Stg.Settings().ArchiveDays
	n := b.Svc.Dispatch().ArchiveOlderThan(days)
	return c.Send(fmt.Sprintf("Archived %d orders older than %d days.", n, days))
}

func (b *Bot) cbArchiveReject(c tele.Context) error {
	if err := c.Respond(&tele.CallbackResponse{Text: "Archive rejected"}); err != nil {
		return err
	}
	_ = c.Delete()
	return c.Send("Archive request rejected")
}

// cbTrackDriver sends the driver's last known position to the admin.
func (b *Bot) cbTrackDriver(c tele.Context, rest string) error {
	d, err := b.Stg.Driver().Get(parseID(rest))
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Driver not found"})
	}
	if d.LastKnown == nil {
		return c.Respond(&tele.CallbackResponse{Text: "No known location for this driver"})
	}
	if err := c.Respond(&tele.CallbackResponse{Text: "Last known location"}); err != nil {
		return err
	}
	return b.SendLocation(b.Cfg.AdminID, d.LastKnown.Latitude, d.LastKnown.Longitude)
}

func (b *Bot) cbDriverStats(c tele.Context, rest string) error {
	driverID := parseID(rest)
	d, err := b.Stg.Driver().Get(driverID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Driver not found"})
	}
	completed := b.Stg.Order().CompletedCountForDriver(driverID)
	active := len(b.Stg.Order().ActiveForDriver(driverID))
	if err := c.Respond(&tele.CallbackResponse{Text: "Driver stats"}); err != nil {
		return err
	}
	return c.Send(fmt.Sprintf("%s: %d completed, %d active", d.Name, completed, active))
}
