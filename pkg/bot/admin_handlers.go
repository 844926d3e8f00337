package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v3"

	"courierbot/pkg/logger"
	"courierbot/pkg/models"
	"courierbot/service"
)

const (
	sectionOrders    = "ORDERS"
	sectionActive    = "ACTIVE"
	sectionCompleted = "COMPLETED"
)

var pinRe = regexp.MustCompile(`^[0-9]{4}$`)

func (b *Bot) ordersBySection(section string) []*models.Order {
	switch section {
	case sectionOrders:
		return b.Stg.Order().ByStatus(models.StatusNew)
	case sectionActive:
		return b.Stg.Order().ByStatus(models.StatusAssigned, models.StatusPickedUp, models.StatusArrived)
	case sectionCompleted:
		return b.Stg.Order().ByStatus(models.StatusCompleted, models.StatusCancelled, models.StatusArchived)
	}
	return nil
}

func (b *Bot) sendOrdersList(section string) error {
	list := b.ordersBySection(section)
	if len(list) == 0 {
		return b.SendText(b.Cfg.AdminID, fmt.Sprintf("%s: (no orders)", section))
	}
	menu := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, o := range list {
		label := fmt.Sprintf("%s %s for %s", o.Status.Emoji(), orderTag(o.ID), o.CustomerName)
		rows = append(rows, menu.Row(menu.Data(label, fmt.Sprintf("open:%d:%s", o.ID, section))))
	}
	rows = append(rows, menu.Row(menu.Data("⬅️ Go back", "back:menu")))
	menu.Inline(rows...)
	_, err := b.Bot.Send(&tele.User{ID: b.Cfg.AdminID}, fmt.Sprintf("%s — %d orders", section, len(list)), menu)
	return err
}

func (b *Bot) sendOrderDetails(orderID int64, editMode bool, backTarget string) error {
	o, err := b.Stg.Order().GetByID(orderID)
	if err != nil {
		return b.SendText(b.Cfg.AdminID, "Order not found")
	}
	_, err = b.Bot.Send(&tele.User{ID: b.Cfg.AdminID}, FormatOrder(o),
		adminOrderKeyboard(o, editMode, backTarget), tele.ModeHTML, tele.NoPreview)
	return err
}

// sendAdminMenu shows the reply keyboard plus a card per connected driver.
func (b *Bot) sendAdminMenu() error {
	admin := &tele.User{ID: b.Cfg.AdminID}
	if _, err := b.Bot.Send(admin, "Admin menu", adminMainKeyboard(b.Stg.Settings().EmojisMode)); err != nil {
		return err
	}
	connected := b.Stg.Driver().Connected()
	if len(connected) == 0 {
		return b.SendText(b.Cfg.AdminID, "Connected drivers: (none)")
	}
	for _, d := range connected {
		label := fmt.Sprintf("%s — %s", d.Name, d.Status)
		if _, err := b.Bot.Send(admin, label, driverCardKeyboard(d)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) sendStatsMenu() error {
	_, err := b.Bot.Send(&tele.User{ID: b.Cfg.AdminID}, "Profiles", profilesListKeyboard(b.Stg.Profile().All()))
	return err
}

func (b *Bot) adminText(c tele.Context) error {
	text := strings.TrimSpace(c.Text())

	switch text {
	case "📥ORDERS", "📥":
		return b.sendOrdersList(sectionOrders)
	case "⚡ACTIVE", "⚡":
		return b.sendOrdersList(sectionActive)
	case "✅COMPLETED", "✅":
		return b.sendOrdersList(sectionCompleted)
	case "➕NEW", "➕":
		return b.createAndOpenOrder(c.Sender())
	case "📊STATS", "📊":
		return b.sendStatsMenu()
	case "⚙️SETTINGS", "⚙️":
		s := b.Stg.Settings()
		_, err := b.Bot.Send(&tele.User{ID: b.Cfg.AdminID}, "Settings", adminSettingsKeyboard(s.ArchiveDays, s.EmojisMode))
		return err
	}

	if handled, err := b.profileDraftText(c, text); handled {
		return err
	}
	if handled, err := b.adminForwarded(c); handled {
		return err
	}
	if handled, err := b.pendingQRPayload(c); handled {
		return err
	}

	tok, handled, err := b.Svc.Dispatch().ApplyEditText(c.Sender().ID, text)
	if !handled {
		return nil
	}
	if err != nil {
		// amount did not parse; keep the marker so the admin can retry
		b.Svc.Dispatch().BeginEdit(c.Sender().ID, tok.OrderID, tok.Field)
		return c.Send(fmt.Sprintf("Send the amount like $12.50 for order %s", orderTag(tok.OrderID)))
	}
	return b.confirmEdit(c, tok)
}

// confirmEdit acknowledges an applied edit and re-opens the order card.
func (b *Bot) confirmEdit(c tele.Context, tok service.EditToken) error {
	o, err := b.Stg.Order().GetByID(tok.OrderID)
	if err != nil {
		return c.Send("Order not found")
	}
	var msg string
	switch tok.Field {
	case service.EditTotalAmount:
		msg = fmt.Sprintf("Total updated: %g", deref(o.TotalAmount))
	case service.EditGivenCash:
		msg = fmt.Sprintf("Given cash set: %g — change: %g", deref(o.GivenCash), deref(o.ChangeCash))
	case service.EditCustomerName:
		msg = fmt.Sprintf("Customer name updated for order %s", orderTag(o.ID))
	case service.EditItems:
		msg = fmt.Sprintf("Items updated for order %s", orderTag(o.ID))
	case service.EditAttachMedia:
		msg = fmt.Sprintf("Attachment saved for order %s", orderTag(o.ID))
	case service.EditCustomer:
		msg = fmt.Sprintf("Customer updated for order %s", orderTag(o.ID))
	default:
		msg = fmt.Sprintf("Location updated for order %s", orderTag(o.ID))
	}
	if err := c.Send(msg); err != nil {
		return err
	}
	return b.sendOrderDetails(tok.OrderID, true, "")
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func (b *Bot) createAndOpenOrder(from *tele.User) error {
	id := from.ID
	order := b.Svc.Dispatch().Create(service.CreateOrderParams{
		CustomerName: from.FirstName,
		CustomerID:   &id,
	})
	if err := b.SendText(b.Cfg.AdminID, "New order created. Opening for edit..."); err != nil {
		return err
	}
	return b.sendOrderDetails(order.ID, true, sectionOrders)
}

// adminForwarded turns a forwarded message into a new order. A single online
// driver gets it immediately; otherwise the admin dispatches via the GO
// button.
func (b *Bot) adminForwarded(c tele.Context) (bool, error) {
	m := c.Message()
	if m.OriginalSender == nil && m.OriginalSenderName == "" && m.OriginalChat == nil {
		return false, nil
	}

	customerName := "(unknown)"
	var customerID *int64
	if m.OriginalSender != nil {
		id := m.OriginalSender.ID
		customerID = &id
		customerName = strings.TrimSpace(m.OriginalSender.FirstName + " " + m.OriginalSender.LastName)
	} else if m.OriginalSenderName != "" {
		customerName = m.OriginalSenderName
	}

	var mapLink string
	switch {
	case m.Location != nil:
		mapLink = models.LocationLink(float64(m.Location.Lat), float64(m.Location.Lng))
	case strings.Contains(m.Text, "http"):
		mapLink = m.Text
	default:
		mapLink = m.Caption
	}
	items := m.Caption
	if items == "" {
		items = m.Text
	}
	if items == "" {
		items = "(forwarded message)"
	}

	order := b.Svc.Dispatch().Create(service.CreateOrderParams{
		CustomerName: customerName,
		CustomerID:   customerID,
		MapLink:      mapLink,
		Items:        items,
	})

	if len(b.onlineDrivers()) == 1 {
		if _, err := b.Svc.Dispatch().Assign(order.ID); err == nil {
			b.sendDriverReadyCard(order.ID)
		}
	}

	_, err := b.Bot.Send(&tele.User{ID: b.Cfg.AdminID},
		fmt.Sprintf("Forwarded order created %s from %s\nItems: %s", orderTag(order.ID), customerName, items),
		adminOrderQuickActions(order.ID), tele.ModeHTML, tele.NoPreview)
	if err != nil {
		return true, err
	}

	if order.CustomerID == nil {
		b.Svc.Dispatch().BeginEdit(c.Sender().ID, order.ID, service.EditCustomer)
		return true, c.Send(fmt.Sprintf(
			"Order %s has no customer id. Reply with a contact or send /setcustomer <user_id> or /setcustomer @username",
			orderTag(order.ID)))
	}
	return true, nil
}

func (b *Bot) onlineDrivers() []*models.Driver {
	var out []*models.Driver
	for _, d := range b.Stg.Driver().All() {
		if d.Status == models.DriverOnline {
			out = append(out, d)
		}
	}
	return out
}

// sendDriverReadyCard pushes the order card with PICKUP/MAP buttons to the
// assigned driver.
func (b *Bot) sendDriverReadyCard(orderID int64) {
	o, err := b.Stg.Order().GetByID(orderID)
	if err != nil || o.DriverID == nil {
		return
	}
	_, err = b.Bot.Send(&tele.User{ID: *o.DriverID},
		"Order for you:\n"+FormatOrder(o),
		driverReadyKeyboard(orderID), tele.ModeHTML, tele.NoPreview)
	if err != nil {
		b.Log.Error("failed to send order to driver", logger.Int64("driver_id", *o.DriverID), logger.Error(err))
	}
}

func (b *Bot) adminLocation(c tele.Context) error {
	loc := c.Message().Location
	tok, handled, err := b.Svc.Dispatch().ApplyEditLocation(c.Sender().ID, float64(loc.Lat), float64(loc.Lng))
	if !handled {
		return nil
	}
	if err != nil {
		return err
	}
	if err := c.Send(fmt.Sprintf("Location attached to order %s", orderTag(tok.OrderID))); err != nil {
		return err
	}
	return b.sendOrderDetails(tok.OrderID, true, "")
}

func (b *Bot) adminContact(c tele.Context) error {
	contact := c.Message().Contact
	name := strings.TrimSpace(contact.FirstName + " " + contact.LastName)
	tok, handled, err := b.Svc.Dispatch().ApplyEditContact(c.Sender().ID, contact.UserID, name)
	if !handled {
		return nil
	}
	if err != nil {
		return err
	}
	if err := c.Send(fmt.Sprintf("Customer updated for order %s", orderTag(tok.OrderID))); err != nil {
		return err
	}
	return b.sendOrderDetails(tok.OrderID, true, "")
}

func (b *Bot) adminMedia(c tele.Context) error {
	if handled, err := b.pendingQRPayload(c); handled {
		return err
	}
	if handled, err := b.adminForwarded(c); handled {
		return err
	}
	media := mediaFromMessage(c.Message())
	if media == nil {
		return nil
	}
	tok, handled, err := b.Svc.Dispatch().ApplyEditMedia(c.Sender().ID, media)
	if !handled {
		return nil
	}
	if err != nil {
		return err
	}
	return b.confirmEdit(c, tok)
}

func mediaFromMessage(m *tele.Message) *models.Media {
	switch {
	case m.Photo != nil:
		return &models.Media{Type: models.MediaPhoto, FileID: m.Photo.FileID}
	case m.Document != nil:
		return &models.Media{Type: models.MediaDocument, FileID: m.Document.FileID, Name: m.Document.FileName}
	case m.Text != "":
		return &models.Media{Type: models.MediaText, Text: m.Text}
	}
	return nil
}

// pendingQRPayload stores the next admin payload as the media of the QR code
// created by the "Add QR" button.
func (b *Bot) pendingQRPayload(c tele.Context) (bool, error) {
	b.mu.Lock()
	qid := b.pendingQR
	b.pendingQR = ""
	b.mu.Unlock()
	if qid == "" {
		return false, nil
	}
	q, err := b.Stg.QR().Get(qid)
	if err != nil {
		return true, c.Send("QR not found")
	}
	media := mediaFromMessage(c.Message())
	if media == nil {
		return true, c.Send("Unsupported attachment payload. Send a photo, document, or text.")
	}
	if err := b.Stg.QR().Update(qid, func(q *models.QRCode) { q.Media = media }); err != nil {
		return true, err
	}
	return true, c.Send(fmt.Sprintf("QR %s saved for %s", media.Type, q.Code))
}

// profileDraftText walks the shift-profile creation dialogue: name, PIN,
// PIN again.
func (b *Bot) profileDraftText(c tele.Context, text string) (bool, error) {
	b.mu.Lock()
	draft := b.pendingProfile
	b.mu.Unlock()
	if draft == nil {
		return false, nil
	}

	switch draft.Step {
	case draftStepName:
		draft.Name = text
		draft.Step = draftStepPIN
		return true, c.Send("Send a 4-digit numeric PIN for this profile (will be stored)")
	case draftStepPIN:
		if !pinRe.MatchString(text) {
			return true, c.Send("PIN must be 4 digits. Send PIN again.")
		}
		draft.PIN = text
		draft.Step = draftStepConfirm
		return true, c.Send(fmt.Sprintf("Confirm PIN by sending it again to complete creation of profile '%s'", draft.Name))
	case draftStepConfirm:
		b.mu.Lock()
		b.pendingProfile = nil
		b.mu.Unlock()
		if text != draft.PIN {
			return true, c.Send("PIN confirmation failed — profile creation cancelled.")
		}
		p := b.Stg.Profile().Create(draft.Name, draft.PIN)
		if err := c.Send(fmt.Sprintf("Profile created: %s (id:%d)", p.Name, p.ID)); err != nil {
			return true, err
		}
		return true, b.sendStatsMenu()
	}
	return false, nil
}

// Admin commands

func (b *Bot) handleCreateNewOrder(c tele.Context) error {
	if !b.isAdmin(c.Sender().ID) {
		return nil
	}
	return b.createAndOpenOrder(c.Sender())
}

func (b *Bot) handleSetSetting(c tele.Context) error {
	if !b.isAdmin(c.Sender().ID) {
		return nil
	}
	args := c.Args()
	if len(args) != 2 {
		return c.Send("Usage: /setsetting <key> <numeric_value>")
	}
	val, err := strconv.Atoi(args[1])
	if err != nil {
		return c.Send("Usage: /setsetting <key> <numeric_value>")
	}
	switch args[0] {
	case "archiveDays":
		b.Stg.UpdateSettings(func(s *models.Settings) { s.ArchiveDays = val })
	case "emojisMode":
		b.Stg.UpdateSettings(func(s *models.Settings) { s.EmojisMode = val != 0 })
	case "groupLogRotateBytes":
		b.Stg.UpdateSettings(func(s *models.Settings) { s.GroupLogRotateBytes = int64(val) })
	default:
		return c.Send(fmt.Sprintf("Unknown setting %q", args[0]))
	}
	return c.Send(fmt.Sprintf("Setting %s set to %d", args[0], val))
}

func (b *Bot) handleSetCustomer(c tele.Context) error {
	if !b.isAdmin(c.Sender().ID) {
		return nil
	}
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /setcustomer <user_id|@username>")
	}
	tok, ok := b.Svc.Dispatch().PendingEdit(c.Sender().ID)
	if !ok || tok.Field != service.EditCustomer {
		return c.Send("No order is waiting for customer assignment.")
	}

	val := args[0]
	var userID int64
	var name string
	if strings.HasPrefix(val, "@") {
		username := strings.TrimPrefix(val, "@")
		if cust, ok := b.Stg.Customer().ByUsername(username); ok {
			userID, name = cust.ID, cust.Name
		} else if drv, ok := b.driverByUsername(username); ok {
			userID, name = drv.ID, drv.Name
		} else {
			return c.Send(fmt.Sprintf("Username %s not found in known users.", val))
		}
	} else {
		id, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return c.Send("Invalid id")
		}
		userID = id
	}

	b.Svc.Dispatch().ClearEdit(c.Sender().ID)
	if err := b.Svc.Dispatch().SetCustomer(tok.OrderID, &userID, name); err != nil {
		return err
	}
	return c.Send(fmt.Sprintf("Order %s assigned to user %d", orderTag(tok.OrderID), userID))
}

func (b *Bot) driverByUsername(username string) (*models.Driver, bool) {
	for _, d := range b.Stg.Driver().All() {
		if d.Username == username {
			return d, true
		}
	}
	return nil, false
}

func (b *Bot) handleSetOrderCounter(c tele.Context) error {
	if !b.isAdmin(c.Sender().ID) {
		return nil
	}
	args := c.Args()
	if len(args) < 1 {
		return c.Send("Usage: /setordercounter <positive_number> [force]")
	}
	requested, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || requested < 1 {
		return c.Send("Usage: /setordercounter <positive_number> [force]")
	}
	force := len(args) > 1 && strings.EqualFold(args[1], "force")

	maxID := b.Stg.Order().MaxID()
	if requested <= maxID && !force {
		return c.Send(fmt.Sprintf(
			"Refusing to set %d because max existing order_id is %d. To force this anyway, run: /setordercounter %d force",
			requested, maxID, requested))
	}
	b.Stg.SetOrderCounter(requested)
	suffix := ""
	if force {
		suffix = " (forced)"
	}
	return c.Send(fmt.Sprintf("orderCounter set to %06d%s", requested, suffix))
}

func (b *Bot) handleClearAdminUI(c tele.Context) error {
	if !b.isAdmin(c.Sender().ID) {
		return nil
	}
	return c.Send("Admin menu", adminMainKeyboard(b.Stg.Settings().EmojisMode))
}

// handleArchiveRequest posts an approve/reject prompt: with an order id it
// archives that order, without one it retires everything past the retention
// window.
func (b *Bot) handleArchiveRequest(c tele.Context) error {
	if !b.isAdmin(c.Sender().ID) {
		return nil
	}
	var orderID int64
	if args := c.Args(); len(args) == 1 {
		orderID, _ = strconv.ParseInt(args[0], 10, 64)
	}
	text := "Request to archive old orders"
	if orderID > 0 {
		text = fmt.Sprintf("Request to archive order %s", orderTag(orderID))
	}
	_, err := b.Bot.Send(&tele.User{ID: b.Cfg.AdminID}, text, archiveApproveKeyboard(orderID))
	return err
}

func (b *Bot) newQRCode() *models.QRCode {
	q := &models.QRCode{
		ID:        uuid.NewString(),
		Code:      "QR-" + strings.ToUpper(uuid.NewString()[:8]),
		Enabled:   true,
		CreatedAt: time.Now(),
	}
	b.Stg.QR().Add(q)
	return q
}
