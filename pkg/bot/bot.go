// Package bot is the telebot surface of the dispatcher: inbound updates are
// routed to admin, driver, and customer flows, and the Bot itself implements
// the outbound gateway the services notify through.
package bot

import (
	"fmt"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"

	"courierbot/config"
	"courierbot/pkg/i18n"
	"courierbot/pkg/logger"
	"courierbot/service"
	"courierbot/storage"
)

type profileDraft struct {
	Step string // "name", "pin", "confirm"
	Name string
	PIN  string
}

const (
	draftStepName    = "name"
	draftStepPIN     = "pin"
	draftStepConfirm = "confirm"
)

type Bot struct {
	Bot *tele.Bot
	Cfg *config.Config
	Stg storage.IStorage
	Svc service.IServiceManager
	Log logger.ILogger

	// admin-side transient state; updates arrive sequentially so a plain
	// mutex is enough
	mu             sync.Mutex
	pendingQR      string // qr id awaiting its media upload
	pendingProfile *profileDraft

	lastErr string
	backoff time.Duration
}

const (
	pollBackoffMin = time.Second
	pollBackoffMax = time.Minute
)

func New(cfg *config.Config, stg storage.IStorage, log logger.ILogger) (*Bot, error) {
	bot := &Bot{
		Cfg: cfg,
		Stg: stg,
		Log: log,
	}
	// the error callback is a Settings field read at construction
	pref := tele.Settings{
		Token:   cfg.TelegramBotToken,
		Poller:  &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: bot.onError,
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}
	bot.Bot = b
	return bot, nil
}

// Attach wires the service layer in and registers the update handlers. The
// services need the Bot as their gateway first, hence the two-step setup.
func (b *Bot) Attach(svc service.IServiceManager) {
	b.Svc = svc
	b.registerHandlers()
}

func (b *Bot) Start() {
	b.Log.Info("🤖 Bot Started...")
	b.Bot.Start()
}

func (b *Bot) Stop() {
	b.Bot.Stop()
}

// onError logs poller and handler errors, collapsing repeats so a flaky
// network does not flood the log. Repeated poller errors back off
// exponentially up to a minute before the next poll attempt.
func (b *Bot) onError(err error, c tele.Context) {
	if err == nil {
		return
	}
	b.mu.Lock()
	dup := err.Error() == b.lastErr
	b.lastErr = err.Error()
	if dup {
		b.backoff *= 2
		if b.backoff > pollBackoffMax {
			b.backoff = pollBackoffMax
		}
	} else {
		b.backoff = pollBackoffMin
	}
	wait := b.backoff
	b.mu.Unlock()

	if c != nil && c.Sender() != nil {
		if !dup {
			b.Log.Error("handler error", logger.Int64("user_id", c.Sender().ID), logger.Error(err))
		}
		return
	}
	if !dup {
		b.Log.Error("bot error, backing off", logger.String("backoff", wait.String()), logger.Error(err))
	}
	// runs on the poller goroutine, so sleeping here delays the retry
	time.Sleep(wait)
}

func (b *Bot) registerHandlers() {
	b.Bot.Handle("/start", b.handleStart)
	b.Bot.Handle("/register", b.handleRegister)
	b.Bot.Handle("/connect", b.handleConnect)
	b.Bot.Handle("/disconnect", b.handleDisconnect)
	b.Bot.Handle("/pickup", b.handlePickupCmd)
	b.Bot.Handle("/arrived", b.handleArrivedCmd)
	b.Bot.Handle("/complete", b.handleCompleteCmd)
	b.Bot.Handle("/en", b.handleLangEN)
	b.Bot.Handle("/kh", b.handleLangKH)

	b.Bot.Handle("/create_new_order", b.handleCreateNewOrder)
	b.Bot.Handle("/setsetting", b.handleSetSetting)
	b.Bot.Handle("/setcustomer", b.handleSetCustomer)
	b.Bot.Handle("/setordercounter", b.handleSetOrderCounter)
	b.Bot.Handle("/clear_admin_ui", b.handleClearAdminUI)
	b.Bot.Handle("/archive", b.handleArchiveRequest)

	b.Bot.Handle(tele.OnText, b.handleText)
	b.Bot.Handle(tele.OnLocation, b.handleLocation)
	b.Bot.Handle(tele.OnContact, b.handleContact)
	b.Bot.Handle(tele.OnPhoto, b.handleMedia)
	b.Bot.Handle(tele.OnDocument, b.handleMedia)
	b.Bot.Handle(tele.OnCallback, b.handleCallback)
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.Cfg.AdminID != 0 && userID == b.Cfg.AdminID
}

func (b *Bot) langOf(userID int64) string {
	if d, err := b.Stg.Driver().Get(userID); err == nil && d.Lang != "" {
		return d.Lang
	}
	if c, err := b.Stg.Customer().Get(userID); err == nil && c.Lang != "" {
		return c.Lang
	}
	return i18n.LangEN
}

// Gateway implementation. Services push notifications through these.

func (b *Bot) SendText(userID int64, text string) error {
	_, err := b.Bot.Send(&tele.User{ID: userID}, text, tele.ModeHTML, tele.NoPreview)
	return err
}

func (b *Bot) SendLocation(userID int64, lat, lon float64) error {
	loc := &tele.Location{Lat: float32(lat), Lng: float32(lon)}
	_, err := b.Bot.Send(&tele.User{ID: userID}, loc)
	return err
}

func (b *Bot) PromptFeedback(userID, orderID int64) error {
	_, err := b.Bot.Send(&tele.User{ID: userID},
		"Thank you for ordering! Please rate your delivery experience.",
		feedbackKeyboard(orderID))
	return err
}

func (b *Bot) notifyAdmin(text string) {
	if b.Cfg.AdminID == 0 {
		b.Log.Info("no admin configured, dropping notice", logger.String("text", text))
		return
	}
	if err := b.SendText(b.Cfg.AdminID, text); err != nil {
		b.Log.Error("failed to notify admin", logger.Error(err))
	}
}

func orderTag(id int64) string {
	return fmt.Sprintf("#%04d", id)
}
