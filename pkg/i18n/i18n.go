// Package i18n holds the localized user-facing strings. English is the
// default; Khmer is the second supported language, toggled per user.
package i18n

import "fmt"

const (
	LangEN = "en"
	LangKH = "kh"
)

const (
	Welcome         = "welcome"
	RegSent         = "reg_sent"
	RegApproved     = "reg_approved"
	NowOnline       = "now_online"
	NowOffline      = "now_offline"
	StartLivePrompt = "start_live_prompt"
	NoActiveLive    = "no_active_live"
	LiveStarted     = "live_started"
	LiveStopped     = "live_stopped"
	LiveExpired     = "live_expired"
	LiveEnded       = "live_ended"
	LiveShared      = "live_shared"
	LocationSaved   = "location_saved"
	PaymentReceived = "payment_received"
	PickedUpNotify  = "picked_up_notify"
	ArrivedNotify   = "arrived_notify"
	MarkedPaid      = "marked_paid"
	OrderNotFound   = "order_not_found"
	NoAdmin         = "no_admin"
	QROrderNotFound = "qr_or_order_not_found"
	OrderNoCustomer = "order_no_customer"
	QRSent          = "qr_sent"
)

var messages = map[string]map[string]string{
	LangEN: {
		Welcome:         "Welcome %s!\nUse the inline UI to order or send items as text.",
		RegSent:         "Registration sent to admin for approval.",
		RegApproved:     "Registration approved! You can now /connect",
		NowOnline:       "You are now online 🟢",
		NowOffline:      "You are now offline 🔴",
		StartLivePrompt: "Please send your live location now (use Telegram location attachment)",
		NoActiveLive:    "No active live session. Use START LIVE before sending location.",
		LiveStarted:     "%s started sharing live location (valid until %s).",
		LiveStopped:     "%s stopped sharing live location.",
		LiveExpired:     "Live location session expired.",
		LiveEnded:       "Driver live location sharing has ended.",
		LiveShared:      "%s shared live location (valid until %s).",
		LocationSaved:   "Location saved to your order.",
		PaymentReceived: "Thanks — payment received for order #%04d.",
		PickedUpNotify:  "Your order #%04d has been picked up. 🚀",
		ArrivedNotify:   "Hi, your order #%04d has arrived. Please collect your order.",
		MarkedPaid:      "Marked as PAID",
		OrderNotFound:   "Order not found",
		NoAdmin:         "No admin set",
		QROrderNotFound: "QR or order not found",
		OrderNoCustomer: "Order has no customer",
		QRSent:          "QR sent to customer",
	},
	LangKH: {
		Welcome:         "សូមស្វាគមន៍ %s!\nប្រើ UI ដើម្បីបញ្ជាទិញ ឬផ្ញើររបស់។",
		RegSent:         "ការចុះបញ្ជីបានផ្ញើទៅអ្នកគ្រប់គ្រងសម្រាប់អនុម័ត។",
		RegApproved:     "បានអនុម័ត! អ្នកឥឡូវអាច /connect",
		NowOnline:       "អ្នកត្រូវបានភ្ជាប់ 🟢",
		NowOffline:      "អ្នកបានបិទ🔴",
		StartLivePrompt: "សូមផ្ញើទីតាំងបច្ចុប្បន្ន (location)",
		NoActiveLive:    "មិនមានសន្និសីទផ្តល់ទីតាំង។ សូមចាប់ផ្តើម START LIVE",
		LiveStarted:     "%s បានចែករំលែកទីតាំង (មានសុពលភាពរហូតដល់ %s)។",
		LiveStopped:     "%s បានបញ្ឈប់ការចែករំលែកទីតាំង។",
		LiveExpired:     "សន្និសីទផ្ដល់ទីតាំងបានផុតកំណត់។",
		LiveEnded:       "ការចែករំលែកទីតាំងរបស់អ្នកបេក្ខភាពបានបញ្ចប់។",
		LiveShared:      "%s បានចែករំលែកទីតាំង (មានសុពលភាពរហូតដល់ %s)។",
		LocationSaved:   "ទីតាំងត្រូវបានរក្សាទុកទៅក្នុងការបញ្ជាទិញរបស់អ្នក។",
		PaymentReceived: "អរគុណ — បានទទួលការទូទាត់សម្រាប់បញ្ជាទិញ #%04d.",
		PickedUpNotify:  "បញ្ជាទិញលេខ #%04d ត្រូវបានយក។ 🚀",
		ArrivedNotify:   "ប្ដូរទំនិញរបស់អ្នក #%04d បានមកដល់។",
		MarkedPaid:      "បានត្រូវបានកំណត់ជា PAID",
		OrderNotFound:   "មិនបានរកឃើញការបញ្ជាទិញ",
		NoAdmin:         "មិនមានអ្នកគ្រប់គ្រង",
		QROrderNotFound: "QR ឬការបញ្ជាទិញមិនជាក់ស្តែង",
		OrderNoCustomer: "ការបញ្ជាទិញមិនមានអតិថិជន",
		QRSent:          "QR ត្រូវបានផ្ញើទៅអតិថិជន",
	},
}

// T renders the message for lang, falling back to English for unknown
// languages or untranslated keys.
func T(lang, key string, args ...interface{}) string {
	m, ok := messages[lang]
	if !ok {
		m = messages[LangEN]
	}
	tmpl, ok := m[key]
	if !ok {
		tmpl, ok = messages[LangEN][key]
		if !ok {
			return ""
		}
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
