package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"courierbot/pkg/models"
)

// Reply keyboards

func adminMainKeyboard(emojisMode bool) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	if emojisMode {
		menu.Reply(
			menu.Row(menu.Text("📥"), menu.Text("⚡"), menu.Text("✅")),
			menu.Row(menu.Text("➕"), menu.Text("📊"), menu.Text("⚙️")),
		)
		return menu
	}
	menu.Reply(
		menu.Row(menu.Text("📥ORDERS"), menu.Text("⚡ACTIVE"), menu.Text("✅COMPLETED")),
		menu.Row(menu.Text("➕NEW"), menu.Text("📊STATS"), menu.Text("⚙️SETTINGS")),
	)
	return menu
}

func driverOfflineKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text("🚀CONNECT")),
		menu.Row(menu.Text("📊STATS"), menu.Text("⚙️SETTINGS")),
	)
	return menu
}

func driverOnlineKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text("✖️LOGOUT"), menu.Text("📥MY ORDERS")),
		menu.Row(menu.Text("📊STATS"), menu.Text("⚙️SETTINGS")),
	)
	return menu
}

func driverSettingsKeyboard(lang string) *tele.ReplyMarkup {
	toggle := "🇰🇭"
	if lang == "kh" {
		toggle = "EN"
	}
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text(toggle)),
		menu.Row(menu.Text("📊STATS"), menu.Text("⚙️SETTINGS")),
	)
	return menu
}

// Inline keyboards

func driverReadyKeyboard(orderID int64) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(
		menu.Data("🛍️ PICKUP", fmt.Sprintf("driver_pickup:%d", orderID)),
		menu.Data("🗺️ MAP", fmt.Sprintf("driver_route:%d", orderID)),
	))
	return menu
}

func driverActiveOrderKeyboard(orderID int64) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(
		menu.Data("🏁 ARRIVED", fmt.Sprintf("driver_arrived:%d", orderID)),
		menu.Data("🗺️ START LIVE", fmt.Sprintf("driver_start_live:%d", orderID)),
		menu.Data("⏰ DELAY", fmt.Sprintf("driver_delay:%d", orderID)),
	))
	return menu
}

func delayOptionsKeyboard(orderID int64) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(
		menu.Data("❕2mn", fmt.Sprintf("delay:2:%d", orderID)),
		menu.Data("❗5mn", fmt.Sprintf("delay:5:%d", orderID)),
		menu.Data("‼️+10mn", fmt.Sprintf("delay:10:%d", orderID)),
	))
	return menu
}

func driverApprovalKeyboard(driverID int64) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(
		menu.Data("✅ Approve", fmt.Sprintf("drv_approve:%d", driverID)),
		menu.Data("❌ Reject", fmt.Sprintf("drv_reject:%d", driverID)),
	))
	return menu
}

func adminOrderQuickActions(orderID int64) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(
		menu.Data("⚡ GO", fmt.Sprintf("go:%d", orderID)),
		menu.Data("❌ Cancel", fmt.Sprintf("cancel:%d", orderID)),
	))
	return menu
}

func adminSettingsKeyboard(archiveDays int, emojisMode bool) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	if emojisMode {
		menu.Inline(
			menu.Row(menu.Data("🔲", "settings:qr"), menu.Data("🎭", "settings:emojis")),
			menu.Row(menu.Data(fmt.Sprintf("🔁 %dd", archiveDays), "settings:archive"), menu.Data("⬅️", "back:menu")),
		)
		return menu
	}
	menu.Inline(
		menu.Row(menu.Data("Manage QR", "settings:qr"), menu.Data("Emojis mode", "settings:emojis")),
		menu.Row(menu.Data(fmt.Sprintf("Archive %dd", archiveDays), "settings:archive"), menu.Data("⬅️ Go back", "back:menu")),
	)
	return menu
}

func archiveDaysKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data("7d", "settings:set:archiveDays:7"), menu.Data("14d", "settings:set:archiveDays:14")),
		menu.Row(menu.Data("30d", "settings:set:archiveDays:30"), menu.Data("⬅️ Go back", "back:menu")),
	)
	return menu
}

func qrCodesListKeyboard(codes []*models.QRCode) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, q := range codes {
		check := "⬜"
		if q.Enabled {
			check = "✅"
		}
		rows = append(rows, menu.Row(
			menu.Data(fmt.Sprintf("%s %s", check, q.Code), fmt.Sprintf("qr:toggle:%s", q.ID)),
			menu.Data("⚙️", fmt.Sprintf("qr:opts:%s", q.ID)),
		))
	}
	rows = append(rows, menu.Row(menu.Data("➕ Add QR", "qr:add"), menu.Data("⬅️ Back", "back:menu")))
	menu.Inline(rows...)
	return menu
}

func qrOptionsKeyboard(qrID string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data("🔍 Preview", fmt.Sprintf("qr:preview:%s", qrID)), menu.Data("🗑️ Delete", fmt.Sprintf("qr:del:%s", qrID))),
		menu.Row(menu.Data("⬅️ Back", "settings:qr")),
	)
	return menu
}

func sendQRToOrderKeyboard(orderID int64, codes []*models.QRCode) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, q := range codes {
		check := "⬜"
		if q.Enabled {
			check = "✅"
		}
		rows = append(rows, menu.Row(menu.Data(fmt.Sprintf("%s %s", check, q.Code), fmt.Sprintf("qr:send:%s:%d", q.ID, orderID))))
	}
	rows = append(rows, menu.Row(menu.Data("Cancel", "back:menu")))
	menu.Inline(rows...)
	return menu
}

func adminOrderKeyboard(o *models.Order, editMode bool, backTarget string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	if !editMode {
		menu.Inline(
			menu.Row(
				menu.Data("⏮️", fmt.Sprintf("nav:prev:%d", o.ID)),
				menu.Data("⏭️", fmt.Sprintf("nav:next:%d", o.ID)),
			),
			menu.Row(
				menu.Data("🗑️ Delete", fmt.Sprintf("delete:%d", o.ID)),
				menu.Data("↩️ Go back", "back:menu"),
			),
		)
		return menu
	}
	total := 0.0
	if o.TotalAmount != nil {
		total = *o.TotalAmount
	}
	backCb := "back:menu"
	if backTarget != "" {
		backCb = "back:" + backTarget
	}
	menu.Inline(
		menu.Row(
			menu.Data("CASH", fmt.Sprintf("setpay:CASH:%d", o.ID)),
			menu.Data("QR", fmt.Sprintf("setpay:QR:%d", o.ID)),
			menu.Data("PAID", fmt.Sprintf("setpaid:%d", o.ID)),
			menu.Data(fmt.Sprintf("💲 %g", total), fmt.Sprintf("settotal:%d", o.ID)),
		),
		menu.Row(
			menu.Data("📌 Set location", fmt.Sprintf("setloc:%d", o.ID)),
			menu.Data("➕ Attach media", fmt.Sprintf("attach:%d", o.ID)),
			menu.Data("📲 Send QR", fmt.Sprintf("sendqr:%d", o.ID)),
		),
		menu.Row(
			menu.Data("✏️ Edit customer", fmt.Sprintf("editcust:%d", o.ID)),
			menu.Data("📝 Edit items", fmt.Sprintf("edititems:%d", o.ID)),
		),
		menu.Row(
			menu.Data("⚡Go", fmt.Sprintf("go:%d", o.ID)),
			menu.Data("❌ Cancel", fmt.Sprintf("cancel:%d", o.ID)),
			menu.Data("⬅️ Go back", backCb),
		),
	)
	return menu
}

func feedbackKeyboard(orderID int64) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(
		menu.Data("1", fmt.Sprintf("fb:1:%d", orderID)),
		menu.Data("2", fmt.Sprintf("fb:2:%d", orderID)),
		menu.Data("3", fmt.Sprintf("fb:3:%d", orderID)),
		menu.Data("4", fmt.Sprintf("fb:4:%d", orderID)),
		menu.Data("5", fmt.Sprintf("fb:5:%d", orderID)),
	))
	return menu
}

func etaKeyboard(orderID int64) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(menu.Data("❔ETA", fmt.Sprintf("eta:%d", orderID))))
	return menu
}

func customerOkKeyboard(orderID int64) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(menu.Data("OK", fmt.Sprintf("cust_ok:%d", orderID))))
	return menu
}

func openInMapsKeyboard(url string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(menu.URL("Open in Maps", url)))
	return menu
}

func archiveApproveKeyboard(orderID int64) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(
		menu.Data("✅ Approve", fmt.Sprintf("archive_approve:%d", orderID)),
		menu.Data("❌ Reject", fmt.Sprintf("archive_reject:%d", orderID)),
	))
	return menu
}

func profilesListKeyboard(profiles []*models.ShiftProfile) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	rows := []tele.Row{menu.Row(menu.Data("➕ NEW PROFILE", "stats:new_profile"))}
	for _, p := range profiles {
		rows = append(rows, menu.Row(menu.Data(fmt.Sprintf("%s (%d)", p.Name, p.ID), fmt.Sprintf("stats:open:%d", p.ID))))
	}
	rows = append(rows, menu.Row(menu.Data("⬅️ Go back", "back:menu")))
	menu.Inline(rows...)
	return menu
}

func profileKeyboard(p *models.ShiftProfile) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	var rows []tele.Row
	if p.ActiveShift == nil {
		rows = append(rows, menu.Row(menu.Data("▶️ Start shift", fmt.Sprintf("stats:start:%d", p.ID))))
	} else {
		rows = append(rows, menu.Row(menu.Data("⏹️ Close shift", fmt.Sprintf("stats:close:%d", p.ID))))
	}
	rows = append(rows, menu.Row(menu.Data("⬅️ Back", "stats:list")))
	menu.Inline(rows...)
	return menu
}

func driverCardKeyboard(d *models.Driver) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(
			menu.URL("🗨️ CHAT", fmt.Sprintf("tg://user?id=%d", d.ID)),
			menu.Data("🗺️ TRACK", fmt.Sprintf("admin_track:%d", d.ID)),
			menu.Data("📊 STATS", fmt.Sprintf("admin_drv_stats:%d", d.ID)),
		),
	)
	return menu
}
