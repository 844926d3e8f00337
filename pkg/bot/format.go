package bot

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"courierbot/pkg/models"
)

var urlRe = regexp.MustCompile(`(?i)https?://`)

// FormatOrder renders the HTML order card shown to the admin and drivers.
func FormatOrder(o *models.Order) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("%s %s", o.Status.Emoji(), orderTag(o.ID)))

	name := html.EscapeString(o.CustomerName)
	if o.CustomerID != nil {
		if name == "" {
			name = fmt.Sprintf("%d", *o.CustomerID)
		}
		lines = append(lines, fmt.Sprintf(`👤 <a href="tg://user?id=%d">%s</a>`, *o.CustomerID, name))
	} else {
		lines = append(lines, "👤 "+name)
	}

	lines = append(lines, "📍 "+formatMapLink(o.MapLink))

	money := "💲 "
	if o.TotalAmount != nil {
		money += fmt.Sprintf("%.2f", *o.TotalAmount)
	}
	if o.PaidStatus != "" {
		money += " " + html.EscapeString(o.PaidStatus)
	}
	if o.PaymentMethod != "" {
		money += " by " + html.EscapeString(o.PaymentMethod)
	}
	lines = append(lines, strings.TrimRight(money, " "))
	if o.PaymentMethod == models.PaymentCash {
		given, change := "", ""
		if o.GivenCash != nil {
			given = fmt.Sprintf("%.2f", *o.GivenCash)
		}
		if o.ChangeCash != nil {
			change = fmt.Sprintf("%.2f", *o.ChangeCash)
		}
		lines = append(lines, "💰 "+given, "💱 "+change)
	}

	driverEmoji := "🚀"
	if o.DriverAssigned {
		switch o.DriverStatus {
		case string(models.DriverBusy):
			driverEmoji = "🟡"
		case string(models.DriverAssigned):
			driverEmoji = "🔵"
		}
	}
	dname := html.EscapeString(o.DriverName)
	if o.DriverID != nil {
		if dname == "" {
			dname = fmt.Sprintf("%d", *o.DriverID)
		}
		lines = append(lines, fmt.Sprintf(`%s <a href="tg://user?id=%d">%s</a>`, driverEmoji, *o.DriverID, dname))
	} else {
		lines = append(lines, driverEmoji+" "+dname)
	}

	lines = append(lines, "📃 "+html.EscapeString(o.Items))
	if o.Feedback != nil {
		lines = append(lines, fmt.Sprintf("⭐ %d", *o.Feedback))
	}
	lines = append(lines, "📅 "+o.CreatedAt.Format("02 Jan. 06 15:04"))
	return strings.Join(lines, "\n")
}

// formatMapLink turns a destination into a short clickable label: coordinate
// links and URLs become "map link", anything else (codename, instructions)
// shows verbatim.
func formatMapLink(link string) string {
	if ll, ok := models.ParseLocationLink(link); ok {
		g := fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%f,%f", ll.Latitude, ll.Longitude)
		return fmt.Sprintf(`<a href="%s">map link</a>`, g)
	}
	if urlRe.MatchString(link) {
		return fmt.Sprintf(`<a href="%s">map link</a>`, html.EscapeString(link))
	}
	return html.EscapeString(link)
}
