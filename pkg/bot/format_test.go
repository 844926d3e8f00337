package bot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"courierbot/pkg/bot"
	"courierbot/pkg/models"
)

func TestFormatOrder(t *testing.T) {
	custID := int64(200)
	total := 12.50
	given := 20.0
	change := 7.50
	o := &models.Order{
		ID:             42,
		Status:         models.StatusPickedUp,
		CustomerName:   "Dara <script>",
		CustomerID:     &custID,
		MapLink:        "location:11.55,104.92",
		TotalAmount:    &total,
		GivenCash:      &given,
		ChangeCash:     &change,
		PaymentMethod:  models.PaymentCash,
		PaidStatus:     models.PaidStatusPaid,
		DriverAssigned: true,
		DriverName:     "Rith",
		DriverStatus:   string(models.DriverBusy),
		Items:          "2x noodles",
	}

	card := bot.FormatOrder(o)

	assert.Contains(t, card, "#0042")
	assert.Contains(t, card, `tg://user?id=200`)
	// names are escaped before they reach HTML mode
	assert.Contains(t, card, "Dara &lt;script&gt;")
	assert.NotContains(t, card, "<script>")
	assert.Contains(t, card, "12.50")
	assert.Contains(t, card, "💰 20.00")
	assert.Contains(t, card, "💱 7.50")
	assert.Contains(t, card, "Rith")
	assert.Contains(t, card, "2x noodles")
}

func TestFormatOrderMinimal(t *testing.T) {
	o := &models.Order{ID: 7, Status: models.StatusNew, CustomerName: "Dara"}
	card := bot.FormatOrder(o)

	assert.Contains(t, card, "#0007")
	assert.Contains(t, card, "Dara")
	// QR orders carry no cash lines
	assert.NotContains(t, card, "💰")
}
