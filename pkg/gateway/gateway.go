// Package gateway is the narrow seam between the dispatch core and the
// messaging platform. The core only ever needs to push a text, a location,
// or a feedback prompt to a user id; everything else (keyboards, menus,
// transports) stays on the bot side of the seam.
package gateway

// Gateway delivers outbound notifications. Implementations are fire and
// forget: errors are for the caller's log, a failed send never rolls back
// the state change that triggered it.
type Gateway interface {
	SendText(userID int64, text string) error
	SendLocation(userID int64, lat, lon float64) error
	// PromptFeedback asks the user to rate a completed order from 1 to 5.
	PromptFeedback(userID, orderID int64) error
}

// Nop discards every send. Useful when no admin is configured.
type Nop struct{}

func (Nop) SendText(int64, string) error               { return nil }
func (Nop) SendLocation(int64, float64, float64) error { return nil }
func (Nop) PromptFeedback(int64, int64) error          { return nil }
