package bot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"courierbot/pkg/logger"
)

// fakeCtx satisfies tele.Context through embedding; only Sender is called.
type fakeCtx struct {
	tele.Context
	sender *tele.User
}

func (f fakeCtx) Sender() *tele.User { return f.sender }

func TestOnErrorBackoffDoublesOnRepeat(t *testing.T) {
	b := &Bot{Log: logger.New("bot-test", "error")}
	c := fakeCtx{sender: &tele.User{ID: 42}}

	b.onError(errors.New("telegram: flood"), c)
	require.Equal(t, pollBackoffMin, b.backoff)

	b.onError(errors.New("telegram: flood"), c)
	require.Equal(t, 2*pollBackoffMin, b.backoff)

	b.onError(errors.New("telegram: flood"), c)
	require.Equal(t, 4*pollBackoffMin, b.backoff)
}

func TestOnErrorBackoffCapsAndResets(t *testing.T) {
	b := &Bot{Log: logger.New("bot-test", "error")}
	c := fakeCtx{sender: &tele.User{ID: 42}}

	for i := 0; i < 12; i++ {
		b.onError(errors.New("telegram: flood"), c)
	}
	require.Equal(t, pollBackoffMax, b.backoff)

	b.onError(errors.New("telegram: unauthorized"), c)
	require.Equal(t, pollBackoffMin, b.backoff)
}

func TestOnErrorIgnoresNil(t *testing.T) {
	b := &Bot{Log: logger.New("bot-test", "error")}
	b.onError(nil, nil)
	require.Zero(t, b.backoff)
}
