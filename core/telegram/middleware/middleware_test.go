package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/eventbot/core/telegram/teletest"
)

func TestRateLimitRejectsBurst(t *testing.T) {
	clk := clock.NewFake()
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Clock:     clk,
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	require.NoError(t, h(teletest.NewText(1, 7, "a")))
	require.NoError(t, h(teletest.NewText(2, 7, "b")))
	require.Equal(t, 1, calls)
	require.Equal(t, 1, limited)

	clk.Add(2 * time.Second)
	require.NoError(t, h(teletest.NewText(3, 7, "c")))
	require.Equal(t, 2, calls)

	// Other users are tracked separately.
	require.NoError(t, h(teletest.NewText(4, 8, "d")))
	require.Equal(t, 3, calls)
}

func TestRateLimitExcludesCallbacks(t *testing.T) {
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Minute,
		Clock:    clock.NewFake(),
		Exclude:  map[string]struct{}{"callback": {}},
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })
	for i := 0; i < 3; i++ {
		require.NoError(t, h(teletest.NewCallback(i, 7, "my_events")))
	}
	require.Equal(t, 3, calls)
}

func TestAdminOnly(t *testing.T) {
	rejected := 0
	mw := AdminOnlyMiddleware(AdminOptions{
		AdminID:  42,
		OnReject: func(tele.Context) error { rejected++; return nil },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	require.NoError(t, h(teletest.NewText(1, 42, "/broadcast")))
	require.NoError(t, h(teletest.NewText(2, 7, "/broadcast")))
	require.Equal(t, 1, calls)
	require.Equal(t, 1, rejected)
}

func TestAdminOnlyWithoutAdminRejectsAll(t *testing.T) {
	calls := 0
	h := AdminOnlyMiddleware(AdminOptions{})(func(tele.Context) error { calls++; return nil })
	require.NoError(t, h(teletest.NewText(1, 42, "/broadcast")))
	require.Zero(t, calls)
}

func TestRecoverTurnsPanicIntoError(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(teletest.NewText(1, 7, "x"))
	require.ErrorContains(t, err, "boom")
}

func TestRecoverPassesErrors(t *testing.T) {
	want := errors.New("fail")
	h := RecoverMiddleware(func(tele.Context) error { return want })
	require.ErrorIs(t, h(teletest.NewText(1, 7, "x")), want)
}

func TestMetricsCountsMessages(t *testing.T) {
	c := teletest.NewText(1, 7, "x")
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		if err := c.Send("one"); err != nil {
			return err
		}
		return c.Send("two", &tele.ReplyMarkup{})
	})
	require.NoError(t, h(c))
	msgs, kb := GetCounters(c)
	require.Equal(t, 2, msgs)
	require.True(t, kb)
}

func TestLoggerMiddlewareSetsRID(t *testing.T) {
	c := teletest.NewText(35, 36, "hi")
	h := LoggerMiddleware(func(c tele.Context) error { return nil })
	require.NoError(t, h(c))
	require.Equal(t, "35:36:36", c.Get("rid"))
}

func TestSeenUpdatesExpires(t *testing.T) {
	s := &seenUpdates{ttl: time.Second, at: map[int]time.Time{}}
	now := time.Unix(100, 0)
	require.True(t, s.first(1, now))
	require.False(t, s.first(1, now.Add(500*time.Millisecond)))
	require.True(t, s.first(1, now.Add(2*time.Second)))
}
