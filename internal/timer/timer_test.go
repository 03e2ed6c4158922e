package timer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/husband-game/internal/timer"
	"github.com/DoyleJ11/husband-game/internal/timer/timertest"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newRegistry() (*timer.Registry[int64], *timertest.Clock) {
	clock := timertest.NewClock(epoch)
	r := timer.NewRegistry[int64](clock, nil)
	r.Open(1)
	return r, clock
}

func TestRegister_FiresOnceAndDisarms(t *testing.T) {
	r, clock := newRegistry()
	fired := 0

	require.True(t, r.Register(1, func() { fired++ }, time.Minute, nil))

	clock.Advance(59 * time.Second)
	assert.Equal(t, 0, fired)

	clock.Advance(time.Second)
	assert.Equal(t, 1, fired)

	info, _ := r.Info(1)
	assert.True(t, info.Idle)
	assert.Zero(t, r.Armed())

	clock.Advance(time.Hour)
	assert.Equal(t, 1, fired)
}

func TestRegister_SecondCallIsNoOp(t *testing.T) {
	r, clock := newRegistry()
	require.True(t, r.Register(1, func() {}, time.Minute, nil))
	before, _ := r.Info(1)

	clock.Advance(10 * time.Second)
	assert.False(t, r.Register(1, func() { t.Fatalf("second callback must never run") }, time.Second, nil))

	after, _ := r.Info(1)
	assert.Equal(t, before, after)

	clock.Advance(time.Minute)
}

func TestRegister_MissingSlot(t *testing.T) {
	r, _ := newRegistry()
	assert.False(t, r.Register(2, func() {}, time.Second, nil))
}

func TestRegister_CallbackCanRearm(t *testing.T) {
	r, clock := newRegistry()
	var order []string

	r.Register(1, func() {
		order = append(order, "first")
		assert.True(t, r.Register(1, func() { order = append(order, "second") }, time.Second, nil))
	}, time.Second, nil)

	clock.Advance(2 * time.Second)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRegister_ReminderFiresBeforeCallback(t *testing.T) {
	r, clock := newRegistry()
	var order []string
	var remindedAt, firedAt time.Time

	r.Register(1, func() {
		order = append(order, "callback")
		firedAt = clock.Now()
	}, time.Minute, &timer.Reminder{
		Callback: func() {
			order = append(order, "reminder")
			remindedAt = clock.Now()
		},
		Lead: 10 * time.Second,
	})

	clock.Advance(49 * time.Second)
	assert.Empty(t, order)

	clock.Advance(time.Second)
	assert.Equal(t, []string{"reminder"}, order)
	info, _ := r.Info(1)
	assert.False(t, info.Idle, "inner timer must still be armed")

	clock.Advance(10 * time.Second)
	assert.Equal(t, []string{"reminder", "callback"}, order)
	assert.Equal(t, epoch.Add(50*time.Second), remindedAt)
	assert.Equal(t, epoch.Add(time.Minute), firedAt)
}

func TestRegister_ReminderLongerThanTimeout(t *testing.T) {
	r, clock := newRegistry()
	var order []string

	r.Register(1, func() { order = append(order, "callback") }, 5*time.Second,
		&timer.Reminder{Callback: func() { order = append(order, "reminder") }, Lead: time.Minute})

	clock.Advance(0)
	assert.Equal(t, []string{"reminder"}, order)
	clock.Advance(5 * time.Second)
	assert.Equal(t, []string{"reminder", "callback"}, order)
}

func TestUnregister_CancelsPendingAndResets(t *testing.T) {
	r, clock := newRegistry()
	r.Register(1, func() { t.Fatalf("cancelled callback ran") }, time.Minute,
		&timer.Reminder{Callback: func() { t.Fatalf("cancelled reminder ran") }, Lead: time.Second})

	r.Unregister(1)
	info, _ := r.Info(1)
	assert.True(t, info.Idle)
	assert.True(t, info.StartDate.IsZero())
	assert.Zero(t, info.Budget)
	assert.Zero(t, clock.Pending())

	clock.Advance(2 * time.Minute)

	// idle slot: second unregister is harmless
	r.Unregister(1)
}

func TestClose_DropsSlot(t *testing.T) {
	r, clock := newRegistry()
	r.Register(1, func() { t.Fatalf("closed slot fired") }, time.Second, nil)
	r.Close(1)

	_, ok := r.Info(1)
	assert.False(t, ok)
	clock.Advance(time.Minute)
}

func TestExtend(t *testing.T) {
	cases := []struct {
		name      string
		budget    time.Duration
		elapsed   time.Duration
		extend    time.Duration
		limit     time.Duration
		want      time.Duration
		wantFired time.Duration
	}{
		{
			name:      "adds to remaining time",
			budget:    time.Minute,
			elapsed:   20 * time.Second,
			extend:    40 * time.Second,
			limit:     3 * time.Minute,
			want:      80 * time.Second,
			wantFired: 100 * time.Second,
		},
		{
			name:      "capped at limit",
			budget:    time.Minute,
			elapsed:   10 * time.Second,
			extend:    5 * time.Minute,
			limit:     3 * time.Minute,
			want:      170 * time.Second,
			wantFired: 3 * time.Minute,
		},
		{
			name:      "unbounded limit",
			budget:    time.Minute,
			elapsed:   0,
			extend:    time.Hour,
			limit:     0,
			want:      time.Hour + time.Minute,
			wantFired: time.Hour + time.Minute,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, clock := newRegistry()
			var firedAt time.Time
			r.Register(1, func() { firedAt = clock.Now() }, tc.budget, nil)

			clock.Advance(tc.elapsed)
			got := r.Extend(1, tc.extend, tc.limit)
			assert.Equal(t, tc.want, got)

			clock.Advance(10 * time.Hour)
			assert.Equal(t, epoch.Add(tc.wantFired), firedAt)
		})
	}
}

func TestExtend_RepeatedNeverExceedsLimit(t *testing.T) {
	r, clock := newRegistry()
	limit := 3 * time.Minute
	r.Register(1, func() {}, time.Minute, nil)

	for range 10 {
		clock.Advance(5 * time.Second)
		r.Extend(1, 40*time.Second, limit)
		info, _ := r.Info(1)
		require.LessOrEqual(t, info.Budget, limit)
	}
}

func TestExtend_StaleRequests(t *testing.T) {
	t.Run("idle slot", func(t *testing.T) {
		r, _ := newRegistry()
		assert.Zero(t, r.Extend(1, time.Minute, time.Hour))
	})

	t.Run("missing slot", func(t *testing.T) {
		r, _ := newRegistry()
		assert.Zero(t, r.Extend(42, time.Minute, time.Hour))
	})

	t.Run("budget already spent keeps the due expiry", func(t *testing.T) {
		clock := timertest.NewClock(epoch)
		var queued []func()
		r := timer.NewRegistry[int64](clock, func(f func()) { queued = append(queued, f) })
		r.Open(1)
		fired := false
		r.Register(1, func() { fired = true }, time.Second, nil)

		clock.Advance(time.Second)
		require.Len(t, queued, 1)

		assert.Zero(t, r.Extend(1, time.Minute, time.Hour))
		queued[0]()
		assert.True(t, fired)
	})
}

func TestExtend_KeepsPendingReminder(t *testing.T) {
	r, clock := newRegistry()
	var order []string
	r.Register(1, func() { order = append(order, "callback") }, time.Minute,
		&timer.Reminder{Callback: func() { order = append(order, "reminder") }, Lead: 10 * time.Second})

	clock.Advance(30 * time.Second)
	assert.Equal(t, 70*time.Second, r.Extend(1, 40*time.Second, 3*time.Minute))

	clock.Advance(59 * time.Second)
	assert.Empty(t, order)
	clock.Advance(time.Second)
	assert.Equal(t, []string{"reminder"}, order)
	clock.Advance(10 * time.Second)
	assert.Equal(t, []string{"reminder", "callback"}, order)
}

func TestGuard_DropsFireQueuedBeforeUnregister(t *testing.T) {
	clock := timertest.NewClock(epoch)
	var queued []func()
	r := timer.NewRegistry[int64](clock, func(f func()) { queued = append(queued, f) })
	r.Open(1)

	r.Register(1, func() { t.Fatalf("stale fire delivered") }, time.Second, nil)
	clock.Advance(time.Second)
	require.Len(t, queued, 1)

	r.Unregister(1)
	queued[0]()
}

func TestGuard_DropsFireAfterReopen(t *testing.T) {
	clock := timertest.NewClock(epoch)
	var queued []func()
	r := timer.NewRegistry[int64](clock, func(f func()) { queued = append(queued, f) })
	r.Open(1)

	r.Register(1, func() { t.Fatalf("fire from closed slot delivered") }, time.Second, nil)
	clock.Advance(time.Second)
	r.Close(1)
	r.Open(1)
	queued[0]()

	info, _ := r.Info(1)
	assert.True(t, info.Idle)
}

func TestRemaining(t *testing.T) {
	r, clock := newRegistry()
	_, ok := r.Remaining(1)
	assert.False(t, ok)

	r.Register(1, func() {}, time.Minute, nil)
	clock.Advance(15 * time.Second)
	left, ok := r.Remaining(1)
	assert.True(t, ok)
	assert.Equal(t, 45*time.Second, left)
	assert.Equal(t, 1, r.Armed())
}
