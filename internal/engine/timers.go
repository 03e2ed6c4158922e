package engine

import (
	"time"

	"github.com/DoyleJ11/husband-game/internal/timer"
)

// RegisterTimeoutEvent arms the room's timeout. It is a no-op while another
// timeout is armed; callers unregister first.
func (e *Engine) RegisterTimeoutEvent(chatID ChatID, callback func(), d time.Duration, reminder *timer.Reminder) bool {
	return e.events.Register(chatID, callback, d, reminder)
}

func (e *Engine) UnregisterTimeoutEvent(chatID ChatID) {
	e.events.Unregister(chatID)
}

// ExtendRegistrationTimeout pushes back the registration deadline by extend,
// never beyond Config.MaxRegistrationTimeout in total. It returns the time
// left, or 0 when there is nothing to extend.
func (e *Engine) ExtendRegistrationTimeout(chatID ChatID, extend time.Duration) time.Duration {
	room, ok := e.rooms[chatID]
	if !ok || room.Status != StatusRegistration {
		return 0
	}
	return e.events.Extend(chatID, extend, e.cfg.MaxRegistrationTimeout)
}

func (e *Engine) TimeoutRemaining(chatID ChatID) (time.Duration, bool) {
	return e.events.Remaining(chatID)
}

func (e *Engine) TimeoutInfo(chatID ChatID) (timer.Info, bool) {
	return e.events.Info(chatID)
}

// ArmedTimers counts rooms with a pending timeout.
func (e *Engine) ArmedTimers() int {
	return e.events.Armed()
}
