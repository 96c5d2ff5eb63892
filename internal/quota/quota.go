// Package quota computes the daily free-tier allowance. It is pure:
// callers hand it already-loaded chats and it never touches storage.
package quota

import (
	"time"

	"github.com/rizzchat/server/internal/models"
)

// DefaultDailyLimit is the free-tier cap on user-authored messages per
// calendar day.
const DefaultDailyLimit = 10

type Engine struct {
	DailyLimit int
}

func NewEngine(dailyLimit int) *Engine {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	return &Engine{DailyLimit: dailyLimit}
}

// UsedToday counts user-authored messages across all of the user's chats
// whose timestamp falls on the same calendar date as today. The day
// boundary is calendar-date equality in today's location, not a rolling
// 24h window.
func (e *Engine) UsedToday(chats []models.Chat, today time.Time) int {
	count := 0
	for _, c := range chats {
		for _, m := range c.Messages {
			if m.Role == models.RoleUser && sameDay(m.Timestamp, today) {
				count++
			}
		}
	}
	return count
}

// Allowed reports whether the user may send one more message today.
// Pro users are never limited. The count is taken before the candidate
// message is added: sending the 10th message is allowed, the 11th is not.
func (e *Engine) Allowed(isPro bool, chats []models.Chat, today time.Time) bool {
	if isPro {
		return true
	}
	return e.UsedToday(chats, today) < e.DailyLimit
}

func sameDay(t, today time.Time) bool {
	y1, m1, d1 := t.In(today.Location()).Date()
	y2, m2, d2 := today.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
