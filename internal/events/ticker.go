package events

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/kiwari-pos/tablepos/internal/cart"
	"github.com/kiwari-pos/tablepos/internal/enum"
	"github.com/kiwari-pos/tablepos/internal/session"
)

// ActiveCarts lists carts with a running session timer.
// Satisfied by *cart.Registry.
type ActiveCarts interface {
	Active() []cart.Snapshot
}

type tickPayload struct {
	TableID   string    `json:"table_id"`
	StartedAt time.Time `json:"started_at"`
	Elapsed   string    `json:"elapsed"`
}

// TickTimers publishes one timer.tick per active table.
func TickTimers(carts ActiveCarts, b Broadcaster) {
	for _, snap := range carts.Active() {
		if snap.StartedAt == nil {
			continue
		}
		b.Publish(snap.Key.RestaurantID, enum.EventTimerTick, tickPayload{
			TableID:   snap.Key.TableID,
			StartedAt: *snap.StartedAt,
			Elapsed:   session.FormatElapsed(snap.Elapsed),
		})
	}
}

// StartTicker schedules TickTimers every second. Call Stop on the returned
// scheduler during shutdown.
func StartTicker(loc *time.Location, carts ActiveCarts, b Broadcaster) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(loc)
	if _, err := s.Every(1).Second().Do(TickTimers, carts, b); err != nil {
		return nil, fmt.Errorf("schedule timer tick: %w", err)
	}
	s.StartAsync()
	return s, nil
}
