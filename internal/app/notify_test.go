package app_test

import (
	"testing"

	"gridpool-service/internal/app"
	"gridpool-service/internal/domain"
)

func TestNotifierDeliversPerTenant(t *testing.T) {
	notifier := app.NewStandingsNotifier()

	chA, cancelA := notifier.Subscribe("league-a")
	defer cancelA()
	chB, cancelB := notifier.Subscribe("league-b")
	defer cancelB()

	notifier.Publish(domain.Leaderboard{TenantSeasonID: "league-a"})

	if lb := <-chA; lb.TenantSeasonID != "league-a" {
		t.Fatalf("unexpected snapshot %+v", lb)
	}
	select {
	case lb := <-chB:
		t.Fatalf("league-b subscriber must not receive league-a updates, got %+v", lb)
	default:
	}
}

func TestNotifierDropsStaleSnapshotsForSlowSubscribers(t *testing.T) {
	notifier := app.NewStandingsNotifier()
	ch, cancel := notifier.Subscribe("league-a")
	defer cancel()

	// overflow the buffer; the subscriber must still end up with the
	// latest snapshot rather than blocking the publisher
	for i := 0; i < 20; i++ {
		notifier.Publish(domain.Leaderboard{TenantSeasonID: "league-a", Entries: []domain.StandingEntry{{TotalPoints: i}}})
	}

	var last domain.Leaderboard
	for {
		select {
		case lb := <-ch:
			last = lb
			continue
		default:
		}
		break
	}
	if len(last.Entries) != 1 || last.Entries[0].TotalPoints != 19 {
		t.Fatalf("expected latest snapshot to survive, got %+v", last.Entries)
	}
}

func TestNotifierCancelIsIdempotent(t *testing.T) {
	notifier := app.NewStandingsNotifier()
	_, cancel := notifier.Subscribe("league-a")
	cancel()
	cancel() // second cancel must not panic on the closed channel

	// publishing after cancel must not block or panic
	notifier.Publish(domain.Leaderboard{TenantSeasonID: "league-a"})
}
