package app

import (
	"sync"

	"gridpool-service/internal/domain"
)

// StandingsNotifier fans out leaderboard snapshots to in-process
// subscribers, one subscriber set per tenant season. The scoring engine
// publishes after every completed pass; the websocket transport subscribes.
type StandingsNotifier struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.Leaderboard]struct{}
}

func NewStandingsNotifier() *StandingsNotifier {
	return &StandingsNotifier{subs: make(map[string]map[chan domain.Leaderboard]struct{})}
}

// Subscribe returns a channel receiving snapshots for one tenant season.
// The caller must invoke the returned cancel function to avoid leaks.
func (n *StandingsNotifier) Subscribe(tenantSeasonID string) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	n.mu.Lock()
	set, ok := n.subs[tenantSeasonID]
	if !ok {
		set = make(map[chan domain.Leaderboard]struct{})
		n.subs[tenantSeasonID] = set
	}
	set[ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		if set, ok := n.subs[tenantSeasonID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(n.subs, tenantSeasonID)
			}
		}
		n.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a snapshot to every subscriber of the tenant season.
// Slow subscribers lose the oldest pending snapshot instead of blocking
// the publisher.
func (n *StandingsNotifier) Publish(lb domain.Leaderboard) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs[lb.TenantSeasonID] {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
