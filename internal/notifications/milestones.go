package notifications

import (
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// milestoneGate decides which progress values become notifications.
type milestoneGate struct {
	mu      sync.Mutex
	step    float64
	limiter *rate.Limiter
	last    map[string]int
}

func newMilestoneGate(step, minIntervalSeconds float64) *milestoneGate {
	if step <= 0 || step > 100 {
		step = 50
	}
	limit := rate.Inf
	if minIntervalSeconds > 0 {
		limit = rate.Every(time.Duration(minIntervalSeconds * float64(time.Second)))
	}
	return &milestoneGate{
		step:    step,
		limiter: rate.NewLimiter(limit, 1),
		last:    make(map[string]int),
	}
}

// allow reports whether percent crosses a milestone not yet published for
// archive, and the milestone value to show. 100 bypasses the limiter.
func (g *milestoneGate) allow(archive string, percent float64) (int, bool) {
	archive = strings.TrimSpace(archive)
	if math.IsNaN(percent) {
		return 0, false
	}
	percent = math.Max(0, math.Min(100, percent))

	milestone := int(math.Floor(percent/g.step) * g.step)
	if percent >= 100 {
		milestone = 100
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	last, seen := g.last[archive]
	if seen && milestone <= last {
		return 0, false
	}
	// A rate-limited milestone stays unpublished so a later value can retry it.
	if milestone < 100 && !g.limiter.Allow() {
		return 0, false
	}
	g.last[archive] = milestone
	return milestone, true
}

func (g *milestoneGate) forget(archive string) {
	g.mu.Lock()
	delete(g.last, strings.TrimSpace(archive))
	g.mu.Unlock()
}
