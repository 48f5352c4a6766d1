package extract

// ProgressFunc receives the overall extraction percentage in [0, 100].
type ProgressFunc func(percent float64)

// progressTracker turns member-level counters into the percentages handed to
// a ProgressFunc. Values are clamped to [0, 100] and never decrease.
type progressTracker struct {
	sink    ProgressFunc
	total   float64
	done    float64
	last    float64
	emitted bool
}

func newProgressTracker(sink ProgressFunc) *progressTracker {
	return &progressTracker{sink: sink}
}

// setTotal fixes the denominator. Backends that measure by size and by count
// both go through here; a total below 1 is floored so the division is safe.
func (p *progressTracker) setTotal(total float64) {
	if total < 1 {
		total = 1
	}
	p.total = total
	p.done = 0
}

// advance records that delta units (bytes or members) have been fully written.
func (p *progressTracker) advance(delta float64) {
	if delta > 0 {
		p.done += delta
	}
	if p.total <= 0 {
		return
	}
	p.emit(p.done / p.total * 100)
}

// finish emits the terminal 100.0 unless it has already been delivered.
func (p *progressTracker) finish() {
	if p.emitted && p.last == 100 {
		return
	}
	p.emit(100)
}

// emit delivers equal values again; every finished member gets a callback.
func (p *progressTracker) emit(percent float64) {
	switch {
	case percent > 100:
		percent = 100
	case percent < 0:
		percent = 0
	}
	if p.emitted && percent < p.last {
		percent = p.last
	}
	p.last = percent
	p.emitted = true
	if p.sink != nil {
		p.sink(percent)
	}
}

// Last reports the most recent percentage and whether any was emitted.
func (p *progressTracker) Last() (float64, bool) {
	return p.last, p.emitted
}
