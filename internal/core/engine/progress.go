package engine

import "sync"

// progressTracker reparte los porcentajes y garantiza que el callback recibe
// valores acotados y no decrecientes. Las llamadas al callback se serializan.
// Un tracker nil no hace nada.
type progressTracker struct {
	mu    sync.Mutex
	fn    ProgressFunc
	last  int
	total int
	done  int
}

func newProgressTracker(fn ProgressFunc) *progressTracker {
	if fn == nil {
		return nil
	}
	return &progressTracker{fn: fn, last: -1}
}

// Report publica percent si supera al último valor publicado.
func (p *progressTracker) Report(percent int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reportLocked(percent)
}

func (p *progressTracker) reportLocked(percent int) {
	percent = max(0, min(percent, donePercent))
	if percent <= p.last {
		return
	}
	p.last = percent
	p.fn(percent)
}

func (p *progressTracker) setTotal(total int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	p.done = 0
}

// hostsDone suma n hosts terminados y publica el tramo proporcional entre
// parsedPercent y parsedPercent+60.
func (p *progressTracker) hostsDone(n int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done += n
	if p.done > p.total {
		p.done = p.total
	}
	if p.total <= 0 {
		return
	}
	p.reportLocked(parsedPercent + p.done*60/p.total)
}
