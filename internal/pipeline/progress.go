package pipeline

// Progress is single-writer completion accounting, owned exclusively by the
// coordinator goroutine. It is bumped exactly once per chapter the instant
// its fate (skip or commit) becomes final, and is monotonically
// non-decreasing within a run. Not safe for concurrent use; the coordinator
// is the only writer by construction.
type Progress struct {
	completed int
	total     int
}

// NewProgress creates a tracker expecting total chapters.
func NewProgress(total int) *Progress {
	return &Progress{total: total}
}

// Bump records one chapter's fate becoming final.
func (p *Progress) Bump() {
	p.completed++
}

// Completed returns how many chapters are finalized.
func (p *Progress) Completed() int { return p.completed }

// Total returns the number of chapters in the run.
func (p *Progress) Total() int { return p.total }
