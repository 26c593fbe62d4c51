package analysis

import (
	"sync"
	"time"
)

// issueRing is a fixed-capacity ring buffer of recent issues. Oldest
// entries are evicted on overflow. All methods are safe for concurrent use.
type issueRing struct {
	mu    sync.Mutex
	buf   []Issue
	head  int // next write position
	count int
}

func newIssueRing(capacity int) *issueRing {
	return &issueRing{buf: make([]Issue, capacity)}
}

func (r *issueRing) append(issues []Issue) {
	if len(issues) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, is := range issues {
		r.buf[r.head] = is
		r.head = (r.head + 1) % len(r.buf)
		if r.count < len(r.buf) {
			r.count++
		}
	}
}

func (r *issueRing) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// recent returns up to limit issues newest first, optionally filtered by
// severity ("" = all). limit <= 0 means no limit.
func (r *issueRing) recent(limit int, severity Severity) []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Issue, 0, r.count)
	for i := 1; i <= r.count; i++ {
		is := r.buf[(r.head-i+len(r.buf))%len(r.buf)]
		if severity != "" && is.Severity != severity {
			continue
		}
		out = append(out, is)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// since returns retained issues with DetectedAt at or after cutoff,
// newest first. Concurrent Analyze calls can interleave appends slightly
// out of time order, so the whole buffer is filtered.
func (r *issueRing) since(cutoff time.Time) []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Issue, 0, r.count)
	for i := 1; i <= r.count; i++ {
		is := r.buf[(r.head-i+len(r.buf))%len(r.buf)]
		if is.DetectedAt.Before(cutoff) {
			continue
		}
		out = append(out, is)
	}
	return out
}
