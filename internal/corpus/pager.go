package corpus

// visitTracker remembers the last poem address opened from a result page.
type visitTracker struct {
	prev string
}

// fresh reports whether url differs from the previous one and records it.
func (v *visitTracker) fresh(url string) bool {
	if url == v.prev {
		return false
	}
	v.prev = url
	return true
}

// pager counts result pages against an optional limit.
type pager struct {
	limit int
	seen  int
}

func newPager(limit int) *pager {
	return &pager{limit: limit}
}

// advance records a finished page and reports whether another may be read.
func (p *pager) advance() bool {
	p.seen++
	return p.limit <= 0 || p.seen < p.limit
}
