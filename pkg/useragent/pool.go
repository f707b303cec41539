// Package useragent maintains a rotating pool of browser User-Agent strings
// for collaborator fetches.
package useragent

import (
	"sync/atomic"
)

// defaults covers current desktop Chrome, Firefox and Safari builds. Engine
// result pages and their CDNs are hostile to obviously synthetic agents.
var defaults = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
}

// Pool hands out User-Agent strings round-robin. Safe for concurrent use.
type Pool struct {
	uas []string
	n   atomic.Uint64
}

// NewPool builds a pool from uas, falling back to the built-in defaults when
// uas is empty. The slice is copied.
func NewPool(uas []string) *Pool {
	if len(uas) == 0 {
		uas = defaults
	}
	cp := make([]string, len(uas))
	copy(cp, uas)
	return &Pool{uas: cp}
}

// Next returns the next User-Agent in rotation.
func (p *Pool) Next() string {
	idx := p.n.Add(1) - 1
	return p.uas[idx%uint64(len(p.uas))]
}

// Size reports how many distinct agents the pool rotates through.
func (p *Pool) Size() int {
	return len(p.uas)
}
