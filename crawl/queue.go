// Package crawl — request queue with deduplication.
// Station lists are merged across regions, so the same station/day pair can
// be planned more than once; the queue keeps only the first.
package crawl

import (
	"time"

	"github.com/gaurav-prasanna/radiopipe/core"
)

// Request is one station's schedule for one day.
type Request struct {
	Station core.StationChannel
	Date    time.Time
	URL     string
}

// Queue is a FIFO of schedule requests deduplicated by URL.
type Queue struct {
	items   []Request
	visited map[string]bool
	idx     int // current read position
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{
		visited: make(map[string]bool),
	}
}

// Add enqueues req unless its URL has been seen. It reports whether req was added.
func (q *Queue) Add(req Request) bool {
	if q.visited[req.URL] {
		return false
	}
	q.visited[req.URL] = true
	q.items = append(q.items, req)
	return true
}

// HasNext returns true if there are unprocessed requests.
func (q *Queue) HasNext() bool {
	return q.idx < len(q.items)
}

// Next returns the next unprocessed request and advances the pointer.
func (q *Queue) Next() Request {
	req := q.items[q.idx]
	q.idx++
	return req
}

// Len returns the total number of unique requests seen.
func (q *Queue) Len() int {
	return len(q.visited)
}

// All returns every request in enqueue order.
func (q *Queue) All() []Request {
	return q.items
}
