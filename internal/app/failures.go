package service

import (
	"sync"
	"time"
)

// Failure is one entry of the recent failure log shown in /stats.
type Failure struct {
	EffortID string    `json:"effortId"`
	Stage    Stage     `json:"stage"`
	Worker   string    `json:"worker,omitempty"`
	Error    string    `json:"error"`
	At       time.Time `json:"at"`
}

// failureLog keeps the last n failures.
type failureLog struct {
	mu    sync.Mutex
	buf   []Failure
	next  int
	full  bool
	total int64
}

func newFailureLog(n int) *failureLog {
	if n < 1 {
		n = 1
	}
	return &failureLog{buf: make([]Failure, n)}
}

func (l *failureLog) add(f Failure) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf[l.next] = f
	l.next = (l.next + 1) % len(l.buf)
	if l.next == 0 {
		l.full = true
	}
	l.total++
}

// recent returns failures newest first.
func (l *failureLog) recent() []Failure {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.next
	if l.full {
		n = len(l.buf)
	}
	out := make([]Failure, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, l.buf[(l.next-i+len(l.buf))%len(l.buf)])
	}
	return out
}

func (l *failureLog) count() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}
