package ui

import (
	"strings"
	"sync"
)

// DebugBuffer wraps a buffer for logging; the logs screen renders its
// contents. Writes arrive from any goroutine.
type DebugBuffer struct {
	mu      sync.Mutex
	content strings.Builder
}

func (db *DebugBuffer) Write(p []byte) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.content.Write(p)
}

func (db *DebugBuffer) String() string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.content.String()
}
