package model

import (
	"sync"
	"time"
)

// Flash is a transient status-bar notice. The zero value is ready to use.
type Flash struct {
	mu       sync.Mutex
	text     string
	deadline time.Time
}

// Set replaces the current notice; it stays visible for d.
func (f *Flash) Set(text string, d time.Duration) {
	f.mu.Lock()
	f.text = text
	f.deadline = time.Now().Add(d)
	f.mu.Unlock()
}

// Get returns the notice while it is still live, otherwise the empty string.
func (f *Flash) Get() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.text == "" || time.Now().After(f.deadline) {
		return ""
	}
	return f.text
}
