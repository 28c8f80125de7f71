package controller

import (
	"sync"
	"time"
)

// Scheduler runs refreshes. Go runs fn once, now; Every runs fn every d
// until the returned cancel is called. Cancel must be safe to call twice.
type Scheduler interface {
	Go(fn func())
	Every(d time.Duration, fn func()) (cancel func())
}

// Ticker is the Scheduler backed by goroutines and time.Ticker.
type Ticker struct{}

func (Ticker) Go(fn func()) { go fn() }

func (Ticker) Every(d time.Duration, fn func()) func() {
	t := time.NewTicker(d)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-t.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.Stop()
			close(done)
		})
	}
}
