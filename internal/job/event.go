// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package job

import (
	"context"
	"sync"
	"time"
)

// EventType names what happened to a job
type EventType string

const (
	EventStarted  EventType = "started"
	EventProgress EventType = "progress"
	EventFinished EventType = "finished"
	EventFailed   EventType = "failed"
)

// Event is sent from the worker to front ends and notifiers
type Event struct {
	JobID   string    `json:"job_id"`
	Type    EventType `json:"type"`
	Percent int       `json:"percent"`
	Output  string    `json:"output,omitempty"`
	Error   string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

// Terminal reports whether no further events follow for the job
func (e Event) Terminal() bool {
	return e.Type == EventFinished || e.Type == EventFailed
}

// Notifier receives every event of every job
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, ev Event) error

func (f NotifierFunc) Notify(ctx context.Context, ev Event) error { return f(ctx, ev) }

const subscriberBuffer = 32

// hub fans events out to per-job subscriber channels
type hub struct {
	lock sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[chan Event]struct{})}
}

func (h *hub) subscribe(id string) (chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.lock.Lock()
	if h.subs[id] == nil {
		h.subs[id] = make(map[chan Event]struct{})
	}
	h.subs[id][ch] = struct{}{}
	h.lock.Unlock()

	cancel := func() {
		h.lock.Lock()
		defer h.lock.Unlock()
		if _, ok := h.subs[id][ch]; ok {
			delete(h.subs[id], ch)
			if len(h.subs[id]) == 0 {
				delete(h.subs, id)
			}
			close(ch)
		}
	}
	return ch, cancel
}

// publish never blocks. Progress events are dropped for full subscribers;
// a terminal event evicts the oldest buffered event and closes the channel.
func (h *hub) publish(ev Event) {
	h.lock.Lock()
	defer h.lock.Unlock()

	for ch := range h.subs[ev.JobID] {
		if !ev.Terminal() {
			select {
			case ch <- ev:
			default:
			}
			continue
		}
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
		close(ch)
	}
	if ev.Terminal() {
		delete(h.subs, ev.JobID)
	}
}
