package status

import (
	"sync"

	"github.com/msto63/vaani/internal/pipeline"
	"github.com/msto63/vaani/internal/speech"
)

// Bridge publishes orchestrator and dispatcher changes to a hub
type Bridge struct {
	hub *Hub

	mu      sync.Mutex
	session string
	state   string
	audio   string
	notice  string
}

// Attach subscribes to o and d (either may be nil) and forwards changes
func Attach(hub *Hub, o *pipeline.Orchestrator, d *speech.Dispatcher) *Bridge {
	b := &Bridge{
		hub:   hub,
		state: pipeline.StateReady.String(),
		audio: string(speech.StatusIdle),
	}
	if o != nil {
		b.session = o.ID()
		o.Subscribe(b.onSession)
	}
	if d != nil {
		d.Subscribe(b.onAudio)
	}
	return b
}

func (b *Bridge) onSession(s pipeline.Session) {
	b.mu.Lock()
	if b.state == s.State.String() && b.notice == s.Notice {
		b.mu.Unlock()
		return
	}
	b.state = s.State.String()
	b.notice = s.Notice
	e := b.eventLocked(TypeState)
	b.mu.Unlock()

	b.hub.Publish(e)
}

func (b *Bridge) onAudio(st speech.Status) {
	b.mu.Lock()
	b.audio = string(st)
	e := b.eventLocked(TypeAudio)
	b.mu.Unlock()

	b.hub.Publish(e)
}

func (b *Bridge) eventLocked(typ string) Event {
	return Event{
		Type:    typ,
		Session: b.session,
		State:   b.state,
		Audio:   b.audio,
		Notice:  b.notice,
	}
}
