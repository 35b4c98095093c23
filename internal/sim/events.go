package sim

import "time"

const maxEvents = 500

// Event is a notable state change recorded for the admin timeline.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Type      string    `json:"type"`
	Details   string    `json:"details"`
}

// Events returns a copy of the recorded events.
func (s *Simulator) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	return events
}

// logEvent must be called with s.mu held.
func (s *Simulator) logEvent(t, details string) {
	s.events = append(s.events, Event{Timestamp: s.now().UTC(), Type: t, Details: details})
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}
}
