// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package selection holds the current location/date/activity selection. Every input surface
// writes through Store.Update, consumers subscribe to the trigger events the store publishes.
package selection

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/wneessen/rainparade/internal/geo"
	"github.com/wneessen/rainparade/internal/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalidSelection is returned for updates that would leave the selection invalid.
var ErrInvalidSelection = errors.New("invalid selection")

// Selection is the user's current choice. Date is always an ISO calendar date.
type Selection struct {
	LocationLabel string  `json:"location"`
	Lat           float64 `json:"lat" validate:"latitude"`
	Lon           float64 `json:"lon" validate:"longitude"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	Activity      string  `json:"activity"`
}

// Coordinate returns the selected position.
func (s Selection) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: s.Lat, Lon: s.Lon}
}

// Validate checks the coordinate ranges and the date format.
func (s Selection) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSelection, err)
	}
	return nil
}

// Partial is a selection update. Nil fields are left unchanged.
type Partial struct {
	LocationLabel *string
	Lat           *float64
	Lon           *float64
	Date          *string
	Activity      *string

	// Defaulted is set by ParseQuery if the location label carried no coordinates and the
	// fallback coordinate was substituted. It is informational only.
	Defaulted bool
}

// IsEmpty reports whether the partial would not change anything.
func (p Partial) IsEmpty() bool {
	return p.LocationLabel == nil && p.Lat == nil && p.Lon == nil && p.Date == nil && p.Activity == nil
}

func (p Partial) apply(sel Selection) Selection {
	if p.LocationLabel != nil {
		sel.LocationLabel = *p.LocationLabel
	}
	if p.Lat != nil {
		sel.Lat = *p.Lat
	}
	if p.Lon != nil {
		sel.Lon = *p.Lon
	}
	if p.Date != nil {
		sel.Date = *p.Date
	}
	if p.Activity != nil {
		sel.Activity = *p.Activity
	}
	return sel
}

// Reason tells why an Event was published.
type Reason int

const (
	// ReasonChanged is published when the coordinate or the date changed.
	ReasonChanged Reason = iota
	// ReasonExplicit is published by Trigger.
	ReasonExplicit
)

func (r Reason) String() string {
	if r == ReasonExplicit {
		return "explicit"
	}
	return "changed"
}

// Event asks the consumers to analyze Selection.
type Event struct {
	Selection Selection
	Reason    Reason
	Seq       uint64
	At        time.Time
}

// Store is the single owner of the current Selection. Writes are last-write-wins.
type Store struct {
	mu          sync.RWMutex
	logger      *logger.Logger
	current     Selection
	seq         uint64
	subscribers map[string]map[chan Event]struct{}
}

// New returns a Store holding initial. The initial selection must be valid.
func New(initial Selection, log *logger.Logger) (*Store, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		logger:      log,
		current:     initial,
		subscribers: make(map[string]map[chan Event]struct{}),
	}, nil
}

// Current returns a copy of the current selection.
func (s *Store) Current() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies p and returns the resulting selection. If the latitude, longitude or date
// changed, exactly one ReasonChanged event is published. An invalid update is rejected and
// leaves the store unchanged.
func (s *Store) Update(p Partial) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := p.apply(s.current)
	if err := next.Validate(); err != nil {
		return s.current, err
	}

	prev := s.current
	s.current = next
	if prev.Lat != next.Lat || prev.Lon != next.Lon || prev.Date != next.Date {
		s.publish(ReasonChanged)
	}
	return next, nil
}

// Trigger publishes a ReasonExplicit event for the current selection.
func (s *Store) Trigger() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish(ReasonExplicit)
	return s.current
}

// Subscribe adds a subscriber under key with the given buffer size, returning the event
// channel and an unsubscribe function. Events that do not fit into the buffer are dropped.
func (s *Store) Subscribe(key string, size int) (<-chan Event, func()) {
	events := make(chan Event, size)
	s.mu.Lock()
	if _, ok := s.subscribers[key]; !ok {
		s.subscribers[key] = make(map[chan Event]struct{})
	}
	s.subscribers[key][events] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			s.mu.Lock()
			if subs, ok := s.subscribers[key]; ok {
				delete(subs, events)
				if len(subs) == 0 {
					delete(s.subscribers, key)
				}
			}
			s.mu.Unlock()
			close(events)
		})
	}
	return events, unsub
}

// publish must be called with the write lock held.
func (s *Store) publish(reason Reason) {
	s.seq++
	event := Event{Selection: s.current, Reason: reason, Seq: s.seq, At: time.Now()}
	for key, subs := range s.subscribers {
		for ch := range subs {
			select {
			case ch <- event:
			default:
				if s.logger != nil {
					s.logger.Warn("selection subscriber is full, dropping event", slog.String("subscriber", key),
						slog.Uint64("seq", event.Seq), slog.String("reason", reason.String()))
				}
			}
		}
	}
}
