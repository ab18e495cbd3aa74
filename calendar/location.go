package calendar

import (
	"github.com/pkg/errors"
	"sync"
	"time"
	// Court time zones must load on hosts without a zoneinfo database.
	_ "time/tzdata"
)

const DefaultTimezone = "Europe/Moscow"

// Locations caches loaded time zones by name.
type Locations struct {
	mu    sync.RWMutex
	cache map[string]*time.Location
}

func NewLocations() *Locations {
	return &Locations{cache: make(map[string]*time.Location)}
}

func (l *Locations) Get(timeZone string) (*time.Location, error) {
	if timeZone == "" {
		timeZone = DefaultTimezone
	}
	l.mu.RLock()
	location, ok := l.cache[timeZone]
	l.mu.RUnlock()
	if ok {
		return location, nil
	}
	location, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load time zone %v", timeZone)
	}
	l.mu.Lock()
	l.cache[timeZone] = location
	l.mu.Unlock()
	return location, nil
}

// GetOrUTC is Get that falls back to UTC for unknown zones.
func (l *Locations) GetOrUTC(timeZone string) *time.Location {
	location, err := l.Get(timeZone)
	if err != nil {
		return time.UTC
	}
	return location
}
