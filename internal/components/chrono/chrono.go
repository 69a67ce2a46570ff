package chrono

import (
	"sync"
	"time"
)

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time in the location the clock was made with.
	Now() time.Time
	Location() *time.Location
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct {
	location *time.Location
}

// NewStandardTime is the constructor of StandardTime, a nil location means local time.
func NewStandardTime(location *time.Location) StandardTime {
	if location == nil {
		location = time.Local
	}
	return StandardTime{location: location}
}

func (s StandardTime) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardTime) Location() *time.Location {
	return s.location
}

// ManualTime is a TimeAPI whose time only moves when told to.
type ManualTime struct {
	mutex sync.Mutex
	now   time.Time
}

func NewManualTime(now time.Time) *ManualTime {
	return &ManualTime{now: now}
}

func (m *ManualTime) Now() time.Time {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.now
}

func (m *ManualTime) Location() *time.Location {
	return m.Now().Location()
}

func (m *ManualTime) Set(now time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.now = now
}

func (m *ManualTime) Advance(d time.Duration) time.Time {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.now = m.now.Add(d)
	return m.now
}
