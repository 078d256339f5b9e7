// Package clock resolves the current time and calendar date in the
// program's fixed time zone. Daily gratitude quotas and attendance date
// stamps are all keyed on this zone, not on server local time.
package clock

import "time"

// DateFormat is the layout of all persisted date strings.
const DateFormat = "2006-01-02"

// Clock provides the current time and period date. Injected so tests can
// pin the day.
type Clock interface {
	Now() time.Time
	Today() string
}

// Zone is a Clock fixed to one IANA time zone.
type Zone struct {
	loc *time.Location
}

// New creates a Clock for the given IANA zone name, e.g. "Asia/Seoul".
func New(name string) (*Zone, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	return &Zone{loc: loc}, nil
}

// Now returns the current time in the configured zone.
func (z *Zone) Now() time.Time {
	return time.Now().In(z.loc)
}

// Today returns the current calendar date in the configured zone as
// YYYY-MM-DD.
func (z *Zone) Today() string {
	return z.Now().Format(DateFormat)
}

// Fixed is a Clock pinned to a single instant, for tests.
type Fixed struct {
	T time.Time
}

// Now returns the pinned instant.
func (f Fixed) Now() time.Time { return f.T }

// Today returns the pinned instant's calendar date.
func (f Fixed) Today() string { return f.T.Format(DateFormat) }
