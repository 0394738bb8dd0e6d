package locale

import "time"

// FacilityTimezone is where every catalogued facility is located. Visit dates
// are compared against the calendar day there, not on the caller's machine.
const FacilityTimezone = "America/New_York"

// Location loads name, falling back to UTC when the zone database is missing.
func Location(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Clock returns now() expressed in loc.
func Clock(loc *time.Location, now func() time.Time) func() time.Time {
	if now == nil {
		now = time.Now
	}
	return func() time.Time { return now().In(loc) }
}
