package fiscal

import "time"

// Year represents a fiscal year window. Exactly one year is active at a time.
type Year struct {
	ID        int64
	Code      string
	StartDate time.Time
	EndDate   time.Time
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contains reports whether the date falls inside the year window.
func (y Year) Contains(date time.Time) bool {
	return !date.Before(y.StartDate) && !date.After(y.EndDate)
}

// Fund is a grouping dimension every posted entry carries.
type Fund struct {
	ID        int64
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
