package models

import "time"

type LiveStatus string

const (
	LiveStatusScheduled LiveStatus = "Scheduled"
	LiveStatusActiveNow LiveStatus = "Active Now"
	LiveStatusExpired   LiveStatus = "Expired"
)

// DeriveLiveStatus classifies a schedule window against the given clock.
// Boundaries are inclusive: now == start and now == end both count as
// Active Now. The result depends only on wall-clock time, so callers must
// recompute it on every evaluation rather than cache it.
func DeriveLiveStatus(now, startTime, endTime time.Time) LiveStatus {
	if now.Before(startTime) {
		return LiveStatusScheduled
	}
	if now.After(endTime) {
		return LiveStatusExpired
	}
	return LiveStatusActiveNow
}

func (a *SurgeArea) LiveStatus(now time.Time) LiveStatus {
	return DeriveLiveStatus(now, a.StartTime, a.EndTime)
}

// CountsAsActiveNow reports whether the area contributes to the dashboard
// "Active Now" counter: the administrative toggle and the time window must
// both agree.
func (a *SurgeArea) CountsAsActiveNow(now time.Time) bool {
	return a.IsActive && a.LiveStatus(now) == LiveStatusActiveNow
}

type Counters struct {
	Total     int `json:"total"`
	ActiveNow int `json:"activeNow"`
	Scheduled int `json:"scheduled"`
	Expired   int `json:"expired"`
	Disabled  int `json:"disabled"`
}

// CountStatuses recomputes dashboard counters from scratch for the given
// clock reading.
func CountStatuses(areas []SurgeArea, now time.Time) Counters {
	c := Counters{Total: len(areas)}
	for i := range areas {
		a := &areas[i]
		if !a.IsActive {
			c.Disabled++
		}
		if a.CountsAsActiveNow(now) {
			c.ActiveNow++
		}
		switch a.LiveStatus(now) {
		case LiveStatusScheduled:
			c.Scheduled++
		case LiveStatusExpired:
			c.Expired++
		}
	}
	return c
}
