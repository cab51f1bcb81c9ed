package service

import (
	"fmt"
	"time"

	"greenhat/internal/models"
)

// portalTimeLayouts accepted for portal timestamps. The portal emits
// RFC3339; the second layout covers payloads without a zone offset.
var portalTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}

func parsePortalTime(s string) (time.Time, error) {
	for _, layout := range portalTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// RecomputeSessions derives remaining time and the effective ended flag for
// every session relative to now. Pure: the input slice is left untouched and
// order is preserved. A session whose end time has passed is ended locally
// even when the portal flag lags behind, and an unparseable end time counts
// as ended (the conservative state) with a warning.
func RecomputeSessions(sessions []models.Session, now time.Time) ([]models.Session, []Warning) {
	out := make([]models.Session, len(sessions))
	copy(out, sessions)

	var warnings []Warning
	for i := range out {
		s := &out[i]
		if s.Ended {
			s.Remaining = 0
			continue
		}
		end, err := parsePortalTime(s.EndTime)
		if err != nil {
			s.Ended = true
			s.Remaining = 0
			warnings = append(warnings, Warning{Kind: WarnSessionEndTime, ID: s.ID, Detail: err.Error()})
			continue
		}
		remaining := end.Sub(now)
		if remaining <= 0 {
			s.Ended = true
			s.Remaining = 0
			continue
		}
		s.Remaining = remaining
	}
	return out, warnings
}

// CountSessions splits a tracked slice into active and ended totals.
func CountSessions(sessions []models.Session) (active, ended int) {
	for _, s := range sessions {
		if s.Ended {
			ended++
		} else {
			active++
		}
	}
	return active, ended
}
