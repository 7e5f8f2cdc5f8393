package availability

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// startMinute parses the start half of a "HH:MM-HH:MM" range string into
// minutes since midnight.
func startMinute(slot string) (int, bool) {
	start, _, found := strings.Cut(slot, "-")
	if !found {
		return 0, false
	}

	hh, mm, found := strings.Cut(strings.TrimSpace(start), ":")
	if !found {
		return 0, false
	}

	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}

	return h*60 + m, true
}

// sortSlots orders range strings ascending by start time. Malformed entries
// keep their relative order after all well-formed ones.
func sortSlots(slots []string) {
	sort.SliceStable(slots, func(i, j int) bool {
		mi, oki := startMinute(slots[i])
		mj, okj := startMinute(slots[j])
		if oki != okj {
			return oki
		}
		return mi < mj
	})
}

// sortDates orders ISO date strings by parsed calendar date, not lexically,
// so ordering holds across month and year boundaries. Unparseable dates sort
// last.
func sortDates(dates []string) {
	sort.SliceStable(dates, func(i, j int) bool {
		ti, erri := time.Parse(dateLayout, dates[i])
		tj, errj := time.Parse(dateLayout, dates[j])
		if (erri == nil) != (errj == nil) {
			return erri == nil
		}
		return ti.Before(tj)
	})
}
