package availability

import (
	"github.com/google/uuid"
)

// ConsultationType selects which tier of a doctor's fee schedule applies.
type ConsultationType string

const (
	ConsultationFollowUp   ConsultationType = "followup"
	ConsultationGeneral    ConsultationType = "general"
	ConsultationSpecialist ConsultationType = "specialist"
)

// DaySchedule is a doctor-declared set of open time ranges for one calendar
// date. The declared slots are a superset of what is actually bookable; the
// booked set is resolved separately against the appointments table.
type DaySchedule struct {
	DoctorID uuid.UUID
	Date     string   // ISO date, e.g. "2025-03-10"
	Slots    []string // range strings, e.g. "10:00-10:30", declared order
}

// FeeSchedule is the doctor's three-tier consultation pricing.
type FeeSchedule struct {
	FollowUpCents       int64
	GeneralCheckupCents int64
	SpecialistCents     int64
}
