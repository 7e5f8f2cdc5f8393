package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carebridge/booking-platform/internal/availability"
)

func listAvailableDatesHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
			return
		}

		dates, err := svc.ListAvailableDates(r.Context(), doctorID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, AvailableDatesResponse{
			DoctorID: doctorID.String(),
			Dates:    dates,
		})
	}
}

func listBookableTimesHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
			return
		}
		date := chi.URLParam(r, "date")

		declared, err := svc.ListBookableTimes(r.Context(), doctorID, date)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		booked, err := svc.BookedTimes(r.Context(), doctorID, date)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, DayAvailabilityResponse{
			DoctorID: doctorID.String(),
			Date:     date,
			Declared: declared,
			Booked:   booked,
		})
	}
}
