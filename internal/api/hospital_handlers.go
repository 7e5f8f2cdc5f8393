package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/carebridge/booking-platform/internal/account"
)

func addRosterEntryHandler(svc *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hospitalID, err := uuid.Parse(chi.URLParam(r, "hospitalID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_hospital_id", "hospitalID must be a valid UUID")
			return
		}

		var req RosterAddRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		entry, err := svc.AddDoctorToRoster(r.Context(), hospitalID, doctorID, req.LicenseNumber)
		if err != nil {
			handleAccountError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, entry)
	}
}

func getRosterHandler(repo account.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hospitalID, err := uuid.Parse(chi.URLParam(r, "hospitalID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_hospital_id", "hospitalID must be a valid UUID")
			return
		}

		roster, err := repo.GetRoster(r.Context(), hospitalID)
		if err != nil {
			handleAccountError(w, err)
			return
		}
		if roster == nil {
			roster = []account.RosterEntry{}
		}

		writeJSON(w, http.StatusOK, roster)
	}
}

func updateBedAvailabilityHandler(svc *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hospitalID, err := uuid.Parse(chi.URLParam(r, "hospitalID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_hospital_id", "hospitalID must be a valid UUID")
			return
		}

		var req BedAvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		err = svc.UpdateBedAvailability(r.Context(), account.BedAvailability{
			HospitalID: hospitalID,
			ICU:        req.ICU,
			General:    req.General,
			Emergency:  req.Emergency,
			UpdatedAt:  time.Now(),
		})
		if err != nil {
			handleAccountError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func setEmergencyStatusHandler(svc *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hospitalID, err := uuid.Parse(chi.URLParam(r, "hospitalID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_hospital_id", "hospitalID must be a valid UUID")
			return
		}

		var req EmergencyStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := svc.SetEmergencyStatus(r.Context(), hospitalID, req.Available); err != nil {
			handleAccountError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func handleAccountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, account.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, account.ErrHospitalNotFound):
		writeError(w, http.StatusNotFound, "hospital_not_found", err.Error())
	case errors.Is(err, account.ErrLicenseMismatch):
		writeError(w, http.StatusBadRequest, "license_mismatch", err.Error())
	case errors.Is(err, account.ErrAlreadyOnRoster):
		writeError(w, http.StatusConflict, "already_on_roster", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
