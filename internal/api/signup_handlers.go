package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/carebridge/booking-platform/internal/identity"
	"github.com/carebridge/booking-platform/internal/signup"
	"github.com/carebridge/booking-platform/internal/storage"
)

const maxSignupFormSize = 32 << 20 // 32 MiB

func submitDoctorSignupHandler(svc *signup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxSignupFormSize); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_form", "could not parse multipart form")
			return
		}

		var app signup.DoctorApplication
		if err := json.Unmarshal([]byte(r.FormValue("application")), &app); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_application", "application must be a JSON object")
			return
		}

		sub := signup.DoctorSubmission{
			Email:       r.FormValue("email"),
			Password:    r.FormValue("password"),
			Application: app,
		}

		if file, header, err := r.FormFile("profile_image"); err == nil {
			defer file.Close()
			sub.ProfileImage = attachmentFrom(file, header)
		}

		requestID, err := svc.SubmitDoctor(r.Context(), sub)
		if err != nil {
			handleSignupError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, SignupResponse{
			RequestID: requestID,
			Status:    string(signup.StatusPending),
		})
	}
}

func submitHospitalSignupHandler(svc *signup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxSignupFormSize); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_form", "could not parse multipart form")
			return
		}

		var app signup.HospitalApplication
		if err := json.Unmarshal([]byte(r.FormValue("application")), &app); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_application", "application must be a JSON object")
			return
		}

		sub := signup.HospitalSubmission{
			Email:       r.FormValue("email"),
			Password:    r.FormValue("password"),
			Application: app,
		}

		if r.MultipartForm != nil {
			for _, header := range r.MultipartForm.File["images"] {
				file, err := header.Open()
				if err != nil {
					writeError(w, http.StatusBadRequest, "invalid_image", fmt.Sprintf("could not read image %q", header.Filename))
					return
				}
				defer file.Close()
				sub.Images = append(sub.Images, *attachmentFrom(file, header))
			}
		}

		if file, header, err := r.FormFile("certificate"); err == nil {
			defer file.Close()
			sub.Certificate = attachmentFrom(file, header)
		}

		requestID, err := svc.SubmitHospital(r.Context(), sub)
		if err != nil {
			handleSignupError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, SignupResponse{
			RequestID: requestID,
			Status:    string(signup.StatusPending),
		})
	}
}

func getSignupStatusHandler(svc *signup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := svc.GetRequest(r.Context(), chi.URLParam(r, "requestID"))
		if err != nil {
			handleSignupError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSignupStatusResponse(req))
	}
}

func listPendingRequestsHandler(svc *signup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests, err := svc.ListPending(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]SignupStatusResponse, 0, len(requests))
		for i := range requests {
			out = append(out, toSignupStatusResponse(&requests[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func approveRequestHandler(svc *signup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := chi.URLParam(r, "requestID")

		if err := svc.Approve(r.Context(), requestID); err != nil {
			handleSignupError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, SignupResponse{
			RequestID: requestID,
			Status:    string(signup.StatusApproved),
		})
	}
}

func rejectRequestHandler(svc *signup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := chi.URLParam(r, "requestID")

		var req RejectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := svc.Reject(r.Context(), requestID, req.Reason); err != nil {
			handleSignupError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, SignupResponse{
			RequestID: requestID,
			Status:    string(signup.StatusRejected),
		})
	}
}

func attachmentFrom(file multipart.File, header *multipart.FileHeader) *signup.Attachment {
	return &signup.Attachment{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	}
}

func handleSignupError(w http.ResponseWriter, err error) {
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &fieldErrs):
		writeValidationError(w, err)
	case errors.Is(err, signup.ErrReasonRequired):
		writeError(w, http.StatusBadRequest, "reason_required", err.Error())
	case errors.Is(err, signup.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, "request_not_found", err.Error())
	case errors.Is(err, signup.ErrTerminalState):
		writeError(w, http.StatusConflict, "request_already_decided", err.Error())
	case errors.Is(err, identity.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, storage.ErrUploadFailed):
		writeError(w, http.StatusBadGateway, "upload_failed", err.Error())
	case errors.Is(err, identity.ErrProviderUnavailable):
		writeError(w, http.StatusBadGateway, "identity_unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
