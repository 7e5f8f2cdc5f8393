package signup

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/carebridge/booking-platform/internal/account"
	"github.com/carebridge/booking-platform/internal/identity"
	"github.com/carebridge/booking-platform/internal/mailer"
	"github.com/carebridge/booking-platform/internal/storage"
)

var (
	ErrTerminalState  = errors.New("signup request already decided")
	ErrReasonRequired = errors.New("rejection reason is required")
)

var validate = validator.New()

type Service struct {
	repo  Repository
	idp   identity.Provider
	store storage.ObjectStore
	mail  mailer.Sender
	log   *zap.Logger
}

func NewService(repo Repository, idp identity.Provider, store storage.ObjectStore, mail mailer.Sender, log *zap.Logger) *Service {
	return &Service{
		repo:  repo,
		idp:   idp,
		store: store,
		mail:  mail,
		log:   log,
	}
}

// SubmitDoctor runs the doctor registration flow: validate, create the
// identity credential, trigger the verification email, upload the profile
// image, persist the request and sign the fresh credential out so an
// unapproved account cannot reach authenticated routes.
func (s *Service) SubmitDoctor(ctx context.Context, sub DoctorSubmission) (string, error) {
	if err := validate.Struct(sub); err != nil {
		return "", err
	}

	cred, err := s.idp.CreateCredential(ctx, sub.Email, sub.Password)
	if err != nil {
		return "", fmt.Errorf("create credential: %w", err)
	}

	if err := s.idp.SendVerificationEmail(ctx, cred.UID); err != nil {
		s.log.Warn("verification email failed",
			zap.String("email", sub.Email),
			zap.Error(err),
		)
	}

	requestID, err := newRequestID(EntityDoctor)
	if err != nil {
		return "", err
	}

	app := sub.Application
	if sub.ProfileImage != nil {
		// The credential already exists at this point; an upload failure
		// leaves it orphaned. See DESIGN.md.
		url, err := s.uploadAttachment(ctx, requestID, "profile", sub.ProfileImage)
		if err != nil {
			return "", err
		}
		app.ProfileImageURL = url
	}

	req := &SignupRequest{
		RequestID:   requestID,
		EntityType:  EntityDoctor,
		Status:      StatusPending,
		Email:       sub.Email,
		UID:         cred.UID,
		SubmittedAt: time.Now(),
		Doctor:      &app,
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return "", fmt.Errorf("persist signup request: %w", err)
	}

	if err := s.idp.SignOut(ctx, cred.UID); err != nil {
		s.log.Warn("post-submission sign-out failed",
			zap.String("uid", cred.UID.String()),
			zap.Error(err),
		)
	}

	s.log.Info("doctor signup submitted", zap.String("request_id", requestID))
	return requestID, nil
}

// SubmitHospital mirrors SubmitDoctor for hospitals: at least four facility
// images, a registration certificate and a captured geolocation are
// mandatory.
func (s *Service) SubmitHospital(ctx context.Context, sub HospitalSubmission) (string, error) {
	if err := validate.Struct(sub); err != nil {
		return "", err
	}

	cred, err := s.idp.CreateCredential(ctx, sub.Email, sub.Password)
	if err != nil {
		return "", fmt.Errorf("create credential: %w", err)
	}

	if err := s.idp.SendVerificationEmail(ctx, cred.UID); err != nil {
		s.log.Warn("verification email failed",
			zap.String("email", sub.Email),
			zap.Error(err),
		)
	}

	requestID, err := newRequestID(EntityHospital)
	if err != nil {
		return "", err
	}

	app := sub.Application
	app.ImageURLs = make([]string, 0, len(sub.Images))
	for i := range sub.Images {
		url, err := s.uploadAttachment(ctx, requestID, fmt.Sprintf("image-%d", i+1), &sub.Images[i])
		if err != nil {
			return "", err
		}
		app.ImageURLs = append(app.ImageURLs, url)
	}

	certURL, err := s.uploadAttachment(ctx, requestID, "certificate", sub.Certificate)
	if err != nil {
		return "", err
	}
	app.CertificateURL = certURL

	req := &SignupRequest{
		RequestID:   requestID,
		EntityType:  EntityHospital,
		Status:      StatusPending,
		Email:       sub.Email,
		UID:         cred.UID,
		SubmittedAt: time.Now(),
		Hospital:    &app,
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return "", fmt.Errorf("persist signup request: %w", err)
	}

	if err := s.idp.SignOut(ctx, cred.UID); err != nil {
		s.log.Warn("post-submission sign-out failed",
			zap.String("uid", cred.UID.String()),
			zap.Error(err),
		)
	}

	s.log.Info("hospital signup submitted", zap.String("request_id", requestID))
	return requestID, nil
}

// Approve materializes the account for a pending request and removes the
// request. The materialization and the delete run in one transaction, so a
// partial write is never visible to readers.
func (s *Service) Approve(ctx context.Context, requestID string) error {
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status != StatusPending {
		return ErrTerminalState
	}

	switch req.EntityType {
	case EntityDoctor:
		app := req.Doctor
		err = s.repo.ApproveDoctor(ctx, requestID, account.Doctor{
			ID:                     req.UID,
			Email:                  req.Email,
			FullName:               app.FullName,
			Qualification:          app.Qualification,
			LicenseNumber:          app.LicenseNumber,
			Specialty:              app.Specialty,
			ConsultationModes:      app.ConsultationModes,
			FollowUpFeeCents:       app.FollowUpFeeCents,
			GeneralCheckupFeeCents: app.GeneralCheckupFeeCents,
			SpecialistFeeCents:     app.SpecialistFeeCents,
			ProfileImageURL:        app.ProfileImageURL,
		})
	case EntityHospital:
		app := req.Hospital
		err = s.repo.ApproveHospital(ctx, requestID, account.Hospital{
			ID:             req.UID,
			Email:          req.Email,
			Name:           app.Name,
			Address:        app.Address,
			Latitude:       app.Location.Latitude,
			Longitude:      app.Location.Longitude,
			ImageURLs:      app.ImageURLs,
			CertificateURL: app.CertificateURL,
		})
	default:
		return fmt.Errorf("unknown entity type %q", req.EntityType)
	}
	if err != nil {
		return fmt.Errorf("approve %s request: %w", req.EntityType, err)
	}

	s.notifyDecision(ctx, req, true, "")
	s.log.Info("signup request approved",
		zap.String("request_id", requestID),
		zap.String("entity_type", string(req.EntityType)),
	)

	return nil
}

// Reject moves a pending request to rejected, keeping the row so the
// applicant can still query the reason. Rejecting an already-rejected
// request is a no-op; rejecting an approved one fails. The identity
// credential is deleted so no login-capable, role-less account lingers.
func (s *Service) Reject(ctx context.Context, requestID, reason string) error {
	if reason == "" {
		return ErrReasonRequired
	}

	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	switch req.Status {
	case StatusRejected:
		return nil
	case StatusApproved:
		return ErrTerminalState
	}

	if _, err := s.repo.MarkRejected(ctx, requestID, reason); err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			// Raced with another admin action; re-read for the verdict.
			cur, getErr := s.repo.GetRequest(ctx, requestID)
			if getErr == nil && cur.Status == StatusRejected {
				return nil
			}
			return ErrTerminalState
		}
		return fmt.Errorf("reject request: %w", err)
	}

	if err := s.idp.DeleteCredential(ctx, req.UID); err != nil && !errors.Is(err, identity.ErrCredentialNotFound) {
		s.log.Error("failed to reclaim credential of rejected applicant",
			zap.String("request_id", requestID),
			zap.String("uid", req.UID.String()),
			zap.Error(err),
		)
	}

	s.notifyDecision(ctx, req, false, reason)
	s.log.Info("signup request rejected",
		zap.String("request_id", requestID),
		zap.String("entity_type", string(req.EntityType)),
	)

	return nil
}

func (s *Service) GetRequest(ctx context.Context, requestID string) (*SignupRequest, error) {
	return s.repo.GetRequest(ctx, requestID)
}

func (s *Service) ListPending(ctx context.Context) ([]SignupRequest, error) {
	return s.repo.ListPending(ctx)
}

func (s *Service) uploadAttachment(ctx context.Context, requestID, label string, att *Attachment) (string, error) {
	key := path.Join("signup", requestID, label+path.Ext(att.Name))
	url, err := s.store.Upload(ctx, key, att.Reader, att.Size, att.ContentType)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", label, err)
	}
	return url, nil
}

func (s *Service) notifyDecision(ctx context.Context, req *SignupRequest, approved bool, reason string) {
	payload := mailer.DecisionEmail(req.Email, string(req.EntityType), approved, reason)
	if err := s.mail.Send(ctx, payload); err != nil {
		s.log.Warn("decision email failed",
			zap.String("request_id", req.RequestID),
			zap.Error(err),
		)
	}
}
