package signup

import (
	"context"
	"errors"

	"github.com/carebridge/booking-platform/internal/account"
)

var (
	ErrRequestNotFound = errors.New("signup request not found")
)

// Repository contains all DB interactions needed by the approval flow. The
// Approve* methods are transactional: the account (and, for hospitals, its
// service-record skeleton) materializes and the request row disappears as
// one unit, or nothing changes at all.
type Repository interface {
	CreateRequest(ctx context.Context, req *SignupRequest) error
	GetRequest(ctx context.Context, requestID string) (*SignupRequest, error)
	ListPending(ctx context.Context) ([]SignupRequest, error)

	ApproveDoctor(ctx context.Context, requestID string, doc account.Doctor) error
	ApproveHospital(ctx context.Context, requestID string, hosp account.Hospital) error

	// MarkRejected is a compare-and-swap from pending to rejected and
	// returns ErrRequestNotFound when no pending row matched.
	MarkRejected(ctx context.Context, requestID, reason string) (*SignupRequest, error)
}
