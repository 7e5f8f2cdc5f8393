package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

type Credential struct {
	UID      uuid.UUID
	Email    string
	Verified bool
}

// Provider is the external identity collaborator. Roles and approval status
// live in our own store, not here: a credential can authenticate while the
// owner is still role-less.
type Provider interface {
	CreateCredential(ctx context.Context, email, password string) (*Credential, error)
	SignIn(ctx context.Context, email, password string) (token string, err error)
	SignOut(ctx context.Context, uid uuid.UUID) error
	SendVerificationEmail(ctx context.Context, uid uuid.UUID) error
	DeleteCredential(ctx context.Context, uid uuid.UUID) error
}
