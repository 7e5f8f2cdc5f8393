package payment

import (
	"context"

	"github.com/google/uuid"
)

type ChargeStatus string

const (
	ChargeCreated   ChargeStatus = "created"
	ChargeSucceeded ChargeStatus = "succeeded"
	ChargeFailed    ChargeStatus = "failed"
)

type ChargeRequest struct {
	AppointmentID uuid.UUID
	PatientID     uuid.UUID
	AmountCents   int64
	Description   string
}

type Charge struct {
	ID     string
	Status ChargeStatus
}

// Gateway is the external payment collaborator. The charge outcome arrives
// asynchronously on the payment webhook; CreateCharge only opens the charge.
type Gateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
}
