package payment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPGateway(baseURL, apiKey string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type createChargeBody struct {
	ReferenceID string `json:"reference_id"`
	PatientID   string `json:"patient_id"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
}

type chargeBody struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (g *HTTPGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	body, err := json.Marshal(createChargeBody{
		ReferenceID: req.AppointmentID.String(),
		PatientID:   req.PatientID.String(),
		AmountCents: req.AmountCents,
		Description: req.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("create charge: unexpected status %d", resp.StatusCode)
	}

	var out chargeBody
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode charge response: %w", err)
	}

	return &Charge{ID: out.ID, Status: ChargeStatus(out.Status)}, nil
}
