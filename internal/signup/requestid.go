package signup

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const suffixLength = 8

// newRequestID builds the applicant-visible tracking ID, e.g.
// "hospital_1741600000000_a9Xk3Qp2". The suffix comes from crypto/rand so
// IDs stay collision-resistant without trusting client clocks.
func newRequestID(entity EntityType) (string, error) {
	suffix := make([]byte, suffixLength)
	max := big.NewInt(int64(len(suffixAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate request id suffix: %w", err)
		}
		suffix[i] = suffixAlphabet[n.Int64()]
	}

	return fmt.Sprintf("%s_%d_%s", entity, time.Now().UnixMilli(), suffix), nil
}
