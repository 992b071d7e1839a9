package bureau

import (
	"context"
	"hash/fnv"
)

// MockValidator returns deterministic synthetic verdicts keyed by CUIT, so
// the pipeline is testable without bureau credentials. The same CUIT always
// yields the same verdict.
type MockValidator struct{}

// NewMockValidator constructs the deterministic stand-in.
func NewMockValidator() *MockValidator {
	return &MockValidator{}
}

// Check derives a verdict from a hash of the normalized CUIT. Counts land in
// [0, 7) so all three risk tiers are reachable in tests.
func (m *MockValidator) Check(ctx context.Context, cuit string) (Verdict, error) {
	if err := ctx.Err(); err != nil {
		return Verdict{}, err
	}
	digits, err := cuitDigits(cuit)
	if err != nil {
		return Verdict{}, err
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(digits))
	count := int(h.Sum32() % 7)

	return Verdict{
		Estado:            statusForCount(count),
		ChequesRechazados: count,
		Riesgo:            riskForCount(count),
		Mocked:            true,
	}, nil
}
