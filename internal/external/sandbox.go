package external

import (
	"context"
	"strings"

	"boxoffice/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SandboxAuthorizer approves every token except those prefixed with
// "decline". It is meant for local runs without a gateway.
type SandboxAuthorizer struct{}

func (SandboxAuthorizer) Authorize(ctx context.Context, amount decimal.Decimal, token string) (models.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return models.PaymentResult{}, err
	}
	if token == "" || strings.HasPrefix(token, "decline") {
		return models.PaymentResult{Error: "sandbox: payment declined"}, nil
	}
	return models.PaymentResult{Success: true, Reference: "sandbox_" + uuid.NewString()}, nil
}
