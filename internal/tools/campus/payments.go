package campus

import (
	"context"
	"fmt"
	"time"

	"github.com/campusbuddy/campusbuddy/internal/tools"
	"github.com/campusbuddy/campusbuddy/pkg/provider/llm"
)

// paymentInstructions is always attached to the payments payload, outstanding
// records or not, so the model can answer "how do I pay" without a second
// lookup.
const paymentInstructions = "Payments can be made online via the student portal " +
	"(Finances > Make a Payment) using card or bank transfer. Reference your " +
	"student ID with every transfer. Contact student-finance@university.edu " +
	"for payment plans or hardship support."

// paymentResult is one outstanding fee record.
type paymentResult struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Status      string  `json:"status"`
	DueDate     string  `json:"due_date"`
}

// paymentsResult is the full "get_my_payments" payload.
type paymentsResult struct {
	Outstanding  []paymentResult `json:"outstanding"`
	Instructions string          `json:"instructions"`
}

func (c *Catalog) paymentsHandler(ctx context.Context, _ string) (string, error) {
	uid, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	payments, err := c.store.OutstandingPayments(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("campus: get_my_payments: %w", err)
	}

	result := paymentsResult{
		Outstanding:  make([]paymentResult, 0, len(payments)),
		Instructions: paymentInstructions,
	}
	for _, p := range payments {
		result.Outstanding = append(result.Outstanding, paymentResult{
			Description: p.Description,
			Amount:      p.Amount,
			Currency:    p.Currency,
			Status:      p.Status,
			DueDate:     p.DueDate.Format(time.DateOnly),
		})
	}
	return encode(tools.NamePayments, result)
}

func (c *Catalog) paymentsTool() tools.Tool {
	return tools.Tool{
		Definition: llm.ToolDefinition{
			Name:        tools.NamePayments,
			Description: "Get the current user's outstanding (unpaid) fee records sorted by due date, together with payment instructions.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		Handler: c.paymentsHandler,
	}
}
