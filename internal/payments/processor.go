package payments

import (
	"context"
	"errors"
	"fmt"
)

// IntentStatus is the processor-side payment intent lifecycle state.
type IntentStatus string

const (
	StatusRequiresAction        IntentStatus = "requires_action"
	StatusRequiresSourceAction  IntentStatus = "requires_source_action"
	StatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	StatusRequiresSource        IntentStatus = "requires_source"
	StatusSucceeded             IntentStatus = "succeeded"
)

// Purpose tags what an intent is collecting: the order total or a follow-on tip.
type Purpose string

const (
	PurposeOrder Purpose = "order"
	PurposeTip   Purpose = "tip"
)

type Intent struct {
	ID           string
	Status       IntentStatus
	ClientSecret string
	// LastError is the human-readable message of the last payment error,
	// empty when there was none.
	LastError string
	OrderID   uint
	Purpose   Purpose
}

type Card struct {
	PaymentMethodID string `json:"payment_method_id"`
	Brand           string `json:"brand"`
	ExpMonth        int64  `json:"exp_month"`
	ExpYear         int64  `json:"exp_year"`
	Last4           string `json:"last4"`
}

type CreateIntentParams struct {
	// AmountMinor is the charge amount in minor currency units. The ×100
	// conversion happens only at this boundary.
	AmountMinor  int64
	Currency     string
	CustomerRef  string
	MethodRef    string
	ReceiptEmail string
	// Destination routes the charge to the restaurant's connected account;
	// empty routes to the platform default account.
	Destination string
	OrderID     uint
	Purpose     Purpose
	OffSession  bool
}

// Processor is the narrow port to the external payment processor.
type Processor interface {
	CreateIntent(ctx context.Context, p CreateIntentParams) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
	ConfirmIntent(ctx context.Context, id string) (*Intent, error)
	CreateCustomer(ctx context.Context) (string, error)
	CreateSetupIntent(ctx context.Context, customerRef string) (string, error)
	ListPaymentMethods(ctx context.Context, customerRef string) ([]Card, error)
	DetachPaymentMethod(ctx context.Context, methodRef string) error
}

// CardError is a user-actionable decline carrying the processor's message.
// It triggers the compensating order delete.
type CardError struct {
	Message string
}

func (e *CardError) Error() string { return "card error: " + e.Message }

// ErrProcessor marks infrastructure failures (network, auth, rate limit).
// Retryable: the order record is left untouched.
var ErrProcessor = errors.New("payment processor unavailable")

// ErrUnhandledStatus marks an intent status the state machine has no
// transition for. Surfaced as its own diagnostic, never mapped to success.
var ErrUnhandledStatus = errors.New("unhandled intent status")

func unhandled(s IntentStatus) error {
	return fmt.Errorf("%w: %q", ErrUnhandledStatus, s)
}
