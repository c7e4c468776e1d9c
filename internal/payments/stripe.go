package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// StripeProcessor implements Processor against the Stripe API.
type StripeProcessor struct {
	sc *client.API
}

func NewStripeProcessor(apiKey string) *StripeProcessor {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &StripeProcessor{sc: sc}
}

func (s *StripeProcessor) CreateIntent(ctx context.Context, p CreateIntentParams) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:             stripe.Params{Context: ctx},
		Amount:             stripe.Int64(p.AmountMinor),
		Currency:           stripe.String(p.Currency),
		Customer:           stripe.String(p.CustomerRef),
		PaymentMethod:      stripe.String(p.MethodRef),
		UseStripeSDK:       stripe.Bool(true),
		ConfirmationMethod: stripe.String(string(stripe.PaymentIntentConfirmationMethodManual)),
		Confirm:            stripe.Bool(true),
	}
	if p.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(p.ReceiptEmail)
	}
	if p.Destination != "" {
		params.TransferData = &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(p.Destination),
		}
	}
	if p.OffSession {
		params.OffSession = stripe.Bool(true)
	}
	params.AddMetadata("order_id", strconv.FormatUint(uint64(p.OrderID), 10))
	params.AddMetadata("purpose", string(p.Purpose))

	pi, err := s.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return fromPaymentIntent(pi), nil
}

func (s *StripeProcessor) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	pi, err := s.sc.PaymentIntents.Get(id, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, mapStripeError(err)
	}
	return fromPaymentIntent(pi), nil
}

func (s *StripeProcessor) ConfirmIntent(ctx context.Context, id string) (*Intent, error) {
	pi, err := s.sc.PaymentIntents.Confirm(id, &stripe.PaymentIntentConfirmParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, mapStripeError(err)
	}
	return fromPaymentIntent(pi), nil
}

func (s *StripeProcessor) CreateCustomer(ctx context.Context) (string, error) {
	cust, err := s.sc.Customers.New(&stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return "", mapStripeError(err)
	}
	return cust.ID, nil
}

func (s *StripeProcessor) CreateSetupIntent(ctx context.Context, customerRef string) (string, error) {
	si, err := s.sc.SetupIntents.New(&stripe.SetupIntentParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(customerRef),
	})
	if err != nil {
		return "", mapStripeError(err)
	}
	return si.ClientSecret, nil
}

func (s *StripeProcessor) ListPaymentMethods(ctx context.Context, customerRef string) ([]Card, error) {
	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerRef),
		Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
	}
	params.Context = ctx

	var cards []Card
	iter := s.sc.PaymentMethods.List(params)
	for iter.Next() {
		pm := iter.PaymentMethod()
		if pm.Card == nil {
			continue
		}
		cards = append(cards, Card{
			PaymentMethodID: pm.ID,
			Brand:           string(pm.Card.Brand),
			ExpMonth:        pm.Card.ExpMonth,
			ExpYear:         pm.Card.ExpYear,
			Last4:           pm.Card.Last4,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, mapStripeError(err)
	}
	return cards, nil
}

func (s *StripeProcessor) DetachPaymentMethod(ctx context.Context, methodRef string) error {
	_, err := s.sc.PaymentMethods.Detach(methodRef, &stripe.PaymentMethodDetachParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return mapStripeError(err)
	}
	return nil
}

func fromPaymentIntent(pi *stripe.PaymentIntent) *Intent {
	in := &Intent{
		ID:           pi.ID,
		Status:       IntentStatus(pi.Status),
		ClientSecret: pi.ClientSecret,
		Purpose:      Purpose(pi.Metadata["purpose"]),
	}
	if pi.LastPaymentError != nil {
		in.LastError = pi.LastPaymentError.Msg
	}
	if raw, ok := pi.Metadata["order_id"]; ok {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			in.OrderID = uint(id)
		}
	}
	if in.Purpose == "" {
		in.Purpose = PurposeOrder
	}
	return in
}

// mapStripeError splits user-actionable card declines from infrastructure
// failures, which stay retryable and opaque.
func mapStripeError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Type == stripe.ErrorTypeCard {
		return &CardError{Message: se.Msg}
	}
	return fmt.Errorf("%w: %v", ErrProcessor, err)
}
