package payments

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/swickapp/swick-server/internal/models"
)

// OrderStore is what the coordinator needs from persistence. The order row is
// written before and after the processor call, never while holding a lock
// across it.
type OrderStore interface {
	Get(ctx context.Context, orderID uint) (*models.Order, error)
	SetPaymentRef(ctx context.Context, orderID uint, intentID string) error
	CompletePayment(ctx context.Context, orderID uint) error
	SetTip(ctx context.Context, orderID uint, amount decimal.Decimal, intentID string) error
	ClearTip(ctx context.Context, orderID uint) error
	// Delete is the compensating rollback for a failed payment; cascades to
	// items and their customizations.
	Delete(ctx context.Context, orderID uint) error
}

// Result is the outcome of a coordinator transition, in wire terms.
// IntentStatus "card_error" carries the processor's user-facing message.
// OrderID, Purpose and Settled never go over the wire; they tell the caller
// which order the intent belongs to and whether this call transitioned its
// payment state, so an idempotent re-run does not refire side effects.
type Result struct {
	IntentStatus string `json:"intent_status"`
	IntentID     string `json:"payment_intent,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	ErrorMessage string `json:"error,omitempty"`

	OrderID uint    `json:"-"`
	Purpose Purpose `json:"-"`
	Settled bool    `json:"-"`
}

// Coordinator drives the payment-intent protocol: create, confirm,
// retry-on-required-action, and compensating rollback of unpaid orders.
type Coordinator struct {
	Processor Processor
	Store     OrderStore
	// Live routes charges to the restaurant's connected account; otherwise
	// everything lands on the platform default account.
	Live     bool
	Currency string
	Log      *slog.Logger
}

func NewCoordinator(p Processor, s OrderStore, live bool, log *slog.Logger) *Coordinator {
	return &Coordinator{Processor: p, Store: s, Live: live, Currency: "usd", Log: log}
}

func minorUnits(d decimal.Decimal) int64 {
	return d.Shift(2).IntPart()
}

// Place charges the frozen order total. The total was set at placement time
// and is never recomputed here, so a slow client retry cannot be charged a
// different amount than quoted.
func (c *Coordinator) Place(ctx context.Context, order *models.Order, methodRef, email string) (*Result, error) {
	dest := ""
	if c.Live {
		dest = order.Restaurant.StripeAcctID
	}

	intent, err := c.Processor.CreateIntent(ctx, CreateIntentParams{
		AmountMinor:  minorUnits(*order.Total),
		Currency:     c.Currency,
		CustomerRef:  order.Customer.StripeCustID,
		MethodRef:    methodRef,
		ReceiptEmail: email,
		Destination:  dest,
		OrderID:      order.ID,
		Purpose:      PurposeOrder,
	})
	if err != nil {
		return c.placeFailed(ctx, order.ID, err)
	}

	switch intent.Status {
	case StatusRequiresAction, StatusRequiresSourceAction:
		if err := c.Store.SetPaymentRef(ctx, order.ID, intent.ID); err != nil {
			return nil, err
		}
		return &Result{IntentStatus: string(intent.Status), IntentID: intent.ID, ClientSecret: intent.ClientSecret}, nil

	case StatusRequiresPaymentMethod:
		if err := c.Store.Delete(ctx, order.ID); err != nil {
			return nil, err
		}
		return &Result{IntentStatus: string(intent.Status), ErrorMessage: intent.LastError}, nil

	case StatusSucceeded:
		if err := c.Store.SetPaymentRef(ctx, order.ID, intent.ID); err != nil {
			return nil, err
		}
		if err := c.Store.CompletePayment(ctx, order.ID); err != nil {
			return nil, err
		}
		return &Result{
			IntentStatus: string(StatusSucceeded), IntentID: intent.ID,
			OrderID: order.ID, Purpose: PurposeOrder, Settled: true,
		}, nil
	}

	c.Log.Error("unhandled intent status on place", "order_id", order.ID, "intent_status", intent.Status)
	return nil, unhandled(intent.Status)
}

// Retry re-fetches and re-confirms a stored intent after the client completed
// the required action. Idempotent: an already-succeeded intent is observed and
// reported without re-confirming.
func (c *Coordinator) Retry(ctx context.Context, intentID string) (*Result, error) {
	intent, err := c.Processor.RetrieveIntent(ctx, intentID)
	if err != nil {
		// Retrieval carries no order context to roll back; processor errors
		// stay retryable either way.
		return nil, err
	}

	if intent.Status == StatusSucceeded {
		settled, err := c.settle(ctx, intent)
		if err != nil {
			return nil, err
		}
		return &Result{
			IntentStatus: string(StatusSucceeded), IntentID: intent.ID,
			OrderID: intent.OrderID, Purpose: intent.Purpose, Settled: settled,
		}, nil
	}

	confirmed, err := c.Processor.ConfirmIntent(ctx, intent.ID)
	if err != nil {
		return c.retryFailed(ctx, intent, err)
	}

	switch confirmed.Status {
	case StatusRequiresPaymentMethod, StatusRequiresSource:
		if err := c.compensate(ctx, confirmed); err != nil {
			return nil, err
		}
		return &Result{IntentStatus: string(confirmed.Status), ErrorMessage: confirmed.LastError}, nil

	case StatusSucceeded:
		settled, err := c.settle(ctx, confirmed)
		if err != nil {
			return nil, err
		}
		if confirmed.Purpose == PurposeTip {
			// The tip ref was stored at creation; confirming it now is the
			// transition.
			settled = true
		}
		return &Result{
			IntentStatus: string(StatusSucceeded), IntentID: confirmed.ID,
			OrderID: confirmed.OrderID, Purpose: confirmed.Purpose, Settled: settled,
		}, nil
	}

	c.Log.Error("unhandled intent status on retry", "intent_id", intentID, "intent_status", confirmed.Status)
	return nil, unhandled(confirmed.Status)
}

// AddTip is a follow-on charge against the same customer's payment profile.
// It never touches Order.Total; the tip intent is tracked separately.
// Calling it again while a tip intent exists observes that intent instead of
// charging twice.
func (c *Coordinator) AddTip(ctx context.Context, order *models.Order, amount decimal.Decimal, methodRef string) (*Result, error) {
	if order.StripeTipID != "" {
		intent, err := c.Processor.RetrieveIntent(ctx, order.StripeTipID)
		if err != nil {
			return nil, err
		}
		if intent.Status == StatusSucceeded {
			// Observed, not charged again: the earlier call was the transition.
			return &Result{
				IntentStatus: string(StatusSucceeded), IntentID: intent.ID,
				OrderID: order.ID, Purpose: PurposeTip,
			}, nil
		}
		return &Result{IntentStatus: string(intent.Status), IntentID: intent.ID, ClientSecret: intent.ClientSecret}, nil
	}

	dest := ""
	if c.Live {
		dest = order.Restaurant.StripeAcctID
	}

	intent, err := c.Processor.CreateIntent(ctx, CreateIntentParams{
		AmountMinor: minorUnits(amount),
		Currency:    c.Currency,
		CustomerRef: order.Customer.StripeCustID,
		MethodRef:   methodRef,
		Destination: dest,
		OrderID:     order.ID,
		Purpose:     PurposeTip,
		OffSession:  methodRef == "",
	})
	if err != nil {
		var cardErr *CardError
		if errors.As(err, &cardErr) {
			// Tip failure never rolls back the paid order.
			return &Result{IntentStatus: "card_error", ErrorMessage: cardErr.Message}, nil
		}
		return nil, err
	}

	switch intent.Status {
	case StatusRequiresAction, StatusRequiresSourceAction, StatusSucceeded:
		if err := c.Store.SetTip(ctx, order.ID, amount, intent.ID); err != nil {
			return nil, err
		}
		return &Result{
			IntentStatus: string(intent.Status), IntentID: intent.ID, ClientSecret: intent.ClientSecret,
			OrderID: order.ID, Purpose: PurposeTip, Settled: intent.Status == StatusSucceeded,
		}, nil

	case StatusRequiresPaymentMethod:
		return &Result{IntentStatus: string(intent.Status), ErrorMessage: intent.LastError}, nil
	}

	c.Log.Error("unhandled intent status on tip", "order_id", order.ID, "intent_status", intent.Status)
	return nil, unhandled(intent.Status)
}

// settle records a succeeded intent on the order it belongs to. Safe to call
// more than once; the bool reports whether this call made the transition.
func (c *Coordinator) settle(ctx context.Context, intent *Intent) (bool, error) {
	switch intent.Purpose {
	case PurposeTip:
		// Tip amount and ref were stored when the intent was created.
		return false, nil
	default:
		order, err := c.Store.Get(ctx, intent.OrderID)
		if err != nil {
			return false, err
		}
		if order.PaymentCompleted {
			return false, nil
		}
		if order.StripePaymentID == "" {
			if err := c.Store.SetPaymentRef(ctx, order.ID, intent.ID); err != nil {
				return false, err
			}
		}
		return true, c.Store.CompletePayment(ctx, order.ID)
	}
}

// compensate undoes the speculative record behind a definitively failed
// intent: the unpaid order is deleted, a failed tip is cleared.
func (c *Coordinator) compensate(ctx context.Context, intent *Intent) error {
	switch intent.Purpose {
	case PurposeTip:
		return c.Store.ClearTip(ctx, intent.OrderID)
	default:
		return c.Store.Delete(ctx, intent.OrderID)
	}
}

func (c *Coordinator) placeFailed(ctx context.Context, orderID uint, err error) (*Result, error) {
	var cardErr *CardError
	if errors.As(err, &cardErr) {
		if derr := c.Store.Delete(ctx, orderID); derr != nil {
			return nil, derr
		}
		return &Result{IntentStatus: "card_error", ErrorMessage: cardErr.Message}, nil
	}
	// Infrastructure failure: leave the order untouched so the client can retry.
	return nil, err
}

func (c *Coordinator) retryFailed(ctx context.Context, intent *Intent, err error) (*Result, error) {
	var cardErr *CardError
	if errors.As(err, &cardErr) {
		if cerr := c.compensate(ctx, intent); cerr != nil {
			return nil, cerr
		}
		return &Result{IntentStatus: "card_error", ErrorMessage: cardErr.Message}, nil
	}
	return nil, err
}
