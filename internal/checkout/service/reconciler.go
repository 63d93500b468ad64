package service

import (
	"context"
	"errors"

	orderdomain "github.com/smallbiznis/carecheckout/internal/order/domain"
	paymentdomain "github.com/smallbiznis/carecheckout/internal/payment/domain"
	subscriptiondomain "github.com/smallbiznis/carecheckout/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ReconcilerParams struct {
	fx.In

	Log           *zap.Logger
	Orders        orderdomain.Service
	Payments      paymentdomain.Service
	Subscriptions subscriptiondomain.Service
}

// Reconciler applies deduplicated processor events to payments, orders and
// subscriptions.
type Reconciler struct {
	log           *zap.Logger
	orders        orderdomain.Service
	payments      paymentdomain.Service
	subscriptions subscriptiondomain.Service
}

func NewReconciler(p ReconcilerParams) paymentdomain.EventHandler {
	return &Reconciler{
		log:           p.Log.Named("checkout.reconciler"),
		orders:        p.Orders,
		payments:      p.Payments,
		subscriptions: p.Subscriptions,
	}
}

func (r *Reconciler) HandlePaymentEvent(ctx context.Context, event *paymentdomain.PaymentEvent) error {
	switch event.Type {
	case paymentdomain.EventAuthorizationCapturable:
		return r.applyPayment(ctx, event, paymentdomain.StatusRequiresCapture, orderdomain.StatusAuthorized)
	case paymentdomain.EventPaymentSucceeded:
		return r.applyPayment(ctx, event, paymentdomain.StatusSucceeded, orderdomain.StatusPaid)
	case paymentdomain.EventPaymentFailed:
		// A declined attempt leaves the intent open for another try on the
		// same client secret.
		return r.applyPayment(ctx, event, paymentdomain.StatusRequiresPaymentMethod, orderdomain.StatusPaymentDue)
	case paymentdomain.EventPaymentCancelled:
		return r.applyPayment(ctx, event, paymentdomain.StatusCancelled, "")
	case paymentdomain.EventSetupSucceeded:
		// Brand subscriptions activate through the explicit activate call
		// once the storefront confirms the setup.
		r.log.Debug("setup confirmed", zap.String("setup_intent_id", event.ObjectID))
		return nil
	case paymentdomain.EventSubscriptionActive:
		return r.applySubscription(ctx, event.ObjectID, subscriptiondomain.StatusActive)
	case paymentdomain.EventSubscriptionPastDue:
		return r.applySubscription(ctx, event.ObjectID, subscriptiondomain.StatusPastDue)
	case paymentdomain.EventSubscriptionCancelled:
		return r.applySubscription(ctx, event.ObjectID, subscriptiondomain.StatusCancelled)
	default:
		r.log.Debug("unhandled processor event", zap.String("type", event.Type))
		return nil
	}
}

func (r *Reconciler) applyPayment(ctx context.Context, event *paymentdomain.PaymentEvent, to paymentdomain.Status, orderStatus orderdomain.Status) error {
	payment, err := r.payments.FindByHandle(ctx, event.ObjectID)
	if errors.Is(err, paymentdomain.ErrPaymentNotFound) {
		// Created outside checkout, or tx2 has not committed yet; the
		// processor retries the delivery.
		r.log.Warn("event for unknown payment", zap.String("handle", event.ObjectID), zap.String("type", event.Type))
		return err
	}
	if err != nil {
		return err
	}

	if err := r.payments.Transition(ctx, payment, to); err != nil {
		if !errors.Is(err, paymentdomain.ErrInvalidTransition) {
			return err
		}
		r.log.Info("stale payment event skipped",
			zap.String("payment_id", payment.ID.String()),
			zap.String("status", string(payment.Status)),
			zap.String("event_status", string(to)),
		)
		return nil
	}

	if payment.OrderID == nil || orderStatus == "" {
		return nil
	}
	if err := r.orders.Transition(ctx, *payment.OrderID, orderStatus); err != nil {
		if !errors.Is(err, orderdomain.ErrInvalidTransition) {
			return err
		}
		r.log.Info("order already settled",
			zap.String("order_id", payment.OrderID.String()),
			zap.String("event_status", string(orderStatus)),
		)
	}

	if to == paymentdomain.StatusSucceeded {
		_, err := r.subscriptions.ActivateForOrder(ctx, *payment.OrderID, event.CustomerID, event.PaymentMethodID)
		if errors.Is(err, subscriptiondomain.ErrInvalidPaymentMethod) {
			r.log.Warn("paid order has no reusable payment method",
				zap.String("order_id", payment.OrderID.String()),
			)
			return nil
		}
		return err
	}
	return nil
}

func (r *Reconciler) applySubscription(ctx context.Context, handle string, to subscriptiondomain.Status) error {
	err := r.subscriptions.ApplyProcessorStatus(ctx, handle, to)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, subscriptiondomain.ErrInvalidTransition):
		r.log.Info("stale subscription event skipped", zap.String("handle", handle), zap.String("event_status", string(to)))
		return nil
	case errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound):
		r.log.Warn("event for unknown subscription", zap.String("handle", handle))
		return nil
	default:
		return err
	}
}
