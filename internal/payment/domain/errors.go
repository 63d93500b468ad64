package domain

import (
	"errors"

	"github.com/smallbiznis/carecheckout/internal/apperr"
)

var (
	ErrAuthorizationFailed  = apperr.Processor("payment_authorization_failed")
	ErrProcessorUnavailable = apperr.Processor("payment_processor_unavailable")
	ErrCustomerFailed       = apperr.Processor("payment_customer_failed")
	ErrAuthorizationBusy    = apperr.Conflict("payment_authorization_in_progress")
	ErrPaymentNotFound      = apperr.NotFound("payment_not_found")
	ErrInvalidTransition    = apperr.Conflict("invalid_payment_transition")
	ErrInvalidAmount        = apperr.Validation("invalid_amount")

	ErrProviderNotFound = apperr.Configuration("payment_provider_not_found")
	ErrInvalidConfig    = apperr.Configuration("payment_provider_invalid_config")

	ErrInvalidSignature = apperr.Validation("invalid_signature")
	ErrInvalidPayload   = apperr.Validation("invalid_payload")
	ErrInvalidEvent     = apperr.Validation("invalid_event")

	ErrEventIgnored          = errors.New("event_ignored")
	ErrEventAlreadyProcessed = errors.New("event_already_processed")
)
