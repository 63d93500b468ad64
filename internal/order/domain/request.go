package domain

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// CheckoutRequest is the single input shape for product, program and
// treatment checkout. Exactly one of ProductID, ProgramID or TreatmentID is
// set and it must match Kind.
type CheckoutRequest struct {
	Kind                 Kind            `json:"kind" validate:"required,oneof=product program treatment"`
	TenantID             uuid.UUID       `json:"tenant_id"`
	ProductID            *uuid.UUID      `json:"product_id"`
	ProgramID            *uuid.UUID      `json:"program_id"`
	TreatmentID          *uuid.UUID      `json:"treatment_id"`
	Quantity             int             `json:"quantity" validate:"omitempty,min=1,max=12"`
	UserID               *uuid.UUID      `json:"user_id"`
	UserDetails          *PatientDetails `json:"user_details" validate:"required_without=UserID,omitempty"`
	Shipping             *ShippingInfo   `json:"shipping_info" validate:"omitempty"`
	QuestionnaireAnswers json.RawMessage `json:"questionnaire_answers"`
	AffiliateSlug        string          `json:"affiliate_slug" validate:"omitempty,max=64"`
	Host                 string          `json:"-"`
	UseOnBehalfOf        bool            `json:"use_on_behalf_of"`
	IdempotencyKey       string          `json:"idempotency_key" validate:"omitempty,max=128"`
}

// Target returns the id of the item being purchased.
func (r CheckoutRequest) Target() (uuid.UUID, error) {
	set := 0
	var id uuid.UUID
	for kind, ptr := range map[Kind]*uuid.UUID{
		KindProduct:   r.ProductID,
		KindProgram:   r.ProgramID,
		KindTreatment: r.TreatmentID,
	} {
		if ptr == nil {
			continue
		}
		set++
		if kind == r.Kind {
			id = *ptr
		}
	}
	if set != 1 || id == uuid.Nil {
		return uuid.Nil, ErrInvalidTarget
	}
	return id, nil
}

type PatientDetails struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"omitempty,phone_number"`
	State     string `json:"state" validate:"omitempty,us_state"`
}

type ShippingInfo struct {
	Name       string `json:"name" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required,us_state"`
	PostalCode string `json:"postal_code" validate:"required,zip_code"`
	Country    string `json:"country" validate:"omitempty,len=2"`
	Phone      string `json:"phone" validate:"omitempty,phone_number"`
}

// Empty reports whether no address field was supplied at all.
func (s *ShippingInfo) Empty() bool {
	if s == nil {
		return true
	}
	return strings.TrimSpace(s.Name+s.Line1+s.Line2+s.City+s.State+s.PostalCode+s.Country+s.Phone) == ""
}
