// Package domain describes the telehealth visit surcharge added to checkout.
package domain

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VisitType string

const (
	VisitTypeSynchronous  VisitType = "synchronous"
	VisitTypeAsynchronous VisitType = "asynchronous"
)

// ParseVisitType accepts the stored spellings of a visit type. Unknown values
// fall back to asynchronous.
func ParseVisitType(raw string) VisitType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "synchronous", "sync":
		return VisitTypeSynchronous
	default:
		return VisitTypeAsynchronous
	}
}

// FeeTable holds one surcharge per visit type.
type FeeTable struct {
	Synchronous  decimal.Decimal
	Asynchronous decimal.Decimal
}

func (t FeeTable) For(vt VisitType) decimal.Decimal {
	if vt == VisitTypeSynchronous {
		return t.Synchronous
	}
	return t.Asynchronous
}

type ResolveRequest struct {
	State           string
	QuestionnaireID *uuid.UUID
	TenantID        uuid.UUID
}

// Resolution is the visit type and surcharge for a checkout. A nil VisitType
// means the lookup failed and no surcharge applies.
type Resolution struct {
	VisitType *VisitType
	Amount    decimal.Decimal
}

// None is the soft-fail result.
func None() Resolution {
	return Resolution{Amount: decimal.Zero}
}

type Service interface {
	// Resolve never fails; lookup errors are logged and yield None().
	Resolve(ctx context.Context, req ResolveRequest) Resolution
}
