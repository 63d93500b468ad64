package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/smallbiznis/carecheckout/internal/apperr"
)

var (
	ErrTenantNotFound        = apperr.NotFound("tenant_not_found")
	ErrProductNotFound       = apperr.NotFound("product_not_found")
	ErrTenantProductNotFound = apperr.NotFound("tenant_product_not_found")
	ErrProgramNotFound       = apperr.NotFound("program_not_found")
	ErrTreatmentNotFound     = apperr.NotFound("treatment_not_found")
	ErrQuestionnaireNotFound = apperr.NotFound("questionnaire_not_found")
	ErrProviderNotFound      = apperr.NotFound("medical_provider_not_found")
)

// Repository reads catalog rows. Every lookup returns the matching
// ErrXNotFound sentinel when the row is absent or inactive.
type Repository interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetMedicalProvider(ctx context.Context, id uuid.UUID) (*MedicalProvider, error)
	GetQuestionnaire(ctx context.Context, id uuid.UUID) (*Questionnaire, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	GetTenantProduct(ctx context.Context, id uuid.UUID) (*TenantProduct, error)
	GetProgram(ctx context.Context, id uuid.UUID) (*Program, error)
	GetTreatment(ctx context.Context, id uuid.UUID) (*Treatment, error)
}
