package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/smallbiznis/carecheckout/internal/catalog/domain"
	"github.com/smallbiznis/carecheckout/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	tenants        repository.Repository[domain.Tenant]
	providers      repository.Repository[domain.MedicalProvider]
	questionnaires repository.Repository[domain.Questionnaire]
	products       repository.Repository[domain.Product]
	tenantProducts repository.Repository[domain.TenantProduct]
	programs       repository.Repository[domain.Program]
	treatments     repository.Repository[domain.Treatment]
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{
		tenants:        repository.ProvideStore[domain.Tenant](db),
		providers:      repository.ProvideStore[domain.MedicalProvider](db),
		questionnaires: repository.ProvideStore[domain.Questionnaire](db),
		products:       repository.ProvideStore[domain.Product](db),
		tenantProducts: repository.ProvideStore[domain.TenantProduct](db),
		programs:       repository.ProvideStore[domain.Program](db),
		treatments:     repository.ProvideStore[domain.Treatment](db),
	}
}

func (r *repo) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	row, err := r.tenants.FindByID(ctx, id)
	return found(row, err, domain.ErrTenantNotFound)
}

func (r *repo) GetMedicalProvider(ctx context.Context, id uuid.UUID) (*domain.MedicalProvider, error) {
	row, err := r.providers.FindByID(ctx, id)
	return found(row, err, domain.ErrProviderNotFound)
}

func (r *repo) GetQuestionnaire(ctx context.Context, id uuid.UUID) (*domain.Questionnaire, error) {
	row, err := r.questionnaires.FindByID(ctx, id)
	return found(row, err, domain.ErrQuestionnaireNotFound)
}

func (r *repo) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row, err := r.products.FindOne(ctx, nil, repository.WithWhere("id = ? AND active = ?", id, true))
	return found(row, err, domain.ErrProductNotFound)
}

func (r *repo) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	out := make(map[uuid.UUID]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.products.Find(ctx, nil, repository.WithWhere("id IN ? AND active = ?", ids, true))
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, domain.ErrProductNotFound
		}
	}
	return out, nil
}

func (r *repo) GetTenantProduct(ctx context.Context, id uuid.UUID) (*domain.TenantProduct, error) {
	row, err := r.tenantProducts.FindOne(ctx, nil, repository.WithWhere("id = ? AND active = ?", id, true))
	return found(row, err, domain.ErrTenantProductNotFound)
}

func (r *repo) GetProgram(ctx context.Context, id uuid.UUID) (*domain.Program, error) {
	row, err := r.programs.FindOne(ctx, nil,
		repository.WithWhere("id = ? AND active = ?", id, true),
		repository.WithPreload("Products"),
	)
	return found(row, err, domain.ErrProgramNotFound)
}

func (r *repo) GetTreatment(ctx context.Context, id uuid.UUID) (*domain.Treatment, error) {
	row, err := r.treatments.FindOne(ctx, nil, repository.WithWhere("id = ? AND active = ?", id, true))
	return found(row, err, domain.ErrTreatmentNotFound)
}

// found turns a (nil, nil) store result into the given not-found sentinel.
func found[T any](row *T, err error, notFound error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, notFound
	}
	return row, nil
}
