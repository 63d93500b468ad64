package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/carecheckout/internal/catalog/domain"
	"github.com/smallbiznis/carecheckout/internal/visitfee/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Catalog catalogdomain.Repository
}

type Service struct {
	log     *zap.Logger
	catalog catalogdomain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("visitfee.service"),
		catalog: p.Catalog,
	}
}

func (s *Service) Resolve(ctx context.Context, req domain.ResolveRequest) domain.Resolution {
	if req.QuestionnaireID == nil {
		return domain.None()
	}

	questionnaire, err := s.catalog.GetQuestionnaire(ctx, *req.QuestionnaireID)
	if err != nil {
		s.log.Warn("visit fee skipped: questionnaire lookup failed",
			zap.String("questionnaire_id", req.QuestionnaireID.String()),
			zap.Error(err),
		)
		return domain.None()
	}

	tenant, err := s.catalog.GetTenant(ctx, req.TenantID)
	if err != nil {
		s.log.Warn("visit fee skipped: clinic lookup failed",
			zap.String("tenant_id", req.TenantID.String()),
			zap.Error(err),
		)
		return domain.None()
	}

	visitType := visitTypeFor(questionnaire, req.State)
	amount := s.providerFee(ctx, tenant, visitType)
	if !amount.IsPositive() {
		amount = domain.FeeTable{
			Synchronous:  tenant.SynchronousVisitFee,
			Asynchronous: tenant.AsynchronousVisitFee,
		}.For(visitType)
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}

	return domain.Resolution{VisitType: &visitType, Amount: amount.Round(2)}
}

// providerFee returns the provider-of-record fee, or zero when the tenant has
// no provider or it cannot be loaded.
func (s *Service) providerFee(ctx context.Context, tenant *catalogdomain.Tenant, vt domain.VisitType) decimal.Decimal {
	if tenant.ProviderOfRecordID == nil {
		return decimal.Zero
	}
	provider, err := s.catalog.GetMedicalProvider(ctx, *tenant.ProviderOfRecordID)
	if err != nil {
		s.log.Debug("provider of record unavailable; using clinic visit fees",
			zap.String("tenant_id", tenant.ID.String()),
			zap.Error(err),
		)
		return decimal.Zero
	}
	return domain.FeeTable{
		Synchronous:  provider.SynchronousVisitFee,
		Asynchronous: provider.AsynchronousVisitFee,
	}.For(vt)
}

func visitTypeFor(q *catalogdomain.Questionnaire, state string) domain.VisitType {
	table := q.VisitTypeByState.Data()
	if len(table) == 0 {
		return domain.VisitTypeAsynchronous
	}
	raw, ok := table[strings.ToUpper(strings.TrimSpace(state))]
	if !ok {
		return domain.VisitTypeAsynchronous
	}
	return domain.ParseVisitType(raw)
}
