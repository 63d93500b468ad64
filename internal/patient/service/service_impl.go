package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/carecheckout/internal/patient/domain"
	"github.com/smallbiznis/carecheckout/internal/patient/password"
	"github.com/smallbiznis/carecheckout/internal/validation"
	dbpkg "github.com/smallbiznis/carecheckout/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("patient.service"),
		repo: p.Repo,
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) FindOrCreatePlaceholder(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, details domain.Details) (*domain.User, error) {
	if db == nil {
		db = s.db
	}
	if tenantID == uuid.Nil {
		return nil, domain.ErrInvalidTenant
	}
	email := strings.ToLower(strings.TrimSpace(details.Email))
	if !validation.Var(email, "required,email") {
		return nil, domain.ErrInvalidEmail
	}

	existing, err := s.repo.FindByEmail(ctx, db, tenantID, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	hash, err := password.Placeholder()
	if err != nil {
		return nil, fmt.Errorf("hash placeholder password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        email,
		FirstName:    strings.TrimSpace(details.FirstName),
		LastName:     strings.TrimSpace(details.LastName),
		Phone:        strings.TrimSpace(details.Phone),
		State:        strings.ToUpper(strings.TrimSpace(details.State)),
		PasswordHash: &hash,
		Placeholder:  true,
	}
	// Nested under a caller's transaction this runs in a savepoint, so a lost
	// race leaves the outer transaction usable for the lookup below.
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, user)
	})
	if err != nil {
		if dbpkg.IsUniqueViolationOn(err, "email") {
			// Another checkout created the account between lookup and insert.
			return s.repo.FindByEmail(ctx, db, tenantID, email)
		}
		return nil, err
	}

	s.log.Info("placeholder patient account created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", user.ID.String()),
	)
	return user, nil
}

func (s *Service) ResolveAffiliate(ctx context.Context, db *gorm.DB, raw string) (*domain.User, error) {
	if db == nil {
		db = s.db
	}
	normalized := slug.Make(raw)
	if normalized == "" {
		return nil, nil
	}
	user, err := s.repo.FindBySlug(ctx, db, normalized)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsAffiliate {
		return nil, nil
	}
	return user, nil
}

func (s *Service) SetProcessorCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	return s.repo.SetProcessorCustomerID(ctx, s.db, id, customerID)
}
