package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/smallbiznis/carecheckout/internal/clock"
	obsmetrics "github.com/smallbiznis/carecheckout/internal/observability/metrics"
	"github.com/smallbiznis/carecheckout/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/carecheckout/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       paymentdomain.Repository
	Processor  paymentdomain.Processor
	Handler    paymentdomain.EventHandler
	Clock      clock.Clock
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       paymentdomain.Repository
	processor  paymentdomain.Processor
	handler    paymentdomain.EventHandler
	clock      clock.Clock
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.WebhookService {
	svc := &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.webhook"),
		repo:       p.Repo,
		processor:  p.Processor,
		handler:    p.Handler,
		clock:      p.Clock,
		obsMetrics: p.ObsMetrics,
	}
	if svc.clock == nil {
		svc.clock = clock.SystemClock{}
	}
	return svc
}

// IngestWebhook verifies, deduplicates and applies one processor delivery.
// A delivery whose event was already applied returns
// ErrEventAlreadyProcessed; a failed handler leaves the event unprocessed so
// the processor's retry applies it.
func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if s.processor == nil || provider != s.processor.Name() {
		return paymentdomain.ErrProviderNotFound
	}
	if !json.Valid(payload) {
		return paymentdomain.ErrInvalidPayload
	}
	parser, ok := adapters.Parser(s.processor)
	if !ok {
		return paymentdomain.ErrProviderNotFound
	}

	event, err := parser.ParseWebhook(ctx, payload, headers)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventIgnored) {
			s.log.Debug("processor event ignored", zap.String("provider", provider))
			return nil
		}
		return err
	}
	if event.RawPayload == nil {
		event.RawPayload = payload
	}

	now := s.clock.Now()
	received := paymentdomain.EventRecord{
		ID:              uuid.New(),
		Provider:        provider,
		ProviderEventID: event.ProviderEventID,
		EventType:       event.Type,
		ObjectID:        event.ObjectID,
		Payload:         datatypes.JSON(payload),
		ReceivedAt:      now,
	}

	inserted, err := s.repo.InsertEvent(ctx, s.db, &received)
	if err != nil {
		return err
	}
	stored := &received
	if !inserted {
		stored, err = s.repo.FindEvent(ctx, s.db, provider, event.ProviderEventID)
		if err != nil {
			return err
		}
		if stored == nil {
			return paymentdomain.ErrInvalidEvent
		}
		if stored.ProcessedAt != nil {
			return paymentdomain.ErrEventAlreadyProcessed
		}
	}

	if err := s.handler.HandlePaymentEvent(ctx, event); err != nil {
		s.log.Warn("processor event handling failed",
			zap.String("provider", provider),
			zap.String("event_id", event.ProviderEventID),
			zap.String("event_type", event.RawType),
			zap.Error(err),
		)
		return err
	}

	if err := s.repo.MarkEventProcessed(ctx, s.db, stored.ID, s.clock.Now()); err != nil {
		return err
	}

	if inserted {
		s.obsMetrics.RecordProcessorEvent(ctx, provider, event.RawType)
	}
	return nil
}
