package usage

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raulisai/Gateway-IA/src/models"
)

const insertTimeout = 5 * time.Second

// UsageContext is everything known about a finished gateway call.
type UsageContext struct {
	Tenant         string
	Endpoint       string
	Provider       string
	Model          string
	Classification *models.ClassificationResult
	Routing        *models.RoutingInfo
	Usage          models.Usage
	Latency        time.Duration
	CacheHit       bool
	Err            error
}

// Recorder prices and persists usage. It never fails the caller.
type Recorder struct {
	store  models.UsageStore
	pricer *Pricer
	logger *zap.Logger
}

func NewRecorder(store models.UsageStore, pricer *Pricer, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:  store,
		pricer: pricer,
		logger: logger,
	}
}

func (r *Recorder) Record(ctx context.Context, uc UsageContext) *models.UsageRecord {
	record := &models.UsageRecord{
		ID:           uuid.New().String(),
		Tenant:       uc.Tenant,
		Endpoint:     uc.Endpoint,
		Provider:     uc.Provider,
		Model:        uc.Model,
		InputTokens:  uc.Usage.InputTokens,
		OutputTokens: uc.Usage.OutputTokens,
		TotalTokens:  uc.Usage.TotalTokens,
		LatencyMS:    uc.Latency.Milliseconds(),
		CacheHit:     uc.CacheHit,
		Success:      uc.Err == nil,
		StatusCode:   statusFor(uc.Err),
		Metadata: models.UsageMetadata{
			Classification: uc.Classification,
			Routing:        uc.Routing,
		},
		CreatedAt: time.Now().UTC(),
	}
	if record.TotalTokens == 0 {
		record.TotalTokens = record.InputTokens + record.OutputTokens
	}
	if uc.Classification != nil {
		record.Complexity = uc.Classification.Complexity
	}

	if uc.Err != nil {
		record.Metadata.Error = uc.Err.Error()
		record.Metadata.ErrorKind = models.KindOf(uc.Err)
	} else if !uc.CacheHit {
		record.Cost = r.pricer.Cost(uc.Model, uc.Usage)
		if uc.Classification != nil {
			record.Metadata.AutoLabel = AutoLabel(uc.Classification.Complexity, uc.Model, uc.Latency)
		}
	}

	if r.store == nil {
		return record
	}

	// The request may already be cancelled; the record is written anyway.
	insertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), insertTimeout)
	defer cancel()

	if err := r.store.Insert(insertCtx, record); err != nil {
		r.logger.Error("failed to record usage",
			zap.String("tenant", uc.Tenant),
			zap.String("model", uc.Model),
			zap.Error(err))
	}
	return record
}

func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return models.AsError(err).HTTPStatus()
}
