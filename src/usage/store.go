package usage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/raulisai/Gateway-IA/src/config"
	"github.com/raulisai/Gateway-IA/src/models"
)

// OpenDatabase connects to the configured usage database.
func OpenDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}
	return db, nil
}

// Store is the GORM backed usage log.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&models.UsageRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate usage records: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Insert(ctx context.Context, record *models.UsageRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *Store) Summary(ctx context.Context, tenant string) (*models.UsageSummary, error) {
	var totals struct {
		Requests     int64
		CacheHits    int64
		Errors       int64
		InputTokens  int64
		OutputTokens int64
		Cost         float64
	}

	q := s.db.WithContext(ctx).Model(&models.UsageRecord{}).Where("tenant = ?", tenant)
	err := q.Select(`COUNT(*) AS requests,
		COALESCE(SUM(CASE WHEN cache_hit THEN 1 ELSE 0 END), 0) AS cache_hits,
		COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0) AS errors,
		COALESCE(SUM(input_tokens), 0) AS input_tokens,
		COALESCE(SUM(output_tokens), 0) AS output_tokens,
		COALESCE(SUM(cost), 0) AS cost`).
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage: %w", err)
	}

	summary := &models.UsageSummary{
		Tenant:       tenant,
		Requests:     totals.Requests,
		CacheHits:    totals.CacheHits,
		Errors:       totals.Errors,
		InputTokens:  totals.InputTokens,
		OutputTokens: totals.OutputTokens,
		Cost:         roundCost(totals.Cost),
		ByModel:      []models.ModelUsage{},
	}

	err = s.db.WithContext(ctx).Model(&models.UsageRecord{}).
		Where("tenant = ?", tenant).
		Select("model, COUNT(*) AS requests, COALESCE(SUM(total_tokens), 0) AS total_tokens, COALESCE(SUM(cost), 0) AS cost").
		Group("model").
		Order("cost DESC, model").
		Scan(&summary.ByModel).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage by model: %w", err)
	}

	return summary, nil
}
