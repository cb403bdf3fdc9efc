package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/infrastructure/metrics"
)

// StatsUseCase serves the detail-view and list-view figures.
type StatsUseCase struct {
	partyRepo PartyRepository
	cache     Cache
	cacheTTL  time.Duration
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewStatsUseCase creates a new StatsUseCase. cache may be nil.
func NewStatsUseCase(partyRepo PartyRepository, cache Cache, cacheTTL time.Duration, metrics *metrics.Metrics, logger zerolog.Logger) *StatsUseCase {
	if cacheTTL <= 0 {
		cacheTTL = ListStatsTTL
	}

	return &StatsUseCase{
		partyRepo: partyRepo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
		logger:    logger,
	}
}

// PartyStats recomputes the figures of one party for company from its
// transaction history. An empty company falls back to the company the
// cached balance was last written for.
func (uc *StatsUseCase) PartyStats(ctx context.Context, partyID, company string) (domain.Stats, error) {
	party, err := uc.partyRepo.GetByID(ctx, partyID)
	if err != nil {
		return domain.Stats{}, err
	}

	company = strings.TrimSpace(company)
	if company == "" {
		company = party.BalanceCompany
	}

	return domain.RecomputedStats(party, company)
}

// ListStats aggregates cached balances across every party matching filter.
// Pagination in filter is ignored.
func (uc *StatsUseCase) ListStats(ctx context.Context, filter domain.PartyFilter) (domain.ListStats, error) {
	key := ListStatsKey(filter.Type, filter.Status)

	if stats, ok := uc.cached(ctx, key); ok {
		return stats, nil
	}

	var parties []*domain.Party
	for offset := 0; ; offset += ReconcileBatchSize {
		page, err := uc.partyRepo.List(ctx, domain.PartyFilter{
			Type:   filter.Type,
			Status: filter.Status,
			Limit:  ReconcileBatchSize,
			Offset: offset,
		})
		if err != nil {
			return domain.ListStats{}, err
		}

		parties = append(parties, page...)
		if len(page) < ReconcileBatchSize {
			break
		}
	}

	stats := domain.CachedStats(parties)
	uc.store(ctx, key, stats)

	return stats, nil
}

func (uc *StatsUseCase) cached(ctx context.Context, key string) (domain.ListStats, bool) {
	if uc.cache == nil {
		return domain.ListStats{}, false
	}

	raw, err := uc.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			uc.logger.Warn().Err(err).Str("key", key).Msg("stats cache read failed")
		}
		uc.recordLookup("miss")
		return domain.ListStats{}, false
	}

	var stats cachedListStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		uc.recordLookup("miss")
		return domain.ListStats{}, false
	}

	uc.recordLookup("hit")
	return domain.ListStats{
		TotalBalance: stats.TotalBalance,
		ActiveCount:  stats.ActiveCount,
		TotalCount:   stats.TotalCount,
	}, true
}

func (uc *StatsUseCase) store(ctx context.Context, key string, stats domain.ListStats) {
	if uc.cache == nil {
		return
	}

	raw, err := json.Marshal(cachedListStats{
		TotalBalance: stats.TotalBalance,
		ActiveCount:  stats.ActiveCount,
		TotalCount:   stats.TotalCount,
	})
	if err != nil {
		return
	}

	if err := uc.cache.Set(ctx, key, raw, uc.cacheTTL); err != nil {
		uc.logger.Warn().Err(err).Str("key", key).Msg("stats cache write failed")
	}
}

func (uc *StatsUseCase) recordLookup(result string) {
	if uc.metrics != nil {
		uc.metrics.StatsCacheLookups.WithLabelValues(result).Inc()
	}
}

type cachedListStats struct {
	TotalBalance decimal.Decimal `json:"total_balance"`
	ActiveCount  int             `json:"active_count"`
	TotalCount   int             `json:"total_count"`
}

// ListStatsKey is the cache key of the list-view aggregate for one filter.
func ListStatsKey(partyType domain.PartyType, status domain.PartyStatus) string {
	return fmt.Sprintf("stats:%s:%s", partyType, status)
}

// allListStatsKeys enumerates every filter combination ListStats can cache.
func allListStatsKeys() []string {
	types := []domain.PartyType{"", domain.PartyTypeCustomer, domain.PartyTypeSupplier}
	statuses := []domain.PartyStatus{"", domain.PartyStatusActive, domain.PartyStatusInactive}

	keys := make([]string, 0, len(types)*len(statuses))
	for _, t := range types {
		for _, s := range statuses {
			keys = append(keys, ListStatsKey(t, s))
		}
	}
	return keys
}

// invalidateListStats drops every cached aggregate after a write.
func invalidateListStats(ctx context.Context, cache Cache, logger zerolog.Logger) {
	if cache == nil {
		return
	}

	if err := cache.Delete(ctx, allListStatsKeys()...); err != nil {
		logger.Warn().Err(err).Msg("failed to invalidate stats cache")
	}
}
