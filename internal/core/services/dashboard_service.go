package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
	"github.com/neuronet-health/counselor-admin-service/internal/core/ports"
)

const (
	dashboardCacheKey = "dashboard:overview"
	dashboardCacheTTL = 30 * time.Second
	recentActivityMax = 10
)

type DashboardOverview struct {
	TotalAccounts        int                `json:"total_accounts"`
	PendingVerifications int                `json:"pending_verifications"`
	VerifiedCounselors   int                `json:"verified_counselors"`
	RecentActivity       []domain.AuditEntry `json:"recent_activity"`
}

// DashboardService aggregates the admin landing-page numbers. The counts
// are cached briefly; a cache failure falls through to the stores.
type DashboardService struct {
	registry  ports.VerificationRegistry
	directory ports.AccountDirectory
	audit     ports.AuditSink
	cache     ports.Cache
}

func NewDashboardService(
	registry ports.VerificationRegistry,
	directory ports.AccountDirectory,
	audit ports.AuditSink,
	cache ports.Cache,
) *DashboardService {
	return &DashboardService{registry: registry, directory: directory, audit: audit, cache: cache}
}

func (s *DashboardService) Overview(ctx context.Context) (*DashboardOverview, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	total, err := s.directory.Count(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.registry.CountByStatus(ctx, domain.StatusPending)
	if err != nil {
		return nil, err
	}
	verified, err := s.registry.CountByStatus(ctx, domain.StatusVerified)
	if err != nil {
		return nil, err
	}
	activity, err := s.audit.Recent(ctx, recentActivityMax)
	if err != nil {
		return nil, err
	}

	overview := &DashboardOverview{
		TotalAccounts:        total,
		PendingVerifications: pending,
		VerifiedCounselors:   verified,
		RecentActivity:       activity,
	}
	s.toCache(ctx, overview)
	return overview, nil
}

func (s *DashboardService) fromCache(ctx context.Context) *DashboardOverview {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, dashboardCacheKey)
	if err != nil {
		if !errors.Is(err, ports.ErrCacheMiss) {
			log.Printf("dashboard: cache read failed: %v", err)
		}
		return nil
	}
	var overview DashboardOverview
	if err := json.Unmarshal([]byte(raw), &overview); err != nil {
		return nil
	}
	return &overview
}

func (s *DashboardService) toCache(ctx context.Context, overview *DashboardOverview) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(overview)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, string(raw), dashboardCacheTTL); err != nil {
		log.Printf("dashboard: cache write failed: %v", err)
	}
}
