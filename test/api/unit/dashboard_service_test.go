package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
	"github.com/neuronet-health/counselor-admin-service/internal/core/services"
	"github.com/neuronet-health/counselor-admin-service/test/mocks"
)

func newDashboard() (*services.DashboardService, *mocks.MockVerificationRegistry, *mocks.MockAccountDirectory, *mocks.MockAuditSink, *mocks.MockCache) {
	registry := mocks.NewMockVerificationRegistry()
	directory := mocks.NewMockAccountDirectory()
	audit := mocks.NewMockAuditSink()
	cache := mocks.NewMockCache()
	return services.NewDashboardService(registry, directory, audit, cache), registry, directory, audit, cache
}

func seedDashboard(registry *mocks.MockVerificationRegistry, directory *mocks.MockAccountDirectory, audit *mocks.MockAuditSink) {
	directory.SeedAccount(domain.Account{ID: "acc-1", Email: "a@x.example", IsActive: true})
	directory.SeedAccount(domain.Account{ID: "acc-2", Email: "b@x.example", IsActive: true})
	registry.SeedRecord(mocks.PendingRecord("rec-1", "acc-1"))
	verified := mocks.PendingRecord("rec-2", "acc-2")
	verified.Status = domain.StatusVerified
	registry.SeedRecord(verified)
	_ = audit.Append(context.Background(), domain.ActionVerificationApproved, "root", "Approved counselor.")
}

func TestDashboardService_Overview(t *testing.T) {
	dashboard, registry, directory, audit, _ := newDashboard()
	seedDashboard(registry, directory, audit)

	overview, err := dashboard.Overview(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if overview.TotalAccounts != 2 {
		t.Errorf("expected 2 accounts, got %d", overview.TotalAccounts)
	}
	if overview.PendingVerifications != 1 {
		t.Errorf("expected 1 pending, got %d", overview.PendingVerifications)
	}
	if overview.VerifiedCounselors != 1 {
		t.Errorf("expected 1 verified, got %d", overview.VerifiedCounselors)
	}
	if len(overview.RecentActivity) != 1 {
		t.Errorf("expected 1 recent entry, got %d", len(overview.RecentActivity))
	}
}

func TestDashboardService_Overview_SecondReadComesFromCache(t *testing.T) {
	dashboard, registry, directory, audit, _ := newDashboard()
	seedDashboard(registry, directory, audit)

	if _, err := dashboard.Overview(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// mutate the stores; a cached read must not see this yet
	directory.SeedAccount(domain.Account{ID: "acc-3", Email: "c@x.example", IsActive: true})

	overview, err := dashboard.Overview(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overview.TotalAccounts != 2 {
		t.Errorf("expected the cached count of 2, got %d", overview.TotalAccounts)
	}
}

func TestDashboardService_Overview_CacheFailureFallsThrough(t *testing.T) {
	dashboard, registry, directory, audit, cache := newDashboard()
	seedDashboard(registry, directory, audit)
	cache.GetError = errors.New("redis down")
	cache.SetError = errors.New("redis down")

	overview, err := dashboard.Overview(context.Background())
	if err != nil {
		t.Fatalf("cache failures must not surface: %v", err)
	}
	if overview.TotalAccounts != 2 {
		t.Errorf("expected 2 accounts, got %d", overview.TotalAccounts)
	}
}

func TestDashboardService_Overview_StoreFailureSurfaces(t *testing.T) {
	dashboard, registry, directory, audit, _ := newDashboard()
	seedDashboard(registry, directory, audit)
	directory.CountError = errors.New("db down")

	if _, err := dashboard.Overview(context.Background()); err == nil {
		t.Fatal("expected the store failure to surface")
	}
}

func TestMockAuditSink_RecentIsNewestFirst(t *testing.T) {
	audit := mocks.NewMockAuditSink()
	ctx := context.Background()
	_ = audit.Append(ctx, domain.ActionUserCreated, "root", "first")
	time.Sleep(time.Millisecond)
	_ = audit.Append(ctx, domain.ActionUserDeleted, "root", "second")

	recent, err := audit.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recent) != 1 || recent[0].Details != "second" {
		t.Errorf("expected the newest entry first, got %+v", recent)
	}
}
