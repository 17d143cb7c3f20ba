package app

import (
	"context"
	"testing"

	"github.com/fundops/fundledger/internal/config"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/security"
	"github.com/fundops/fundledger/internal/store/storetest"
)

func TestBootstrapAdminSeedsOnlyEmptyDatabase(t *testing.T) {
	s := storetest.Open(t, "app_bootstrap")
	ctx := context.Background()

	if errSkip := bootstrapAdmin(ctx, s.DB(), config.BootstrapConfig{}); errSkip != nil {
		t.Fatalf("bootstrap without credentials: %v", errSkip)
	}
	var count int64
	s.DB().Model(&models.Admin{}).Count(&count)
	if count != 0 {
		t.Fatalf("admins = %d, want 0", count)
	}

	cfg := config.BootstrapConfig{AdminUsername: "root", AdminPassword: "change-me-now"}
	for i := 0; i < 2; i++ {
		if errBootstrap := bootstrapAdmin(ctx, s.DB(), cfg); errBootstrap != nil {
			t.Fatalf("bootstrap #%d: %v", i, errBootstrap)
		}
	}
	var admins []models.Admin
	if errFind := s.DB().Find(&admins).Error; errFind != nil {
		t.Fatalf("find admins: %v", errFind)
	}
	if len(admins) != 1 || !admins[0].IsSuperAdmin || !admins[0].Active {
		t.Fatalf("admins = %+v", admins)
	}
	if !security.CheckPassword(admins[0].Password, "change-me-now") {
		t.Fatalf("bootstrap password does not verify")
	}
}
