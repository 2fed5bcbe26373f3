package auth

import (
	"context"
	"testing"
	"time"

	"github.com/campdesk/campdesk/internal/config"
	"github.com/campdesk/campdesk/internal/database"
	"github.com/campdesk/campdesk/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuth(t *testing.T) (*AuthHandler, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	cfg := &config.Config{
		JWTSecret:   "test-secret",
		AdminEmails: []string{"boss@camp.example"},
	}
	return NewAuthHandler(cfg, db), db
}

func TestAuthorizeWithCookie(t *testing.T) {
	h, db := setupAuth(t)

	account := models.Account{DiscordID: "d1", Username: "lucie", Email: "lucie@camp.example", Role: models.RoleStaff}
	if err := db.Create(&account).Error; err != nil {
		t.Fatal(err)
	}

	token, err := h.GenerateToken(account.ID)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	id, err := h.Authorize(context.Background(), AuthInput{Cookie: "auth_token=" + token})
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if id != account.ID {
		t.Errorf("resolved account %d, want %d", id, account.ID)
	}
}

func TestAuthorizeRejectsBadTokens(t *testing.T) {
	h, _ := setupAuth(t)
	ctx := context.Background()

	if _, err := h.Authorize(ctx, AuthInput{}); err == nil {
		t.Error("expected error with no credentials")
	}
	if _, err := h.Authorize(ctx, AuthInput{Cookie: "auth_token=garbage"}); err == nil {
		t.Error("expected error with malformed token")
	}
	if _, err := h.Authorize(ctx, AuthInput{Cookie: "other_cookie=value"}); err == nil {
		t.Error("expected error when auth_token cookie is absent")
	}
}

func TestAuthorizeWithAPIKey(t *testing.T) {
	h, db := setupAuth(t)
	ctx := context.Background()

	account := models.Account{DiscordID: "d2", Username: "tom", Email: "tom@camp.example", Role: models.RoleStaff}
	if err := db.Create(&account).Error; err != nil {
		t.Fatal(err)
	}
	key := models.APIKey{AccountID: account.ID, Key: "k-valid", Name: "ci"}
	if err := db.Create(&key).Error; err != nil {
		t.Fatal(err)
	}

	id, err := h.Authorize(ctx, AuthInput{APIKey: "k-valid"})
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if id != account.ID {
		t.Errorf("resolved account %d, want %d", id, account.ID)
	}

	var reloaded models.APIKey
	if err := db.First(&reloaded, key.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.LastUsedAt == nil {
		t.Error("last_used_at was not recorded")
	}

	if _, err := h.Authorize(ctx, AuthInput{APIKey: "k-unknown"}); err == nil {
		t.Error("expected error with unknown key")
	}

	expired := time.Now().Add(-time.Hour)
	stale := models.APIKey{AccountID: account.ID, Key: "k-expired", Name: "old", ExpiresAt: &expired}
	if err := db.Create(&stale).Error; err != nil {
		t.Fatal(err)
	}
	if _, err := h.Authorize(ctx, AuthInput{APIKey: "k-expired"}); err == nil {
		t.Error("expected error with expired key")
	}
}

func TestRequireAdmin(t *testing.T) {
	h, db := setupAuth(t)
	ctx := context.Background()

	staff := models.Account{DiscordID: "d3", Username: "staff", Email: "staff@camp.example", Role: models.RoleStaff}
	admin := models.Account{DiscordID: "d4", Username: "boss", Email: "boss@camp.example", Role: models.RoleAdmin}
	for _, a := range []*models.Account{&staff, &admin} {
		if err := db.Create(a).Error; err != nil {
			t.Fatal(err)
		}
	}

	staffToken, err := h.GenerateToken(staff.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.RequireAdmin(ctx, AuthInput{Cookie: "auth_token=" + staffToken}); err == nil {
		t.Error("expected staff account to be rejected")
	}

	adminToken, err := h.GenerateToken(admin.ID)
	if err != nil {
		t.Fatal(err)
	}
	account, err := h.RequireAdmin(ctx, AuthInput{Cookie: "auth_token=" + adminToken})
	if err != nil {
		t.Fatalf("RequireAdmin failed for admin: %v", err)
	}
	if account.ID != admin.ID {
		t.Errorf("resolved account %d, want %d", account.ID, admin.ID)
	}
}

func TestRoleForEmail(t *testing.T) {
	h, _ := setupAuth(t)

	if got := h.roleForEmail("boss@camp.example"); got != models.RoleAdmin {
		t.Errorf("expected admin role, got %s", got)
	}
	if got := h.roleForEmail("anyone@camp.example"); got != models.RoleStaff {
		t.Errorf("expected staff role, got %s", got)
	}
}
