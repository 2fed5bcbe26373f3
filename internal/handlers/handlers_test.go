package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/campdesk/campdesk/internal/auth"
	"github.com/campdesk/campdesk/internal/booking"
	"github.com/campdesk/campdesk/internal/config"
	"github.com/campdesk/campdesk/internal/database"
	"github.com/campdesk/campdesk/internal/models"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	db          *gorm.DB
	engine      *booking.Engine
	authHandler *auth.AuthHandler
	staffAuth   auth.AuthInput
	adminAuth   auth.AuthInput
}

func setupEnv(t *testing.T) *testEnv {
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

	cfg := &config.Config{JWTSecret: "test-secret"}
	authHandler := auth.NewAuthHandler(cfg, db)

	staff := models.Account{DiscordID: "d-staff", Username: "staff", Email: "staff@camp.example", Role: models.RoleStaff}
	admin := models.Account{DiscordID: "d-admin", Username: "admin", Email: "admin@camp.example", Role: models.RoleAdmin}
	for _, a := range []*models.Account{&staff, &admin} {
		if err := db.Create(a).Error; err != nil {
			t.Fatal(err)
		}
	}

	staffToken, err := authHandler.GenerateToken(staff.ID)
	if err != nil {
		t.Fatal(err)
	}
	adminToken, err := authHandler.GenerateToken(admin.ID)
	if err != nil {
		t.Fatal(err)
	}

	return &testEnv{
		db:          db,
		engine:      booking.NewEngine(db),
		authHandler: authHandler,
		staffAuth:   auth.AuthInput{Cookie: "auth_token=" + staffToken},
		adminAuth:   auth.AuthInput{Cookie: "auth_token=" + adminToken},
	}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	var statusErr huma.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected a status error, got %v", err)
	}
	return statusErr.GetStatus()
}

func seedActivity(t *testing.T, db *gorm.DB, name string, capacity *int) models.Activity {
	t.Helper()
	a := models.Activity{Name: name, DurationMinutes: 60, StartsAt: time.Now().Add(24 * time.Hour), Capacity: capacity}
	booking.ApplyEndTime(&a)
	if err := db.Create(&a).Error; err != nil {
		t.Fatal(err)
	}
	return a
}

func seedParticipant(t *testing.T, db *gorm.DB, lastName string) models.Participant {
	t.Helper()
	p := models.Participant{LastName: lastName, FirstName: "Test",
		BirthDate: time.Date(2012, 3, 10, 0, 0, 0, 0, time.UTC), RegisteredOn: time.Now()}
	if err := db.Create(&p).Error; err != nil {
		t.Fatal(err)
	}
	return p
}

func intPtr(n int) *int { return &n }

func TestHandleCapacity(t *testing.T) {
	env := setupEnv(t)
	h := NewActivityHandler(env.db, env.engine, env.authHandler)
	ctx := context.Background()

	activity := seedActivity(t, env.db, "Kayak", intPtr(5))
	p := seedParticipant(t, env.db, "Martin")
	if _, err := env.engine.Register(ctx, p.ID, activity.ID); err != nil {
		t.Fatal(err)
	}

	res, err := h.HandleCapacity(ctx, &CapacityInput{ID: activity.ID})
	if err != nil {
		t.Fatalf("HandleCapacity failed: %v", err)
	}
	if res.Status != http.StatusOK || !res.Body.Success {
		t.Errorf("unexpected status %d / success %v", res.Status, res.Body.Success)
	}
	if res.Body.AvailableSpots == nil || *res.Body.AvailableSpots != 4 {
		t.Errorf("available_spots = %v, want 4", res.Body.AvailableSpots)
	}
	if res.Body.TotalCapacity == nil || *res.Body.TotalCapacity != 5 {
		t.Errorf("total_capacity = %v, want 5", res.Body.TotalCapacity)
	}
	if res.Body.CurrentParticipants != 1 {
		t.Errorf("current_participants = %d, want 1", res.Body.CurrentParticipants)
	}
	if res.Body.IsFull {
		t.Error("activity reported full")
	}

	// Unknown id comes back as a JSON error payload, not a huma error.
	res, err = h.HandleCapacity(ctx, &CapacityInput{ID: 9999})
	if err != nil {
		t.Fatalf("HandleCapacity failed: %v", err)
	}
	if res.Status != http.StatusNotFound || res.Body.Success {
		t.Errorf("unexpected status %d / success %v", res.Status, res.Body.Success)
	}
	if res.Body.Error != "Activity not found" {
		t.Errorf("error = %q", res.Body.Error)
	}
}

func TestHandleCapacityUnlimited(t *testing.T) {
	env := setupEnv(t)
	h := NewActivityHandler(env.db, env.engine, env.authHandler)

	activity := seedActivity(t, env.db, "Open", nil)
	res, err := h.HandleCapacity(context.Background(), &CapacityInput{ID: activity.ID})
	if err != nil {
		t.Fatalf("HandleCapacity failed: %v", err)
	}
	if res.Body.AvailableSpots != nil || res.Body.TotalCapacity != nil {
		t.Error("expected null spots and capacity for unlimited activity")
	}
	if res.Body.IsFull {
		t.Error("unlimited activity reported full")
	}
}

func TestHandleRegisterConflicts(t *testing.T) {
	env := setupEnv(t)
	h := NewRegistrationHandler(env.db, env.engine, nil, env.authHandler)
	ctx := context.Background()

	activity := seedActivity(t, env.db, "Climbing", intPtr(1))
	p1 := seedParticipant(t, env.db, "Martin")
	p2 := seedParticipant(t, env.db, "Dubois")

	input := &RegisterInput{AuthInput: env.staffAuth}
	input.Body.ParticipantID = p1.ID
	input.Body.ActivityID = activity.ID
	res, err := h.HandleRegister(ctx, input)
	if err != nil {
		t.Fatalf("HandleRegister failed: %v", err)
	}
	if res.Body.Status != models.RegistrationRegistered {
		t.Errorf("status = %s", res.Body.Status)
	}

	// Same pair again.
	if _, err := h.HandleRegister(ctx, input); statusOf(t, err) != http.StatusConflict {
		t.Errorf("duplicate: expected 409")
	}

	// Full activity.
	full := &RegisterInput{AuthInput: env.staffAuth}
	full.Body.ParticipantID = p2.ID
	full.Body.ActivityID = activity.ID
	if _, err := h.HandleRegister(ctx, full); statusOf(t, err) != http.StatusConflict {
		t.Errorf("full: expected 409")
	}

	// Unknown activity.
	missing := &RegisterInput{AuthInput: env.staffAuth}
	missing.Body.ParticipantID = p1.ID
	missing.Body.ActivityID = 9999
	if _, err := h.HandleRegister(ctx, missing); statusOf(t, err) != http.StatusNotFound {
		t.Errorf("missing: expected 404")
	}
}

func TestHandleRegisterRequiresAuth(t *testing.T) {
	env := setupEnv(t)
	h := NewRegistrationHandler(env.db, env.engine, nil, env.authHandler)

	input := &RegisterInput{}
	input.Body.ParticipantID = 1
	input.Body.ActivityID = 1
	if _, err := h.HandleRegister(context.Background(), input); statusOf(t, err) != http.StatusUnauthorized {
		t.Errorf("expected 401 without credentials")
	}
}

func TestCreateSupervisorEmailConflict(t *testing.T) {
	env := setupEnv(t)
	h := NewStaffHandler(env.db, env.authHandler)
	ctx := context.Background()

	animator := models.Animator{LastName: "Petit", FirstName: "Lea", Email: "lea@camp.example"}
	if err := env.db.Create(&animator).Error; err != nil {
		t.Fatal(err)
	}

	input := &CreateSupervisorInput{AuthInput: env.staffAuth}
	input.Body = supervisorBody{LastName: "Durand", FirstName: "Paul", Phone: "0600000000", Email: "lea@camp.example"}
	_, err := h.HandleCreateSupervisor(ctx, input)
	if statusOf(t, err) != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
	if !strings.Contains(err.Error(), "animator") {
		t.Errorf("conflict message should name the pool, got %q", err.Error())
	}

	input.Body.Email = "paul@camp.example"
	if _, err := h.HandleCreateSupervisor(ctx, input); err != nil {
		t.Fatalf("create with free email failed: %v", err)
	}
}

func TestUpdateSupervisorKeepsOwnEmail(t *testing.T) {
	env := setupEnv(t)
	h := NewStaffHandler(env.db, env.authHandler)
	ctx := context.Background()

	supervisor := models.Supervisor{LastName: "Durand", FirstName: "Paul", Email: "paul@camp.example"}
	if err := env.db.Create(&supervisor).Error; err != nil {
		t.Fatal(err)
	}

	input := &UpdateSupervisorInput{AuthInput: env.staffAuth, ID: supervisor.ID}
	input.Body = supervisorBody{LastName: "Durand", FirstName: "Paul", Phone: "0600000000",
		Email: "paul@camp.example", IsActive: true}
	res, err := h.HandleUpdateSupervisor(ctx, input)
	if err != nil {
		t.Fatalf("update with own email failed: %v", err)
	}
	if !res.Body.IsActive {
		t.Error("update was not applied")
	}
}

func TestDeleteParticipantRequiresAdmin(t *testing.T) {
	env := setupEnv(t)
	h := NewParticipantHandler(env.db, env.authHandler)
	ctx := context.Background()

	p := seedParticipant(t, env.db, "Martin")

	if _, err := h.HandleDelete(ctx, &DeleteParticipantInput{AuthInput: env.staffAuth, ID: p.ID}); statusOf(t, err) != http.StatusForbidden {
		t.Errorf("expected 403 for staff account")
	}
	if _, err := h.HandleDelete(ctx, &DeleteParticipantInput{AuthInput: env.adminAuth, ID: p.ID}); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}

	var count int64
	env.db.Model(&models.Participant{}).Where("id = ?", p.ID).Count(&count)
	if count != 0 {
		t.Error("participant still present")
	}
}

func TestCreateActivityValidation(t *testing.T) {
	env := setupEnv(t)
	h := NewActivityHandler(env.db, env.engine, env.authHandler)
	ctx := context.Background()

	input := &CreateActivityInput{AuthInput: env.staffAuth}
	input.Body = activityBody{Name: "Kayak", DurationMinutes: 0, StartsAt: time.Now().Add(24 * time.Hour)}
	if _, err := h.HandleCreate(ctx, input); statusOf(t, err) != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for zero duration")
	}

	input.Body.DurationMinutes = 90
	input.Body.AgeMin = intPtr(12)
	input.Body.AgeMax = intPtr(8)
	if _, err := h.HandleCreate(ctx, input); statusOf(t, err) != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for inverted age range")
	}

	input.Body.AgeMin = intPtr(8)
	input.Body.AgeMax = intPtr(12)
	res, err := h.HandleCreate(ctx, input)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if res.Body.EndsAt.IsZero() {
		t.Error("end time was not derived")
	}
	if got := res.Body.EndsAt.Sub(res.Body.StartsAt); got != 90*time.Minute {
		t.Errorf("derived end %v after start, want 90m", got)
	}
}

func TestCreateParticipantValidation(t *testing.T) {
	env := setupEnv(t)
	h := NewParticipantHandler(env.db, env.authHandler)
	ctx := context.Background()

	input := &CreateParticipantInput{AuthInput: env.staffAuth}
	input.Body = participantBody{LastName: "Martin", FirstName: "Lucie",
		BirthDate: time.Now().Add(24 * time.Hour)}
	if _, err := h.HandleCreate(ctx, input); statusOf(t, err) != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for future birth date")
	}

	input.Body.BirthDate = time.Date(2012, 3, 10, 0, 0, 0, 0, time.UTC)
	res, err := h.HandleCreate(ctx, input)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if res.Body.RegisteredOn.IsZero() {
		t.Error("registered_on was not stamped")
	}
}

func TestRemoveAnimatorThenReassign(t *testing.T) {
	env := setupEnv(t)
	h := NewAssignmentHandler(env.db, env.engine, env.authHandler)
	ctx := context.Background()

	activity := seedActivity(t, env.db, "Theatre", nil)
	animator := models.Animator{LastName: "Petit", FirstName: "Lea", Email: "lea@camp.example", IsActive: true}
	if err := env.db.Create(&animator).Error; err != nil {
		t.Fatal(err)
	}

	assign := &AssignAnimatorInput{AuthInput: env.staffAuth, ActivityID: activity.ID}
	assign.Body.AnimatorID = animator.ID
	assign.Body.Role = "lead"
	if _, err := h.HandleAssignAnimator(ctx, assign); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	remove := &RemoveAnimatorInput{AuthInput: env.staffAuth, ActivityID: activity.ID, AnimatorID: animator.ID}
	if _, err := h.HandleRemoveAnimator(ctx, remove); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	// The freed pair can be linked again.
	res, err := h.HandleAssignAnimator(ctx, assign)
	if err != nil {
		t.Fatalf("re-assign after removal failed: %v", err)
	}
	if res.Body.Role != "lead" {
		t.Errorf("role = %s", res.Body.Role)
	}

	if _, err := h.HandleRemoveAnimator(ctx, remove); err != nil {
		t.Fatalf("second remove failed: %v", err)
	}
	if _, err := h.HandleRemoveAnimator(ctx, remove); statusOf(t, err) != http.StatusNotFound {
		t.Error("expected 404 for already removed link")
	}
}

func TestRemoveMaterialThenReassign(t *testing.T) {
	env := setupEnv(t)
	h := NewAssignmentHandler(env.db, env.engine, env.authHandler)
	ctx := context.Background()

	activity := seedActivity(t, env.db, "Camping", nil)
	material := models.Material{Name: "Tents", AvailableQty: 5}
	if err := env.db.Create(&material).Error; err != nil {
		t.Fatal(err)
	}

	assign := &AssignMaterialInput{AuthInput: env.staffAuth, ActivityID: activity.ID}
	assign.Body.MaterialID = material.ID
	assign.Body.RequiredQty = 2
	if _, err := h.HandleAssignMaterial(ctx, assign); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	remove := &RemoveMaterialInput{AuthInput: env.staffAuth, ActivityID: activity.ID, MaterialID: material.ID}
	if _, err := h.HandleRemoveMaterial(ctx, remove); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	res, err := h.HandleAssignMaterial(ctx, assign)
	if err != nil {
		t.Fatalf("re-assign after removal failed: %v", err)
	}
	if res.Body.RequiredQty != 2 {
		t.Errorf("required qty = %d", res.Body.RequiredQty)
	}

	// A second link for the live pair is still a conflict.
	if _, err := h.HandleAssignMaterial(ctx, assign); statusOf(t, err) != http.StatusConflict {
		t.Error("expected 409 for duplicate live link")
	}
}

func TestAccountManagementIsAdminOnly(t *testing.T) {
	env := setupEnv(t)
	h := NewAccountHandler(env.db, env.authHandler)
	ctx := context.Background()

	if _, err := h.HandleList(ctx, &ListAccountsInput{AuthInput: env.staffAuth}); statusOf(t, err) != http.StatusForbidden {
		t.Errorf("expected 403 for staff account")
	}

	res, err := h.HandleList(ctx, &ListAccountsInput{AuthInput: env.adminAuth})
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if len(res.Body.Accounts) != 2 {
		t.Errorf("expected 2 accounts, got %d", len(res.Body.Accounts))
	}

	var staff models.Account
	if err := env.db.Where("username = ?", "staff").First(&staff).Error; err != nil {
		t.Fatal(err)
	}

	promote := &UpdateAccountRoleInput{AuthInput: env.adminAuth, ID: staff.ID}
	promote.Body.Role = models.RoleAdmin
	updated, err := h.HandleUpdateRole(ctx, promote)
	if err != nil {
		t.Fatalf("role update failed: %v", err)
	}
	if updated.Body.Role != models.RoleAdmin {
		t.Errorf("role = %s", updated.Body.Role)
	}

	var admin models.Account
	if err := env.db.Where("username = ?", "admin").First(&admin).Error; err != nil {
		t.Fatal(err)
	}
	if _, err := h.HandleDelete(ctx, &DeleteAccountInput{AuthInput: env.adminAuth, ID: admin.ID}); statusOf(t, err) != http.StatusUnprocessableEntity {
		t.Errorf("expected self-deletion to be rejected")
	}
	if _, err := h.HandleDelete(ctx, &DeleteAccountInput{AuthInput: env.adminAuth, ID: staff.ID}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
}

func TestHandleReserveConflict(t *testing.T) {
	env := setupEnv(t)
	h := NewInfrastructureHandler(env.db, env.engine, nil, env.authHandler)
	ctx := context.Background()

	infra := models.Infrastructure{Name: "Hall", Type: "hall", Available: true}
	if err := env.db.Create(&infra).Error; err != nil {
		t.Fatal(err)
	}

	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour)
	input := &ReserveInput{AuthInput: env.staffAuth, ID: infra.ID}
	input.Body.StartsAt = start
	input.Body.EndsAt = start.Add(2 * time.Hour)
	input.Body.Purpose = "briefing"
	input.Body.Responsible = "Martin"
	if _, err := h.HandleReserve(ctx, input); err != nil {
		t.Fatalf("first reservation failed: %v", err)
	}

	overlapping := &ReserveInput{AuthInput: env.staffAuth, ID: infra.ID}
	overlapping.Body.StartsAt = start.Add(time.Hour)
	overlapping.Body.EndsAt = start.Add(3 * time.Hour)
	overlapping.Body.Purpose = "meeting"
	overlapping.Body.Responsible = "Dubois"
	if _, err := h.HandleReserve(ctx, overlapping); statusOf(t, err) != http.StatusConflict {
		t.Errorf("expected 409 for overlapping window")
	}

	inverted := &ReserveInput{AuthInput: env.staffAuth, ID: infra.ID}
	inverted.Body.StartsAt = start.Add(5 * time.Hour)
	inverted.Body.EndsAt = start.Add(4 * time.Hour)
	inverted.Body.Purpose = "x"
	inverted.Body.Responsible = "y"
	if _, err := h.HandleReserve(ctx, inverted); statusOf(t, err) != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for inverted window")
	}
}
