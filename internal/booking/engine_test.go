package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/campdesk/campdesk/internal/database"
	"github.com/campdesk/campdesk/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	// Each sqlite connection gets its own in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func intPtr(n int) *int { return &n }

func createParticipant(t *testing.T, db *gorm.DB, lastName string) models.Participant {
	t.Helper()
	p := models.Participant{
		LastName:     lastName,
		FirstName:    "Test",
		BirthDate:    time.Date(2012, 3, 10, 0, 0, 0, 0, time.UTC),
		RegisteredOn: time.Now(),
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("failed to create participant: %v", err)
	}
	return p
}

func createActivity(t *testing.T, db *gorm.DB, name string, capacity *int) models.Activity {
	t.Helper()
	a := models.Activity{
		Name:            name,
		DurationMinutes: 60,
		StartsAt:        time.Now().Add(24 * time.Hour),
		Capacity:        capacity,
	}
	ApplyEndTime(&a)
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("failed to create activity: %v", err)
	}
	return a
}

func TestComputeEndTime(t *testing.T) {
	start := time.Date(2026, 7, 14, 10, 0, 0, 0, time.UTC)
	end := ComputeEndTime(start, 90)

	if got := end.Sub(start); got != 90*time.Minute {
		t.Errorf("expected 90m between start and end, got %v", got)
	}
}

func TestApplyEndTimeSetOnce(t *testing.T) {
	start := time.Date(2026, 7, 14, 10, 0, 0, 0, time.UTC)
	a := models.Activity{StartsAt: start, DurationMinutes: 60}

	ApplyEndTime(&a)
	if !a.EndsAt.Equal(start.Add(time.Hour)) {
		t.Fatalf("expected derived end %v, got %v", start.Add(time.Hour), a.EndsAt)
	}

	// A stored end time survives a duration change.
	a.DurationMinutes = 120
	ApplyEndTime(&a)
	if !a.EndsAt.Equal(start.Add(time.Hour)) {
		t.Errorf("end time was recomputed, got %v", a.EndsAt)
	}
}

func TestRegisterCapacity(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	activity := createActivity(t, db, "Kayak", intPtr(2))
	p1 := createParticipant(t, db, "Martin")
	p2 := createParticipant(t, db, "Dubois")
	p3 := createParticipant(t, db, "Bernard")

	first, err := engine.Register(ctx, p1.ID, activity.ID)
	if err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if first.Status != models.RegistrationRegistered {
		t.Errorf("expected status registered, got %s", first.Status)
	}
	if _, err := engine.Register(ctx, p2.ID, activity.ID); err != nil {
		t.Fatalf("second registration failed: %v", err)
	}

	_, err = engine.Register(ctx, p3.ID, activity.ID)
	var full *ActivityFullError
	if !errors.As(err, &full) {
		t.Fatalf("expected ActivityFullError, got %v", err)
	}
	if full.Capacity != 2 || full.Current != 2 {
		t.Errorf("expected 2/2 in rejection, got %d/%d", full.Current, full.Capacity)
	}

	// Freeing a seat lets the third participant in.
	if _, err := engine.CancelRegistration(ctx, first.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := engine.Register(ctx, p3.ID, activity.ID); err != nil {
		t.Fatalf("registration after cancel failed: %v", err)
	}

	var count int64
	activeRegistrations(db, activity.ID).Count(&count)
	if count != 2 {
		t.Errorf("expected 2 active registrations, got %d", count)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	activity := createActivity(t, db, "Archery", nil)
	p := createParticipant(t, db, "Martin")

	if _, err := engine.Register(ctx, p.ID, activity.ID); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if _, err := engine.Register(ctx, p.ID, activity.ID); !errors.Is(err, ErrDuplicateRegistration) {
		t.Fatalf("expected ErrDuplicateRegistration, got %v", err)
	}
}

func TestRegisterRevivesCancelledRow(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	activity := createActivity(t, db, "Climbing", nil)
	p := createParticipant(t, db, "Martin")

	first, err := engine.Register(ctx, p.ID, activity.ID)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := engine.CancelRegistration(ctx, first.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	second, err := engine.Register(ctx, p.ID, activity.ID)
	if err != nil {
		t.Fatalf("re-register failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected cancelled row %d to be revived, got new row %d", first.ID, second.ID)
	}
	if second.Status != models.RegistrationRegistered {
		t.Errorf("expected status registered, got %s", second.Status)
	}

	var count int64
	db.Model(&models.Registration{}).
		Where("participant_id = ? AND activity_id = ?", p.ID, activity.ID).
		Count(&count)
	if count != 1 {
		t.Errorf("expected a single row for the pair, got %d", count)
	}
}

func TestRegisterZeroCapacityIsFull(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	activity := createActivity(t, db, "Empty", intPtr(0))
	p := createParticipant(t, db, "Martin")

	var full *ActivityFullError
	if _, err := engine.Register(ctx, p.ID, activity.ID); !errors.As(err, &full) {
		t.Fatalf("expected ActivityFullError for zero capacity, got %v", err)
	}
}

func TestRegisterRejectsCancelledAndPast(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine(db)
	ctx := context.Background()
	p := createParticipant(t, db, "Martin")

	cancelled := createActivity(t, db, "Cancelled", nil)
	db.Model(&cancelled).Update("cancelled", true)
	if _, err := engine.Register(ctx, p.ID, cancelled.ID); !errors.Is(err, ErrActivityCancelled) {
		t.Errorf("expected ErrActivityCancelled, got %v", err)
	}

	past := createActivity(t, db, "Past", nil)
	db.Model(&past).Update("starts_at", time.Now().Add(-2*time.Hour))
	if _, err := engine.Register(ctx, p.ID, past.ID); !errors.Is(err, ErrActivityPast) {
		t.Errorf("expected ErrActivityPast, got %v", err)
	}

	if _, err := engine.Register(ctx, p.ID, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing activity, got %v", err)
	}
}

func TestRegisterConcurrentRespectsCapacity(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	activity := createActivity(t, db, "Raft", intPtr(3))

	var participants []models.Participant
	for i := 0; i < 10; i++ {
		participants = append(participants, createParticipant(t, db, "Concurrent"))
	}

	var wg sync.WaitGroup
	for _, p := range participants {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			engine.Register(ctx, id, activity.ID)
		}(p.ID)
	}
	wg.Wait()

	var count int64
	activeRegistrations(db, activity.ID).Count(&count)
	if count != 3 {
		t.Errorf("expected exactly 3 active registrations, got %d", count)
	}
}

func TestAvailability(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	limited := createActivity(t, db, "Limited", intPtr(5))
	p := createParticipant(t, db, "Martin")
	if _, err := engine.Register(ctx, p.ID, limited.ID); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	seats, unlimited, err := engine.AvailableSeats(ctx, limited.ID)
	if err != nil {
		t.Fatalf("AvailableSeats failed: %v", err)
	}
	if unlimited || seats != 4 {
		t.Errorf("expected 4 seats, got %d (unlimited=%v)", seats, unlimited)
	}

	isFull, err := engine.IsFull(ctx, limited.ID)
	if err != nil || isFull {
		t.Errorf("expected not full, got full=%v err=%v", isFull, err)
	}

	open := createActivity(t, db, "Open", nil)
	_, unlimited, err = engine.AvailableSeats(ctx, open.ID)
	if err != nil {
		t.Fatalf("AvailableSeats failed: %v", err)
	}
	if !unlimited {
		t.Error("expected unlimited for unset capacity")
	}

	if _, err := engine.Availability(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAssignMaterialStock(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	activity := createActivity(t, db, "Camping", nil)
	material := models.Material{Name: "Tents", AvailableQty: 3}
	if err := db.Create(&material).Error; err != nil {
		t.Fatalf("failed to create material: %v", err)
	}

	_, err := engine.AssignMaterial(ctx, activity.ID, material.ID, 4, "")
	var stock *InsufficientStockError
	if !errors.As(err, &stock) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stock.Available != 3 || stock.Requested != 4 {
		t.Errorf("expected 4 requested / 3 available, got %d/%d", stock.Requested, stock.Available)
	}

	link, err := engine.AssignMaterial(ctx, activity.ID, material.ID, 3, "")
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if link.RequiredQty != 3 {
		t.Errorf("expected required qty 3, got %d", link.RequiredQty)
	}

	// One link per (activity, material) pair.
	if _, err := engine.AssignMaterial(ctx, activity.ID, material.ID, 1, ""); !errors.Is(err, ErrDuplicateAssignment) {
		t.Errorf("expected ErrDuplicateAssignment, got %v", err)
	}

	if _, err := engine.AssignMaterial(ctx, activity.ID, material.ID, 0, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for zero quantity, got %v", err)
	}
}

func TestAssignAnimator(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	activity := createActivity(t, db, "Theatre", nil)
	animator := models.Animator{LastName: "Petit", FirstName: "Lea", Email: "lea@camp.example", IsActive: true}
	if err := db.Create(&animator).Error; err != nil {
		t.Fatalf("failed to create animator: %v", err)
	}

	link, err := engine.AssignAnimator(ctx, activity.ID, animator.ID, "lead", "")
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if link.Role != "lead" {
		t.Errorf("expected role lead, got %s", link.Role)
	}

	if _, err := engine.AssignAnimator(ctx, activity.ID, animator.ID, "helper", ""); !errors.Is(err, ErrDuplicateAssignment) {
		t.Errorf("expected ErrDuplicateAssignment, got %v", err)
	}
}

func TestReserveOverlap(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	infra := models.Infrastructure{Name: "Main Hall", Type: "hall", Available: true}
	if err := db.Create(&infra).Error; err != nil {
		t.Fatalf("failed to create infrastructure: %v", err)
	}

	day := time.Now().Add(48 * time.Hour).Truncate(time.Hour)
	at := func(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

	if _, err := engine.Reserve(ctx, infra.ID, at(10), at(12), "briefing", "Martin", ""); err != nil {
		t.Fatalf("first reservation failed: %v", err)
	}

	_, err := engine.Reserve(ctx, infra.ID, at(11), at(13), "meeting", "Dubois", "")
	var overlap *OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("expected OverlapError, got %v", err)
	}

	// Adjacent windows do not overlap.
	if _, err := engine.Reserve(ctx, infra.ID, at(12), at(14), "meeting", "Dubois", ""); err != nil {
		t.Fatalf("adjacent reservation failed: %v", err)
	}
}

func TestReserveInvalidWindow(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	infra := models.Infrastructure{Name: "Field", Type: "outdoor", Available: true}
	if err := db.Create(&infra).Error; err != nil {
		t.Fatalf("failed to create infrastructure: %v", err)
	}

	future := time.Now().Add(24 * time.Hour)
	var window *InvalidWindowError

	if _, err := engine.Reserve(ctx, infra.ID, future, future, "x", "y", ""); !errors.As(err, &window) {
		t.Errorf("expected InvalidWindowError for empty window, got %v", err)
	}
	if _, err := engine.Reserve(ctx, infra.ID, future.Add(time.Hour), future, "x", "y", ""); !errors.As(err, &window) {
		t.Errorf("expected InvalidWindowError for inverted window, got %v", err)
	}

	past := time.Now().Add(-time.Hour)
	if _, err := engine.Reserve(ctx, infra.ID, past, past.Add(2*time.Hour), "x", "y", ""); !errors.As(err, &window) {
		t.Errorf("expected InvalidWindowError for past start, got %v", err)
	}
}

func TestReserveScheduleConflict(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	infra := models.Infrastructure{Name: "Pool", Type: "pool", Available: true}
	if err := db.Create(&infra).Error; err != nil {
		t.Fatalf("failed to create infrastructure: %v", err)
	}

	day := time.Now().Add(72 * time.Hour).Truncate(time.Hour)
	for i, name := range []string{"Swim A", "Swim B", "Swim C", "Swim D"} {
		a := models.Activity{
			Name:             name,
			DurationMinutes:  60,
			StartsAt:         day.Add(time.Duration(i) * time.Hour),
			InfrastructureID: &infra.ID,
		}
		ApplyEndTime(&a)
		if err := db.Create(&a).Error; err != nil {
			t.Fatalf("failed to create activity: %v", err)
		}
	}

	_, err := engine.Reserve(ctx, infra.ID, day, day.Add(4*time.Hour), "cleaning", "Martin", "")
	var conflict *ScheduleConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ScheduleConflictError, got %v", err)
	}
	if conflict.Total != 4 {
		t.Errorf("expected 4 conflicts, got %d", conflict.Total)
	}
	if len(conflict.Names) != 3 {
		t.Errorf("expected 3 listed names, got %d", len(conflict.Names))
	}

	// Cancelled activities do not block the window.
	db.Model(&models.Activity{}).Where("infrastructure_id = ?", infra.ID).Update("cancelled", true)
	if _, err := engine.Reserve(ctx, infra.ID, day, day.Add(4*time.Hour), "cleaning", "Martin", ""); err != nil {
		t.Fatalf("reservation over cancelled activities failed: %v", err)
	}
}

func TestCancelRegistrationIdempotent(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	activity := createActivity(t, db, "Hike", nil)
	p := createParticipant(t, db, "Martin")

	registration, err := engine.Register(ctx, p.ID, activity.ID)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		cancelled, err := engine.CancelRegistration(ctx, registration.ID)
		if err != nil {
			t.Fatalf("cancel %d failed: %v", i, err)
		}
		if cancelled.Status != models.RegistrationCancelled {
			t.Errorf("expected cancelled status, got %s", cancelled.Status)
		}
	}

	if _, err := engine.CancelRegistration(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
