package inspection

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/vinspect/vinspectgo/internal/apperrors"
	"github.com/vinspect/vinspectgo/internal/models"
	"github.com/vinspect/vinspectgo/internal/services/lifecycle"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Counter{},
		&models.ChecklistTemplate{},
		&models.InspectionRequest{},
		&models.InspectionRecord{},
	)
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func seedInspector(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	name := "inspector-" + uuid.NewString()[:8]
	user := &models.User{
		ID:       uuid.NewString(),
		Username: name,
		Email:    name + "@test.local",
		Password: "x",
		Role:     models.RoleInspector,
		Status:   models.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed inspector: %v", err)
	}
	return user
}

func seedTemplate(t *testing.T, db *gorm.DB, types ...models.TemplateType) *models.ChecklistTemplate {
	t.Helper()
	tpl := &models.ChecklistTemplate{
		Name:     "Test Template",
		Version:  1,
		IsActive: true,
		Types:    types,
	}
	if err := db.Create(tpl).Error; err != nil {
		t.Fatalf("failed to seed template: %v", err)
	}
	return tpl
}

func exteriorType() models.TemplateType {
	return models.TemplateType{
		TypeName: "Exterior",
		ChecklistItems: []models.TemplateItem{
			{Position: 1, Label: "Body panels"},
			{Position: 2, Label: "Glass"},
			{Position: 3, Label: "Tires"},
		},
	}
}

func engineType() models.TemplateType {
	return models.TemplateType{
		TypeName: "Engine",
		ChecklistItems: []models.TemplateItem{
			{Position: 1, Label: "Oil"},
			{Position: 2, Label: "Coolant"},
		},
	}
}

func newServices(db *gorm.DB) (*lifecycle.Service, *Service) {
	requests := lifecycle.NewService(db)
	return requests, NewService(db, requests)
}

func TestCreateComputesRatingsServerSide(t *testing.T) {
	db := openTestDB(t)
	_, svc := newServices(db)
	tpl := seedTemplate(t, db, exteriorType())
	inspector := seedInspector(t, db)

	rec, err := svc.Create(inspector.ID, CreateInput{
		TemplateID: tpl.ID,
		Types: models.InspectionTypeList{
			{
				TypeName: "Exterior",
				// Client-supplied average is garbage and must be overwritten
				AverageRating: 99,
				Items: []models.ChecklistItemResponse{
					{Position: 1, Label: "Body panels", Status: "Excellent"},
					{Position: 2, Label: "Glass", Status: "Poor"},
					{Position: 3, Label: "Tires", Status: "Not Checked"},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// (5 + 1) / 2 with the unchecked item excluded
	if rec.Types[0].AverageRating != 3.00 {
		t.Errorf("type average = %v, want 3.00", rec.Types[0].AverageRating)
	}
	if rec.OverallRating != 3.00 {
		t.Errorf("overall = %v, want 3.00", rec.OverallRating)
	}
	if rec.Status != models.InspectionStatusDraft {
		t.Errorf("status = %s, want draft", rec.Status)
	}
	if rec.CompletedAt != nil {
		t.Error("draft record must not have completedAt")
	}
}

func TestCreateClampsClientRatings(t *testing.T) {
	db := openTestDB(t)
	_, svc := newServices(db)
	tpl := seedTemplate(t, db, engineType())
	inspector := seedInspector(t, db)

	rec, err := svc.Create(inspector.ID, CreateInput{
		TemplateID: tpl.ID,
		Types: models.InspectionTypeList{
			{
				TypeName: "Engine",
				Items: []models.ChecklistItemResponse{
					{Position: 1, Label: "Oil", Status: "Good", Rating: 9},
					{Position: 2, Label: "Coolant", Status: "Fair", Rating: -3},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if rec.Types[0].Items[0].Rating != 5 {
		t.Errorf("over-range rating = %v, want clamped to 5", rec.Types[0].Items[0].Rating)
	}
	// Negative ratings fall back to the status weight
	if rec.Types[0].Items[1].Rating != 2.5 {
		t.Errorf("under-range rating = %v, want status weight 2.5", rec.Types[0].Items[1].Rating)
	}
	// (5 + 2.5) / 2
	if rec.Types[0].AverageRating != 3.75 {
		t.Errorf("type average = %v, want 3.75", rec.Types[0].AverageRating)
	}
}

func TestCreateValidatesAgainstTemplate(t *testing.T) {
	db := openTestDB(t)
	_, svc := newServices(db)
	tpl := seedTemplate(t, db, exteriorType(), engineType())
	inspector := seedInspector(t, db)

	exterior := models.InspectionType{
		TypeName: "Exterior",
		Items: []models.ChecklistItemResponse{
			{Position: 1, Label: "Body panels", Status: "Good"},
		},
	}

	// Missing template type
	_, err := svc.Create(inspector.ID, CreateInput{
		TemplateID: tpl.ID,
		Types:      models.InspectionTypeList{exterior},
	})
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("missing type: err = %v, want Validation", err)
	}

	// Unknown extra type
	_, err = svc.Create(inspector.ID, CreateInput{
		TemplateID: tpl.ID,
		Types: models.InspectionTypeList{
			exterior,
			{TypeName: "Engine", Items: []models.ChecklistItemResponse{{Position: 1, Label: "Oil", Status: "Good"}}},
			{TypeName: "Underbody", Items: []models.ChecklistItemResponse{{Position: 1, Label: "Frame", Status: "Good"}}},
		},
	})
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("unknown type: err = %v, want Validation", err)
	}

	// Invalid item status
	_, err = svc.Create(inspector.ID, CreateInput{
		TemplateID: tpl.ID,
		Types: models.InspectionTypeList{
			{TypeName: "Exterior", Items: []models.ChecklistItemResponse{{Position: 1, Label: "Body panels", Status: "Superb"}}},
			{TypeName: "Engine", Items: []models.ChecklistItemResponse{{Position: 1, Label: "Oil", Status: "Good"}}},
		},
	})
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("invalid status: err = %v, want Validation", err)
	}

	// Inactive template is not usable
	db.Model(&models.ChecklistTemplate{}).Where("id = ?", tpl.ID).Update("is_active", false)
	_, err = svc.Create(inspector.ID, CreateInput{
		TemplateID: tpl.ID,
		Types:      models.InspectionTypeList{exterior},
	})
	if apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("inactive template: err = %v, want NotFound", err)
	}
}

func TestCreateRequiresAssignmentToLinkedRequest(t *testing.T) {
	db := openTestDB(t)
	requests, svc := newServices(db)
	tpl := seedTemplate(t, db, exteriorType())
	assigned := seedInspector(t, db)
	other := seedInspector(t, db)

	req, err := requests.Create(lifecycle.CreateRequestInput{
		Email:       "owner@test.local",
		VehicleInfo: models.VehicleInfo{Make: "Toyota", Model: "Camry", Year: 2022},
	})
	if err != nil {
		t.Fatalf("request Create failed: %v", err)
	}
	if _, err := requests.Assign(req.ID, assigned.ID); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	in := CreateInput{
		TemplateID: tpl.ID,
		RequestID:  &req.ID,
		Types: models.InspectionTypeList{
			{TypeName: "Exterior", Items: []models.ChecklistItemResponse{{Position: 1, Label: "Body panels", Status: "Good"}}},
		},
	}
	if _, err := svc.Create(other.ID, in); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("unassigned inspector: err = %v, want Forbidden", err)
	}
	if _, err := svc.Create(assigned.ID, in); err != nil {
		t.Errorf("assigned inspector: unexpected err = %v", err)
	}
}

func TestUpdateDraftRecomputesAndFinalizes(t *testing.T) {
	db := openTestDB(t)
	_, svc := newServices(db)
	tpl := seedTemplate(t, db, engineType())
	inspector := seedInspector(t, db)

	rec, err := svc.Create(inspector.ID, CreateInput{
		TemplateID: tpl.ID,
		Types: models.InspectionTypeList{
			{TypeName: "Engine", Items: []models.ChecklistItemResponse{
				{Position: 1, Label: "Oil", Status: "Poor"},
				{Position: 2, Label: "Coolant", Status: "Poor"},
			}},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rec.OverallRating != 1.00 {
		t.Fatalf("initial overall = %v, want 1.00", rec.OverallRating)
	}

	// Only the author may touch the draft
	stranger := seedInspector(t, db)
	if _, err := svc.Update(rec.ID, stranger.ID, UpdateInput{}); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("stranger update: err = %v, want Forbidden", err)
	}

	updated, err := svc.Update(rec.ID, inspector.ID, UpdateInput{
		Types: models.InspectionTypeList{
			{TypeName: "Engine", Items: []models.ChecklistItemResponse{
				{Position: 1, Label: "Oil", Status: "Excellent"},
				{Position: 2, Label: "Coolant", Status: "Good"},
			}},
		},
		Status: models.InspectionStatusSubmitted,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	// (5 + 4) / 2
	if updated.OverallRating != 4.5 {
		t.Errorf("recomputed overall = %v, want 4.5", updated.OverallRating)
	}
	if updated.CompletedAt == nil {
		t.Error("finalized record should have completedAt")
	}

	// Final records are immutable
	if _, err := svc.Update(rec.ID, inspector.ID, UpdateInput{}); apperrors.KindOf(err) != apperrors.KindInvalidState {
		t.Errorf("update after finalize: err = %v, want InvalidState", err)
	}
}

func TestGetVisibility(t *testing.T) {
	db := openTestDB(t)
	requests, svc := newServices(db)
	tpl := seedTemplate(t, db, exteriorType())
	inspector := seedInspector(t, db)

	req, _ := requests.Create(lifecycle.CreateRequestInput{
		Email:       "owner@test.local",
		VehicleInfo: models.VehicleInfo{Make: "Toyota", Model: "Camry", Year: 2022},
	})
	requests.Assign(req.ID, inspector.ID)

	rec, err := svc.Create(inspector.ID, CreateInput{
		TemplateID: tpl.ID,
		RequestID:  &req.ID,
		Types: models.InspectionTypeList{
			{TypeName: "Exterior", Items: []models.ChecklistItemResponse{{Position: 1, Label: "Body panels", Status: "Good"}}},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Get(rec.ID, inspector.ID, models.RoleInspector); err != nil {
		t.Errorf("author Get failed: %v", err)
	}
	if _, err := svc.Get(rec.ID, "admin-id", models.RoleAdmin); err != nil {
		t.Errorf("admin Get failed: %v", err)
	}
	// The requester sees the inspection linked to their request
	if _, err := svc.Get(rec.ID, req.RequesterID, models.RoleUser); err != nil {
		t.Errorf("linked requester Get failed: %v", err)
	}
	if _, err := svc.Get(rec.ID, uuid.NewString(), models.RoleUser); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("stranger Get: err = %v, want Forbidden", err)
	}
}

// TestFullLifecycle walks a request from creation through submission of
// its final inspection and checks every side effect along the way.
func TestFullLifecycle(t *testing.T) {
	db := openTestDB(t)
	requests, svc := newServices(db)
	tpl := seedTemplate(t, db, exteriorType())
	inspector := seedInspector(t, db)

	req, err := requests.Create(lifecycle.CreateRequestInput{
		Email:       "buyer@test.local",
		VehicleInfo: models.VehicleInfo{Make: "Toyota", Model: "Camry", Year: 2022},
	})
	if err != nil {
		t.Fatalf("request Create failed: %v", err)
	}
	if !regexp.MustCompile(`^CAMRY_TOY_\d{3}$`).MatchString(req.RequestID) {
		t.Fatalf("request code = %q", req.RequestID)
	}
	if req.Status != models.RequestStatusPending {
		t.Fatalf("status = %s, want pending", req.Status)
	}

	if _, err := requests.Assign(req.ID, inspector.ID); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if _, err := requests.Start(req.ID, inspector.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	rec, err := svc.Create(inspector.ID, CreateInput{
		TemplateID: tpl.ID,
		RequestID:  &req.ID,
		Status:     models.InspectionStatusSubmitted,
		Types: models.InspectionTypeList{
			{TypeName: "Exterior", Items: []models.ChecklistItemResponse{
				{Position: 1, Label: "Body panels", Status: "Good"},
				{Position: 2, Label: "Glass", Status: "Good"},
				{Position: 3, Label: "Tires", Status: "Not Applicable"},
			}},
		},
	})
	if err != nil {
		t.Fatalf("inspection Create failed: %v", err)
	}

	if rec.Types[0].AverageRating != 4.00 {
		t.Errorf("type average = %v, want 4.00", rec.Types[0].AverageRating)
	}
	if rec.OverallRating != 4.00 {
		t.Errorf("overall = %v, want 4.00", rec.OverallRating)
	}

	var after models.InspectionRequest
	if err := db.First(&after, req.ID).Error; err != nil {
		t.Fatalf("failed to reload request: %v", err)
	}
	if after.Status != models.RequestStatusCompleted {
		t.Errorf("request status = %s, want completed", after.Status)
	}
	if after.LinkedInspectionID == nil || *after.LinkedInspectionID != rec.ID {
		t.Error("request should link back to the inspection record")
	}
	if after.TimeTaken == nil || *after.TimeTaken < 0 {
		t.Error("timeTaken should be a non-negative number of seconds")
	}

	var freed models.User
	if err := db.First(&freed, "id = ?", inspector.ID).Error; err != nil {
		t.Fatalf("failed to reload inspector: %v", err)
	}
	if freed.Assigned {
		t.Error("inspector should be freed after completion")
	}
}
