package lifecycle

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vinspect/vinspectgo/internal/apperrors"
	"github.com/vinspect/vinspectgo/internal/models"
	"github.com/vinspect/vinspectgo/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	requestCounterName = "inspection_requests"
	maxCodeAttempts    = 3
	maxReasonLen       = 500
)

// Notifier receives request status changes for fan-out (websocket hub)
type Notifier interface {
	RequestStatusChanged(req *models.InspectionRequest)
}

// Service owns the inspection-request state machine
type Service struct {
	db       *gorm.DB
	notifier Notifier
}

// NewService creates a lifecycle service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// SetNotifier registers an optional status-change listener
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Service) notify(req *models.InspectionRequest) {
	if s.notifier != nil {
		s.notifier.RequestStatusChanged(req)
	}
}

// nextSequence atomically increments the global request counter.
// Single upsert statement, valid on PostgreSQL and SQLite.
func (s *Service) nextSequence() (int64, error) {
	var value int64
	err := s.db.Raw(
		`INSERT INTO counters (name, value) VALUES (?, 1)
		 ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		 RETURNING value`,
		requestCounterName,
	).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}

// CreateRequestInput is the intake payload for a new inspection request
type CreateRequestInput struct {
	Email       string             `json:"email"`
	Name        string             `json:"name"`
	Phone       string             `json:"phone"`
	VehicleInfo models.VehicleInfo `json:"vehicleInfo"`
	RequestType string             `json:"requestType"`
	Notes       string             `json:"notes"`
	Details     datatypes.JSON     `json:"details"`
}

func validateCreate(in *CreateRequestInput) error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return apperrors.Validation("A valid email is required")
	}
	if strings.TrimSpace(in.VehicleInfo.Make) == "" {
		return apperrors.Validation("Vehicle make is required")
	}
	if strings.TrimSpace(in.VehicleInfo.Model) == "" {
		return apperrors.Validation("Vehicle model is required")
	}
	if in.VehicleInfo.Year < 1900 {
		return apperrors.Validation("Vehicle year is required")
	}
	return nil
}

// resolveRequester finds the user for an intake email, creating an
// inactive account when the email is unknown. Blocked users cannot
// create requests.
func (s *Service) resolveRequester(in CreateRequestInput) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", in.Email).First(&user).Error
	if err == nil {
		if user.Status == models.UserStatusBlocked {
			return nil, apperrors.Forbidden("This account is blocked and cannot create requests")
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Placeholder credential until the account is activated via OTP
	hashed, err := utils.HashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}

	user = models.User{
		ID:       uuid.NewString(),
		Username: in.Email,
		Email:    in.Email,
		Name:     in.Name,
		Phone:    in.Phone,
		Password: hashed,
		Role:     models.RoleUser,
		Status:   models.UserStatusInactive,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Create validates the intake payload, resolves the requester and
// persists a new pending request with a freshly issued request code.
// A uniqueness collision on the generated code (defensive, the counter
// is atomic) is retried with a new sequence, bounded at 3 attempts.
func (s *Service) Create(in CreateRequestInput) (*models.InspectionRequest, error) {
	if err := validateCreate(&in); err != nil {
		return nil, err
	}

	requester, err := s.resolveRequester(in)
	if err != nil {
		return nil, err
	}

	requestType := in.RequestType
	if requestType == "" {
		requestType = "inspection"
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		seq, err := s.nextSequence()
		if err != nil {
			return nil, err
		}

		req := models.InspectionRequest{
			RequestID:   utils.FormatRequestCode(in.VehicleInfo.Model, in.VehicleInfo.Make, seq),
			RequesterID: requester.ID,
			VehicleInfo: in.VehicleInfo,
			Status:      models.RequestStatusPending,
			RequestType: requestType,
			Notes:       in.Notes,
			Details:     in.Details,
		}

		err = s.db.Create(&req).Error
		if err == nil {
			req.Requester = requester
			s.notify(&req)
			return &req, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}

	return nil, apperrors.Conflict("Could not generate a unique request ID after %d attempts", maxCodeAttempts)
}

// Assign assigns or reassigns an inspector. Allowed from any
// non-terminal status; a previously assigned inspector is freed before
// the new one is marked busy. Advances pending to assigned, otherwise
// the status is left unchanged.
func (s *Service) Assign(requestID uint, inspectorID string) (*models.InspectionRequest, error) {
	var req models.InspectionRequest
	if err := s.db.First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Request not found")
		}
		return nil, err
	}

	if req.Status.IsTerminal() {
		return nil, apperrors.InvalidState(
			"Request can no longer be assigned. Current status: %s", req.Status)
	}

	var inspector models.User
	if err := s.db.First(&inspector, "id = ?", inspectorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Inspector not found")
		}
		return nil, err
	}
	if !inspector.IsActiveInspector() {
		return nil, apperrors.InvalidState(
			"User %s is not an active inspector", inspector.Username)
	}

	now := time.Now().UTC()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Free the previous inspector before claiming the new one
		if req.AssignedInspectorID != nil && *req.AssignedInspectorID != inspectorID {
			if err := tx.Model(&models.User{}).
				Where("id = ?", *req.AssignedInspectorID).
				Update("assigned", false).Error; err != nil {
				return err
			}
		}

		res := tx.Model(&models.User{}).
			Where("id = ? AND role = ? AND status = ?",
				inspectorID, models.RoleInspector, models.UserStatusActive).
			Update("assigned", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.InvalidState("Inspector is no longer active")
		}

		updates := map[string]interface{}{
			"assigned_inspector_id": inspectorID,
			"assigned_at":           now,
		}
		if req.Status == models.RequestStatusPending {
			updates["status"] = models.RequestStatusAssigned
		}

		// Conditional write guarded by the status we read
		res = tx.Model(&models.InspectionRequest{}).
			Where("id = ? AND status = ?", req.ID, req.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("Request was modified concurrently, retry the assignment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Preload("AssignedInspector").First(&req, requestID).Error; err != nil {
		return nil, err
	}
	s.notify(&req)
	return &req, nil
}

// Approve marks admin approval on a pending request. Approval is an
// audit marker and does not change the status.
func (s *Service) Approve(requestID uint) (*models.InspectionRequest, error) {
	var req models.InspectionRequest
	if err := s.db.First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Request not found")
		}
		return nil, err
	}

	if req.Status != models.RequestStatusPending {
		return nil, apperrors.InvalidState(
			"Request can only be approved when status is pending. Current status: %s", req.Status)
	}

	now := time.Now().UTC()
	res := s.db.Model(&models.InspectionRequest{}).
		Where("id = ? AND status = ? AND admin_approved_at IS NULL",
			req.ID, models.RequestStatusPending).
		Update("admin_approved_at", now)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.InvalidState(
			"Request can only be approved when status is pending. Current status: %s", req.Status)
	}

	req.AdminApprovedAt = &now
	return &req, nil
}

// Start moves an assigned request to in_progress and records the start
// time. Only the assigned inspector may start, and only once.
func (s *Service) Start(requestID uint, inspectorID string) (*models.InspectionRequest, error) {
	var req models.InspectionRequest
	if err := s.db.First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Request not found")
		}
		return nil, err
	}

	if req.AssignedInspectorID == nil || *req.AssignedInspectorID != inspectorID {
		return nil, apperrors.Forbidden("Only the assigned inspector can start this inspection")
	}
	if req.InspectionStartTime != nil {
		return nil, apperrors.InvalidState("Inspection has already been started")
	}
	if !req.Status.CanTransitionTo(models.RequestStatusInProgress) {
		return nil, apperrors.InvalidState(
			"Inspection can only be started when status is pending or assigned. Current status: %s", req.Status)
	}

	now := time.Now().UTC()
	res := s.db.Model(&models.InspectionRequest{}).
		Where("id = ? AND status = ? AND inspection_start_time IS NULL", req.ID, req.Status).
		Updates(map[string]interface{}{
			"status":                models.RequestStatusInProgress,
			"inspection_start_time": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.Conflict("Request was modified concurrently, retry")
	}

	req.Status = models.RequestStatusInProgress
	req.InspectionStartTime = &now
	s.notify(&req)
	return &req, nil
}

// CompleteForInspection advances the request linked to a finished
// inspection record to completed, recording the end time and the time
// taken in whole seconds (when a start time exists).
func (s *Service) CompleteForInspection(requestID uint, inspectorID string, inspectionID uint) (*models.InspectionRequest, error) {
	var req models.InspectionRequest
	if err := s.db.First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Request not found")
		}
		return nil, err
	}

	if req.AssignedInspectorID == nil || *req.AssignedInspectorID != inspectorID {
		return nil, apperrors.Forbidden("Only the assigned inspector can complete this request")
	}
	if req.Status.IsTerminal() {
		return nil, apperrors.InvalidState(
			"Request can no longer be completed. Current status: %s", req.Status)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":               models.RequestStatusCompleted,
		"inspection_end_time":  now,
		"linked_inspection_id": inspectionID,
	}
	if req.InspectionStartTime != nil {
		updates["time_taken"] = int64(now.Sub(*req.InspectionStartTime).Seconds())
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.InspectionRequest{}).
			Where("id = ? AND status = ?", req.ID, req.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("Request was modified concurrently, retry")
		}

		// Completion ends the assignment, the inspector is free again
		return tx.Model(&models.User{}).
			Where("id = ?", inspectorID).
			Update("assigned", false).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.First(&req, requestID).Error; err != nil {
		return nil, err
	}
	s.notify(&req)
	return &req, nil
}

// Reject cancels a request with an optional reason. Terminal statuses
// cannot be rejected. A previously assigned inspector is freed.
func (s *Service) Reject(requestID uint, reason string) (*models.InspectionRequest, error) {
	var req models.InspectionRequest
	if err := s.db.First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Request not found")
		}
		return nil, err
	}

	if req.Status == models.RequestStatusCancelled {
		return nil, apperrors.InvalidState("Request is already cancelled")
	}
	if req.Status == models.RequestStatusCompleted {
		return nil, apperrors.InvalidState("Completed requests cannot be rejected")
	}

	reason = strings.TrimSpace(reason)
	if len(reason) > maxReasonLen {
		reason = reason[:maxReasonLen]
	}

	now := time.Now().UTC()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.InspectionRequest{}).
			Where("id = ? AND status = ?", req.ID, req.Status).
			Updates(map[string]interface{}{
				"status":                models.RequestStatusCancelled,
				"cancelled_at":          now,
				"cancelled_reason":      reason,
				"assigned_inspector_id": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("Request was modified concurrently, retry")
		}

		if req.AssignedInspectorID != nil {
			return tx.Model(&models.User{}).
				Where("id = ?", *req.AssignedInspectorID).
				Update("assigned", false).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.First(&req, requestID).Error; err != nil {
		return nil, err
	}
	s.notify(&req)
	return &req, nil
}

// UpdateRequestInput carries the fields an owner may change while the
// request is still pending
type UpdateRequestInput struct {
	VehicleInfo *models.VehicleInfo `json:"vehicleInfo,omitempty"`
	RequestType *string             `json:"requestType,omitempty"`
	Notes       *string             `json:"notes,omitempty"`
	Details     datatypes.JSON      `json:"details,omitempty"`
}

// Update applies a partial update. Only the owner or an admin may
// update, and only while the request is pending.
func (s *Service) Update(requestID uint, actorID string, isAdmin bool, in UpdateRequestInput) (*models.InspectionRequest, error) {
	var req models.InspectionRequest
	if err := s.db.First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Request not found")
		}
		return nil, err
	}

	if !isAdmin && req.RequesterID != actorID {
		return nil, apperrors.Forbidden("You can only update your own requests")
	}
	if req.Status != models.RequestStatusPending {
		return nil, apperrors.InvalidState(
			"Request can only be updated when status is pending. Current status: %s", req.Status)
	}

	updates := map[string]interface{}{}
	if in.VehicleInfo != nil {
		vi := *in.VehicleInfo
		if strings.TrimSpace(vi.Make) == "" || strings.TrimSpace(vi.Model) == "" || vi.Year < 1900 {
			return nil, apperrors.Validation("Vehicle make, model and year are required")
		}
		updates["vehicle_make"] = vi.Make
		updates["vehicle_model"] = vi.Model
		updates["vehicle_year"] = vi.Year
		updates["vehicle_vin"] = vi.VIN
		updates["vehicle_license_plate"] = vi.LicensePlate
		updates["vehicle_mileage"] = vi.Mileage
		updates["vehicle_color"] = vi.Color
	}
	if in.RequestType != nil {
		updates["request_type"] = *in.RequestType
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.Details != nil {
		updates["details"] = in.Details
	}
	if len(updates) == 0 {
		return &req, nil
	}

	res := s.db.Model(&models.InspectionRequest{}).
		Where("id = ? AND status = ?", req.ID, models.RequestStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.Conflict("Request was modified concurrently, retry")
	}

	if err := s.db.First(&req, requestID).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// Get loads a request, enforcing visibility: admins see everything,
// requesters see their own, inspectors see their assignments.
func (s *Service) Get(requestID uint, actorID, role string) (*models.InspectionRequest, error) {
	var req models.InspectionRequest
	err := s.db.Preload("Requester").Preload("AssignedInspector").
		First(&req, requestID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Request not found")
		}
		return nil, err
	}

	switch {
	case role == models.RoleAdmin:
	case req.RequesterID == actorID:
	case role == models.RoleInspector &&
		req.AssignedInspectorID != nil && *req.AssignedInspectorID == actorID:
	default:
		return nil, apperrors.Forbidden("You do not have access to this request")
	}

	return &req, nil
}

// ListFilter controls list queries
type ListFilter struct {
	Status models.RequestStatus
	Page   int
	Limit  int
	SortBy string
	Desc   bool
}

var sortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"status":     true,
	"request_id": true,
}

func (s *Service) list(scope *gorm.DB, f ListFilter) ([]models.InspectionRequest, int64, error) {
	if f.Status != "" {
		if !f.Status.IsValid() {
			return nil, 0, apperrors.Validation("Unknown status filter: %s", f.Status)
		}
		scope = scope.Where("status = ?", f.Status)
	}
	// Reusable session so Count and Find get independent statements
	scope = scope.Session(&gorm.Session{})

	var total int64
	if err := scope.Model(&models.InspectionRequest{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}

	sortBy := f.SortBy
	if !sortColumns[sortBy] {
		sortBy = "created_at"
	}
	order := sortBy
	if f.Desc {
		order += " DESC"
	}

	var reqs []models.InspectionRequest
	err := scope.Preload("AssignedInspector").
		Order(order).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&reqs).Error
	return reqs, total, err
}

// ListForRequester returns the caller's own requests
func (s *Service) ListForRequester(userID string, f ListFilter) ([]models.InspectionRequest, int64, error) {
	return s.list(s.db.Where("requester_id = ?", userID), f)
}

// ListForInspector returns requests assigned to the inspector
func (s *Service) ListForInspector(inspectorID string, f ListFilter) ([]models.InspectionRequest, int64, error) {
	return s.list(s.db.Where("assigned_inspector_id = ?", inspectorID), f)
}

// ListAll returns all requests (admin)
func (s *Service) ListAll(f ListFilter) ([]models.InspectionRequest, int64, error) {
	return s.list(s.db.Session(&gorm.Session{}), f)
}
