package inspection

import (
	"errors"
	"strings"
	"time"

	"github.com/vinspect/vinspectgo/internal/apperrors"
	"github.com/vinspect/vinspectgo/internal/models"
	"github.com/vinspect/vinspectgo/internal/rating"
	"github.com/vinspect/vinspectgo/internal/services/lifecycle"
	"gorm.io/gorm"
)

// Service owns inspection records and their derived ratings
type Service struct {
	db       *gorm.DB
	requests *lifecycle.Service
}

// NewService creates an inspection service
func NewService(db *gorm.DB, requests *lifecycle.Service) *Service {
	return &Service{db: db, requests: requests}
}

// CreateInput is the payload for creating an inspection record
type CreateInput struct {
	TemplateID  uint                      `json:"templateId"`
	RequestID   *uint                     `json:"requestId,omitempty"`
	VehicleInfo models.VehicleInfo        `json:"vehicleInfo"`
	Types       models.InspectionTypeList `json:"types"`
	Status      models.InspectionStatus   `json:"status"`
}

// UpdateInput is the payload for updating a draft record
type UpdateInput struct {
	Types  models.InspectionTypeList `json:"types,omitempty"`
	Status models.InspectionStatus   `json:"status,omitempty"`
}

// validateTypes checks the submitted checklist against the template:
// every template type must be present, no unknown types, and all item
// statuses must come from the canonical vocabulary.
func validateTypes(tpl *models.ChecklistTemplate, types models.InspectionTypeList) error {
	submitted := make(map[string]bool, len(types))
	for _, t := range types {
		name := strings.TrimSpace(t.TypeName)
		if name == "" {
			return apperrors.Validation("Checklist type name is required")
		}
		if submitted[name] {
			return apperrors.Validation("Duplicate checklist type: %s", name)
		}
		submitted[name] = true

		for _, item := range t.Items {
			if !rating.Status(item.Status).IsValid() {
				return apperrors.Validation(
					"Unknown checklist status %q in type %s", item.Status, name)
			}
		}
	}

	known := make(map[string]bool, len(tpl.Types))
	for _, tt := range tpl.Types {
		known[tt.TypeName] = true
		if !submitted[tt.TypeName] {
			return apperrors.Validation(
				"Checklist type %q from the template is missing", tt.TypeName)
		}
	}
	for name := range submitted {
		if !known[name] {
			return apperrors.Validation("Checklist type %q is not part of the template", name)
		}
	}
	return nil
}

// computeRatings recomputes per-type averages and the overall rating
// from item statuses. Client-supplied averages are overwritten and
// item ratings are normalized to the clamped effective value.
func computeRatings(types models.InspectionTypeList) (models.InspectionTypeList, float64) {
	avgs := make([]float64, 0, len(types))
	for i := range types {
		items := make([]rating.Item, 0, len(types[i].Items))
		for j := range types[i].Items {
			it := rating.Item{
				Status: rating.Status(types[i].Items[j].Status),
				Rating: types[i].Items[j].Rating,
			}
			types[i].Items[j].Rating = it.EffectiveRating()
			items = append(items, it)
		}
		types[i].AverageRating = rating.TypeAverage(items)
		avgs = append(avgs, types[i].AverageRating)
	}
	return types, rating.Overall(avgs)
}

func (s *Service) loadTemplate(id uint) (*models.ChecklistTemplate, error) {
	var tpl models.ChecklistTemplate
	err := s.db.First(&tpl, "id = ? AND is_active = ?", id, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Checklist template not found")
		}
		return nil, err
	}
	return &tpl, nil
}

// Create builds a new inspection record with server-computed ratings.
// When the record is final (completed/submitted) and linked to a
// request, the request is advanced to completed.
func (s *Service) Create(inspectorID string, in CreateInput) (*models.InspectionRecord, error) {
	tpl, err := s.loadTemplate(in.TemplateID)
	if err != nil {
		return nil, err
	}

	if err := validateTypes(tpl, in.Types); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.InspectionStatusDraft
	}
	if !status.IsValid() {
		return nil, apperrors.Validation("Unknown inspection status: %s", status)
	}

	if in.RequestID != nil {
		var req models.InspectionRequest
		if err := s.db.First(&req, *in.RequestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("Request not found")
			}
			return nil, err
		}
		if req.AssignedInspectorID == nil || *req.AssignedInspectorID != inspectorID {
			return nil, apperrors.Forbidden("You are not assigned to this request")
		}
		if req.Status.IsTerminal() {
			return nil, apperrors.InvalidState(
				"Request can no longer receive inspections. Current status: %s", req.Status)
		}
	}

	types, overall := computeRatings(in.Types)

	rec := models.InspectionRecord{
		TemplateID:    in.TemplateID,
		RequestID:     in.RequestID,
		InspectorID:   inspectorID,
		VehicleInfo:   in.VehicleInfo,
		Types:         types,
		OverallRating: overall,
		Status:        status,
	}
	if status.IsFinal() {
		now := time.Now().UTC()
		rec.CompletedAt = &now
	}

	if err := s.db.Create(&rec).Error; err != nil {
		return nil, err
	}

	if status.IsFinal() && in.RequestID != nil {
		if _, err := s.requests.CompleteForInspection(*in.RequestID, inspectorID, rec.ID); err != nil {
			return nil, err
		}
	}

	return &rec, nil
}

// Update modifies a draft record. The authoring inspector may replace
// the checklist contents (ratings are recomputed) and finalize the
// record, which advances a linked request to completed. Final records
// are immutable.
func (s *Service) Update(recordID uint, inspectorID string, in UpdateInput) (*models.InspectionRecord, error) {
	var rec models.InspectionRecord
	if err := s.db.First(&rec, recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Inspection not found")
		}
		return nil, err
	}

	if rec.InspectorID != inspectorID {
		return nil, apperrors.Forbidden("Only the authoring inspector can update this inspection")
	}
	if rec.Status.IsFinal() {
		return nil, apperrors.InvalidState(
			"Inspection can only be updated while in draft. Current status: %s", rec.Status)
	}

	if in.Types != nil {
		tpl, err := s.loadTemplate(rec.TemplateID)
		if err != nil {
			return nil, err
		}
		if err := validateTypes(tpl, in.Types); err != nil {
			return nil, err
		}
		rec.Types = in.Types
	}

	// Unconditional recomputation on every save
	rec.Types, rec.OverallRating = computeRatings(rec.Types)

	finalized := false
	if in.Status != "" {
		if !in.Status.IsValid() {
			return nil, apperrors.Validation("Unknown inspection status: %s", in.Status)
		}
		rec.Status = in.Status
		if in.Status.IsFinal() && rec.CompletedAt == nil {
			now := time.Now().UTC()
			rec.CompletedAt = &now
			finalized = true
		}
	}

	if err := s.db.Save(&rec).Error; err != nil {
		return nil, err
	}

	if finalized && rec.RequestID != nil {
		if _, err := s.requests.CompleteForInspection(*rec.RequestID, inspectorID, rec.ID); err != nil {
			return nil, err
		}
	}

	return &rec, nil
}

// Get loads a record, visible to admins and the authoring inspector
func (s *Service) Get(recordID uint, actorID, role string) (*models.InspectionRecord, error) {
	var rec models.InspectionRecord
	err := s.db.Preload("Inspector").Preload("Template").First(&rec, recordID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Inspection not found")
		}
		return nil, err
	}

	if role != models.RoleAdmin && rec.InspectorID != actorID {
		// Requesters may view the inspection linked to their own request
		if rec.RequestID != nil {
			var req models.InspectionRequest
			if err := s.db.First(&req, *rec.RequestID).Error; err == nil && req.RequesterID == actorID {
				return &rec, nil
			}
		}
		return nil, apperrors.Forbidden("You do not have access to this inspection")
	}

	return &rec, nil
}
