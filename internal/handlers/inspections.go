package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vinspect/vinspectgo/internal/middleware"
	"github.com/vinspect/vinspectgo/internal/models"
	"github.com/vinspect/vinspectgo/internal/services/inspection"
	"github.com/vinspect/vinspectgo/internal/services/report"
)

// createInspection creates an inspection record with computed ratings
func (r *Router) createInspection(w http.ResponseWriter, req *http.Request) {
	var in inspection.CreateInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	userID, _ := middleware.Identity(req)
	rec, err := r.inspections.Create(userID, in)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

// updateInspection updates a draft record, recomputing ratings
func (r *Router) updateInspection(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid inspection ID")
		return
	}

	var in inspection.UpdateInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	userID, _ := middleware.Identity(req)
	rec, err := r.inspections.Update(id, userID, in)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// getInspection returns a single inspection record
func (r *Router) getInspection(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid inspection ID")
		return
	}

	userID, role := middleware.Identity(req)
	rec, err := r.inspections.Get(id, userID, role)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// downloadReport renders the inspection report PDF
func (r *Router) downloadReport(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid inspection ID")
		return
	}

	userID, role := middleware.Identity(req)
	rec, err := r.inspections.Get(id, userID, role)
	if err != nil {
		respondAppError(w, err)
		return
	}

	// Reports only exist for inspections linked to a request
	if rec.RequestID == nil {
		respondError(w, http.StatusNotFound, "Inspection is not linked to a request")
		return
	}
	linked, err := r.requests.Get(*rec.RequestID, userID, role)
	if err != nil {
		respondAppError(w, err)
		return
	}

	pdf, err := report.Generate(linked, rec)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s.pdf", linked.RequestID))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// listInspectors returns the inspector roster for assignment (admin)
func (r *Router) listInspectors(w http.ResponseWriter, req *http.Request) {
	var inspectors []models.User
	err := r.db.Where("role = ?", models.RoleInspector).
		Order("assigned ASC, username ASC").
		Find(&inspectors).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch inspectors")
		return
	}
	respondJSON(w, http.StatusOK, inspectors)
}
