package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vinspect/vinspectgo/internal/models"
)

// listTemplates returns active checklist templates
func (r *Router) listTemplates(w http.ResponseWriter, req *http.Request) {
	var templates []models.ChecklistTemplate
	if err := r.db.Where("is_active = ?", true).Find(&templates).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch templates")
		return
	}
	respondJSON(w, http.StatusOK, templates)
}

// getTemplate returns a single template by ID
func (r *Router) getTemplate(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid template ID")
		return
	}

	var tpl models.ChecklistTemplate
	if err := r.db.First(&tpl, id).Error; err != nil {
		respondError(w, http.StatusNotFound, "Template not found")
		return
	}
	respondJSON(w, http.StatusOK, tpl)
}

// createTemplate creates a checklist template (admin)
func (r *Router) createTemplate(w http.ResponseWriter, req *http.Request) {
	var tpl models.ChecklistTemplate
	if err := json.NewDecoder(req.Body).Decode(&tpl); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if tpl.Name == "" || len(tpl.Types) == 0 {
		respondError(w, http.StatusBadRequest, "Template name and types are required")
		return
	}
	for _, t := range tpl.Types {
		if t.TypeName == "" {
			respondError(w, http.StatusBadRequest, "Every type needs a typeName")
			return
		}
	}

	tpl.ID = 0
	if tpl.Version == 0 {
		tpl.Version = 1
	}
	tpl.IsActive = true

	if err := r.db.Create(&tpl).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create template")
		return
	}
	respondJSON(w, http.StatusCreated, tpl)
}
