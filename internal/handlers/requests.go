package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/vinspect/vinspectgo/internal/middleware"
	"github.com/vinspect/vinspectgo/internal/models"
	"github.com/vinspect/vinspectgo/internal/services/lifecycle"
)

func pathID(req *http.Request) (uint, bool) {
	vars := mux.Vars(req)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// createRequest is the public intake endpoint
func (r *Router) createRequest(w http.ResponseWriter, req *http.Request) {
	var in lifecycle.CreateRequestInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	created, err := r.requests.Create(in)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func listFilterFromQuery(req *http.Request) lifecycle.ListFilter {
	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return lifecycle.ListFilter{
		Status: models.RequestStatus(q.Get("status")),
		Page:   page,
		Limit:  limit,
		SortBy: q.Get("sortBy"),
		Desc:   q.Get("order") != "asc",
	}
}

// listRequests dispatches by role: admins see everything, inspectors
// their assignments, users their own requests
func (r *Router) listRequests(w http.ResponseWriter, req *http.Request) {
	userID, role := middleware.Identity(req)
	filter := listFilterFromQuery(req)

	var (
		reqs  []models.InspectionRequest
		total int64
		err   error
	)
	switch role {
	case models.RoleAdmin:
		reqs, total, err = r.requests.ListAll(filter)
	case models.RoleInspector:
		reqs, total, err = r.requests.ListForInspector(userID, filter)
	default:
		reqs, total, err = r.requests.ListForRequester(userID, filter)
	}
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"requests": reqs,
		"total":    total,
	})
}

// getRequest returns a single request, subject to visibility rules
func (r *Router) getRequest(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	userID, role := middleware.Identity(req)
	found, err := r.requests.Get(id, userID, role)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, found)
}

// updateRequest applies a partial update while the request is pending
func (r *Router) updateRequest(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	var in lifecycle.UpdateRequestInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	userID, role := middleware.Identity(req)
	updated, err := r.requests.Update(id, userID, role == models.RoleAdmin, in)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// assignInspector assigns or reassigns an inspector (admin)
func (r *Router) assignInspector(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	var body struct {
		InspectorID string `json:"inspectorId"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.InspectorID == "" {
		respondError(w, http.StatusBadRequest, "inspectorId is required")
		return
	}

	updated, err := r.requests.Assign(id, body.InspectorID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// approveRequest stamps admin approval on a pending request (admin)
func (r *Router) approveRequest(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	updated, err := r.requests.Approve(id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// rejectRequest cancels a request (admin)
func (r *Router) rejectRequest(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	// Body is optional for rejections
	_ = json.NewDecoder(req.Body).Decode(&body)

	updated, err := r.requests.Reject(id, body.Reason)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// startInspection moves a request to in_progress (assigned inspector)
func (r *Router) startInspection(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	userID, _ := middleware.Identity(req)
	updated, err := r.requests.Start(id, userID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}
