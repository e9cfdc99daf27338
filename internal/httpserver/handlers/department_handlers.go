package handlers

import (
	"net/http"
	"tidsregistrering/internal/auth"
	"tidsregistrering/internal/services/department"

	"go.uber.org/zap"
)

type departmentReq struct {
	Name   string `json:"name"`
	Active *bool  `json:"active,omitempty"`
}

// active defaults to true when omitted.
func (d departmentReq) active() bool {
	return d.Active == nil || *d.Active
}

// ActiveDepartments lists the names offered on the registration form.
func ActiveDepartments(svc *department.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := svc.ActiveNames(r.Context())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, names)
	}
}

func ListDepartments(svc *department.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, list)
	}
}

func CreateDepartment(svc *department.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req departmentReq
		if !decodeJSON(w, r, &req) {
			return
		}
		d, err := svc.Create(r.Context(), req.Name, req.active(), auth.Identity(r.Context()))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, d)
	}
}

func UpdateDepartment(svc *department.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		var req departmentReq
		if !decodeJSON(w, r, &req) {
			return
		}
		d, err := svc.Update(r.Context(), id, req.Name, req.active(), auth.Identity(r.Context()))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, d)
	}
}

func DeleteDepartment(svc *department.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), id, auth.Identity(r.Context())); err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{"deleted": true})
	}
}
