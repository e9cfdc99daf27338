package handlers

import (
	"net/http"
	"tidsregistrering/internal/auth"
	"tidsregistrering/internal/services/administrator"

	"go.uber.org/zap"
)

type administratorReq struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	Active      *bool  `json:"active,omitempty"`
	Note        string `json:"note"`
}

func (a administratorReq) input() administrator.Input {
	return administrator.Input{
		Login:       a.Login,
		DisplayName: a.DisplayName,
		Active:      a.Active == nil || *a.Active,
		Note:        a.Note,
	}
}

func ListAdministrators(svc *administrator.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admins, err := svc.List(r.Context())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, admins)
	}
}

func CreateAdministrator(svc *administrator.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req administratorReq
		if !decodeJSON(w, r, &req) {
			return
		}
		a, err := svc.Create(r.Context(), req.input(), auth.Identity(r.Context()))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, a)
	}
}

func UpdateAdministrator(svc *administrator.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		var req administratorReq
		if !decodeJSON(w, r, &req) {
			return
		}
		a, err := svc.Update(r.Context(), id, req.input(), auth.Identity(r.Context()))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, a)
	}
}

func DeleteAdministrator(svc *administrator.Service, lg *zap.SugaredLogger) http.HandlerFunc {
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

func LookupAdministrator(svc *administrator.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Login string `json:"login"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.Lookup(r.Context(), req.Login)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, res)
	}
}
