package handlers

import (
	"net/http"
	"tidsregistrering/internal/auth"
	"tidsregistrering/internal/directory"
	"tidsregistrering/internal/services/registration"

	"go.uber.org/zap"
)

type registrationReq struct {
	Minutes     int    `json:"minutes"`
	Department  string `json:"department"`
	Note        string `json:"note"`
	CaseNumber  string `json:"case_number"`
	PerformedOn string `json:"performed_on"`
}

// updateRegistrationReq leaves absent fields untouched; an empty
// performed_on clears the date.
type updateRegistrationReq struct {
	Minutes     *int    `json:"minutes"`
	Department  *string `json:"department"`
	Note        *string `json:"note"`
	CaseNumber  *string `json:"case_number"`
	PerformedOn *string `json:"performed_on"`
}

func ListMyRegistrations(svc *registration.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regs, err := svc.ListForOwner(r.Context(), auth.Identity(r.Context()))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, regs)
	}
}

func RegistrationSummary(svc *registration.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := svc.SummaryForOwner(r.Context(), auth.Identity(r.Context()))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, sum)
	}
}

// CreateRegistration records an entry for the caller, caching the caller's
// directory display name and org unit on the row.
func CreateRegistration(svc *registration.Service, dir directory.Directory, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registrationReq
		if !decodeJSON(w, r, &req) {
			return
		}
		performed, err := parseDate(req.PerformedOn)
		if err != nil {
			badRequest(w, "performed_on must be YYYY-MM-DD")
			return
		}
		identity := auth.Identity(r.Context())
		profile := directory.Resolve(r.Context(), dir, identity, lg)
		reg, err := svc.Create(r.Context(), registration.CreateInput{
			Owner:       identity,
			DisplayName: profile.DisplayName,
			OrgUnit:     profile.OrgUnit,
			Minutes:     req.Minutes,
			Department:  req.Department,
			Note:        req.Note,
			CaseNumber:  req.CaseNumber,
			PerformedOn: performed,
		})
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, reg)
	}
}

func UpdateRegistration(svc *registration.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		var req updateRegistrationReq
		if !decodeJSON(w, r, &req) {
			return
		}
		in := registration.UpdateInput{
			Minutes:    req.Minutes,
			Department: req.Department,
			Note:       req.Note,
			CaseNumber: req.CaseNumber,
		}
		if req.PerformedOn != nil {
			performed, err := parseDate(*req.PerformedOn)
			if err != nil {
				badRequest(w, "performed_on must be YYYY-MM-DD")
				return
			}
			in.PerformedOn = performed
			in.ClearPerformedOn = performed == nil
		}
		reg, err := svc.Update(r.Context(), auth.Identity(r.Context()), id, in)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, reg)
	}
}

func DeleteRegistration(svc *registration.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), auth.Identity(r.Context()), id); err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{"deleted": true})
	}
}
