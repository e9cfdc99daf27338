package handlers

import (
	"net/http"
	"tidsregistrering/internal/auth"
	"tidsregistrering/internal/services/massrename"

	"go.uber.org/zap"
)

type massRenameReq struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

func PreviewMassRename(svc *massrename.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req massRenameReq
		if !decodeJSON(w, r, &req) {
			return
		}
		p, err := svc.Preview(r.Context(), req.OldName, req.NewName)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, p)
	}
}

func ExecuteMassRename(svc *massrename.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req massRenameReq
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.Execute(r.Context(), req.OldName, req.NewName, auth.Identity(r.Context()))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, res)
	}
}
