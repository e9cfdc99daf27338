package handlers

import (
	"net/http"
	"tidsregistrering/internal/auth"
	"tidsregistrering/internal/directory"

	"go.uber.org/zap"
)

func Me(dir directory.Directory, admins auth.AdminChecker, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := auth.Identity(r.Context())
		p := directory.Resolve(r.Context(), dir, identity, lg)
		respondJSON(w, map[string]any{
			"identity":     p.Identity,
			"display_name": p.DisplayName,
			"org_unit":     p.OrgUnit,
			"is_admin":     admins.IsAdmin(r.Context(), identity),
		})
	}
}
