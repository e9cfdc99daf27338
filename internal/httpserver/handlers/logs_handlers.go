package handlers

import (
	"net/http"
	"strconv"
	"tidsregistrering/internal/services/audit"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func AuditLogs(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		logs, err := audit.Recent(r.Context(), db, limit)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, logs)
	}
}
