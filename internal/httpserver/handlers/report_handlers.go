package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"tidsregistrering/internal/services/report"
	"time"

	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func parseFilter(r *http.Request) (report.Filter, error) {
	q := r.URL.Query()
	from, err := parseDate(q.Get("from"))
	if err != nil {
		return report.Filter{}, errors.New("from must be YYYY-MM-DD")
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		return report.Filter{}, errors.New("to must be YYYY-MM-DD")
	}
	return report.Filter{
		From:       from,
		To:         to,
		Department: q.Get("department"),
		User:       q.Get("user"),
		OrgUnit:    q.Get("org_unit"),
		CaseNumber: q.Get("case_number"),
	}, nil
}

func ReportOverview(svc *report.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		key, err := report.ParseSortKey(r.URL.Query().Get("sort"))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		desc := true
		if v := r.URL.Query().Get("desc"); v != "" {
			if desc, err = strconv.ParseBool(v); err != nil {
				badRequest(w, "desc must be true or false")
				return
			}
		}
		ov, err := svc.Overview(r.Context(), f, key, desc)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, ov)
	}
}

func ReportStatistics(svc *report.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		st, err := svc.Statistics(r.Context(), f)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		opts, err := svc.Options(r.Context())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{"statistics": st, "options": opts})
	}
}

func ReportStatisticsXLSX(svc *report.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		regs, err := svc.Load(r.Context(), f)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		var buf bytes.Buffer
		if err := report.WriteXLSX(&buf, regs, report.Compute(regs, svc.Locale())); err != nil {
			respondError(w, r, lg, err)
			return
		}
		name := "statistics-" + time.Now().Format("2006-01-02") + ".xlsx"
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		_, _ = buf.WriteTo(w)
	}
}
