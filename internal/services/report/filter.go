package report

import (
	"strings"
	"tidsregistrering/internal/models"
	"time"

	"gorm.io/gorm"
)

// Filter narrows the registrations a report covers. Empty fields do not
// filter. From and To are inclusive calendar days in local time.
type Filter struct {
	From       *time.Time
	To         *time.Time
	Department string
	User       string
	OrgUnit    string
	CaseNumber string
}

// scope applies the exact-match filters in SQL.
func (f Filter) scope(q *gorm.DB) *gorm.DB {
	if f.Department != "" {
		q = q.Where("department = ?", f.Department)
	}
	if f.User != "" {
		q = q.Where("display_name = ?", f.User)
	}
	if f.OrgUnit != "" {
		q = q.Where("org_unit = ?", f.OrgUnit)
	}
	return q
}

// Match applies every filter to a single registration. The case number
// filter is a case-sensitive substring match.
func (f Filter) Match(r models.Registration) bool {
	day := startOfDay(r.RegisteredAt.Local())
	if f.From != nil && day.Before(startOfDay(f.From.Local())) {
		return false
	}
	if f.To != nil && day.After(startOfDay(f.To.Local())) {
		return false
	}
	if f.Department != "" && r.Department != f.Department {
		return false
	}
	if f.User != "" && models.Deref(r.DisplayName) != f.User {
		return false
	}
	if f.OrgUnit != "" && models.Deref(r.OrgUnit) != f.OrgUnit {
		return false
	}
	if f.CaseNumber != "" && !strings.Contains(models.Deref(r.CaseNumber), f.CaseNumber) {
		return false
	}
	return true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
