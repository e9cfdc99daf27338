package report

import (
	"fmt"
	"sort"
	"strings"
	"tidsregistrering/internal/apperr"
	"tidsregistrering/internal/collation"
	"tidsregistrering/internal/models"
)

type SortKey int

const (
	SortDate SortKey = iota
	SortUser
	SortDepartment
	SortDuration
)

var sortKeyNames = map[SortKey]string{
	SortDate:       "date",
	SortUser:       "user",
	SortDepartment: "department",
	SortDuration:   "duration",
}

// Danish column names used by older bookmarked report links.
var sortKeyAliases = map[string]SortKey{
	"dato":     SortDate,
	"bruger":   SortUser,
	"afdeling": SortDepartment,
	"tid":      SortDuration,
}

func (k SortKey) String() string {
	if s, ok := sortKeyNames[k]; ok {
		return s
	}
	return fmt.Sprintf("SortKey(%d)", int(k))
}

// ParseSortKey maps a query value to a SortKey. The empty string selects
// SortDate; anything unknown is rejected.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortDate, nil
	}
	for k, name := range sortKeyNames {
		if name == s {
			return k, nil
		}
	}
	if k, ok := sortKeyAliases[s]; ok {
		return k, nil
	}
	return 0, apperr.Validation("unknown sort key %q", s).With("sort", "one of date, user, department, duration")
}

// Sort orders regs in place by key. Ties fall back to newest first.
func Sort(regs []models.Registration, key SortKey, desc bool, locale string) {
	col := collation.New(locale)
	var cmp func(a, b models.Registration) int
	switch key {
	case SortUser:
		cmp = func(a, b models.Registration) int {
			return col.CompareString(models.Deref(a.DisplayName), models.Deref(b.DisplayName))
		}
	case SortDepartment:
		cmp = func(a, b models.Registration) int { return col.CompareString(a.Department, b.Department) }
	case SortDuration:
		cmp = func(a, b models.Registration) int { return a.Minutes - b.Minutes }
	default:
		cmp = func(a, b models.Registration) int { return a.RegisteredAt.Compare(b.RegisteredAt) }
	}
	sort.SliceStable(regs, func(i, j int) bool {
		c := cmp(regs[i], regs[j])
		if c == 0 {
			if !regs[i].RegisteredAt.Equal(regs[j].RegisteredAt) {
				return regs[i].RegisteredAt.After(regs[j].RegisteredAt)
			}
			return regs[i].ID > regs[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}
