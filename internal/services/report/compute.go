package report

import (
	"math"
	"sort"
	"tidsregistrering/internal/models"
	"time"
)

const (
	topUsers       = 10
	workdayMinutes = 480
)

type Statistics struct {
	Count              int              `json:"count"`
	TotalMinutes       int              `json:"total_minutes"`
	Hours              int              `json:"hours"`
	Minutes            int              `json:"minutes"`
	HoursDecimal       float64          `json:"hours_decimal"`
	Workdays           float64          `json:"workdays"`
	Users              int              `json:"users"`
	AvgHoursPerUser    float64          `json:"avg_hours_per_user"`
	First              *time.Time       `json:"first,omitempty"`
	Last               *time.Time       `json:"last,omitempty"`
	TopUsers           []UserStat       `json:"top_users"`
	Departments        []DepartmentStat `json:"departments"`
	MostUsedDepartment string           `json:"most_used_department"`
	Months             []MonthStat      `json:"months"`
	Weekdays           []WeekdayStat    `json:"weekdays"`
}

type UserStat struct {
	Login         string    `json:"login"`
	Label         string    `json:"label"`
	Registrations int       `json:"registrations"`
	TotalMinutes  int       `json:"total_minutes"`
	Hours         int       `json:"hours"`
	Minutes       int       `json:"minutes"`
	LastActivity  time.Time `json:"last_activity"`
	Departments   int       `json:"departments"`
}

type DepartmentStat struct {
	Name          string  `json:"name"`
	Registrations int     `json:"registrations"`
	TotalMinutes  int     `json:"total_minutes"`
	Hours         int     `json:"hours"`
	Minutes       int     `json:"minutes"`
	Percent       float64 `json:"percent"`
	Users         int     `json:"users"`
}

type MonthStat struct {
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	Label         string `json:"label"`
	Registrations int    `json:"registrations"`
	TotalMinutes  int    `json:"total_minutes"`
	Hours         int    `json:"hours"`
	Users         int    `json:"users"`
}

type WeekdayStat struct {
	Day           time.Weekday `json:"day"`
	Label         string       `json:"label"`
	Registrations int          `json:"registrations"`
	TotalMinutes  int          `json:"total_minutes"`
	Hours         int          `json:"hours"`
}

// Compute aggregates regs. An empty input yields a zeroed report with the
// seven weekday buckets.
func Compute(regs []models.Registration, locale string) Statistics {
	st := Statistics{Weekdays: weekdays(regs, locale)}
	for _, r := range regs {
		st.TotalMinutes += r.Minutes
	}
	st.Count = len(regs)
	st.Hours, st.Minutes = st.TotalMinutes/60, st.TotalMinutes%60
	if st.Count == 0 || st.TotalMinutes == 0 {
		return st
	}

	st.HoursDecimal = round(float64(st.TotalMinutes)/60, 1)
	st.Workdays = round(float64(st.TotalMinutes)/workdayMinutes, 2)

	first, last := regs[0].RegisteredAt, regs[0].RegisteredAt
	for _, r := range regs[1:] {
		if r.RegisteredAt.Before(first) {
			first = r.RegisteredAt
		}
		if r.RegisteredAt.After(last) {
			last = r.RegisteredAt
		}
	}
	st.First, st.Last = &first, &last

	st.TopUsers, st.Users = users(regs)
	st.AvgHoursPerUser = round(float64(st.TotalMinutes)/float64(st.Users)/60, 1)
	st.Departments = departments(regs, st.TotalMinutes)
	st.MostUsedDepartment = st.Departments[0].Name
	st.Months = months(regs, locale)
	return st
}

func users(regs []models.Registration) ([]UserStat, int) {
	type acc struct {
		stat   UserStat
		latest time.Time
		depts  map[string]struct{}
	}
	byLogin := make(map[string]*acc)
	for _, r := range regs {
		a, ok := byLogin[r.Login]
		if !ok {
			a = &acc{stat: UserStat{Login: r.Login}, depts: make(map[string]struct{})}
			byLogin[r.Login] = a
		}
		a.stat.Registrations++
		a.stat.TotalMinutes += r.Minutes
		a.depts[r.Department] = struct{}{}
		if !ok || !r.RegisteredAt.Before(a.latest) {
			a.latest = r.RegisteredAt
			a.stat.Label = r.Label()
		}
	}

	out := make([]UserStat, 0, len(byLogin))
	for _, a := range byLogin {
		s := a.stat
		s.Hours, s.Minutes = s.TotalMinutes/60, s.TotalMinutes%60
		s.LastActivity = a.latest
		s.Departments = len(a.depts)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalMinutes != out[j].TotalMinutes {
			return out[i].TotalMinutes > out[j].TotalMinutes
		}
		return out[i].Login < out[j].Login
	})
	n := len(out)
	if len(out) > topUsers {
		out = out[:topUsers]
	}
	return out, n
}

func departments(regs []models.Registration, total int) []DepartmentStat {
	idx := make(map[string]int)
	logins := make(map[string]map[string]struct{})
	var out []DepartmentStat
	for _, r := range regs {
		i, ok := idx[r.Department]
		if !ok {
			i = len(out)
			idx[r.Department] = i
			out = append(out, DepartmentStat{Name: r.Department})
			logins[r.Department] = make(map[string]struct{})
		}
		out[i].Registrations++
		out[i].TotalMinutes += r.Minutes
		logins[r.Department][r.Login] = struct{}{}
	}
	for i := range out {
		d := &out[i]
		d.Hours, d.Minutes = d.TotalMinutes/60, d.TotalMinutes%60
		d.Users = len(logins[d.Name])
		if total > 0 {
			d.Percent = round(float64(d.TotalMinutes)/float64(total)*100, 1)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalMinutes != out[j].TotalMinutes {
			return out[i].TotalMinutes > out[j].TotalMinutes
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func months(regs []models.Registration, locale string) []MonthStat {
	type ym struct {
		year  int
		month time.Month
	}
	idx := make(map[ym]int)
	logins := make(map[ym]map[string]struct{})
	var out []MonthStat
	for _, r := range regs {
		t := r.RegisteredAt.Local()
		k := ym{t.Year(), t.Month()}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, MonthStat{Year: k.year, Month: int(k.month), Label: monthLabel(locale, k.year, k.month)})
			logins[k] = make(map[string]struct{})
		}
		out[i].Registrations++
		out[i].TotalMinutes += r.Minutes
		logins[k][r.Login] = struct{}{}
	}
	for i := range out {
		m := &out[i]
		m.Hours = m.TotalMinutes / 60
		m.Users = len(logins[ym{m.Year, time.Month(m.Month)}])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// weekdays returns Monday through Sunday.
func weekdays(regs []models.Registration, locale string) []WeekdayStat {
	out := make([]WeekdayStat, 7)
	for i := range out {
		d := time.Weekday((i + 1) % 7)
		out[i] = WeekdayStat{Day: d, Label: dayLabel(locale, d)}
	}
	for _, r := range regs {
		i := (int(r.RegisteredAt.Local().Weekday()) + 6) % 7
		out[i].Registrations++
		out[i].TotalMinutes += r.Minutes
	}
	for i := range out {
		out[i].Hours = out[i].TotalMinutes / 60
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
