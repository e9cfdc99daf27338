package report

import (
	"bytes"
	"context"
	"testing"
	"tidsregistrering/internal/apperr"
	"tidsregistrering/internal/db"
	"tidsregistrering/internal/models"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.Local)
}

func reg(id int64, when time.Time, login, name, dept string, minutes int) models.Registration {
	return models.Registration{
		ID:           id,
		RegisteredAt: when,
		Minutes:      minutes,
		Department:   dept,
		Login:        login,
		DisplayName:  models.Ptr(name),
		CreatedAt:    when,
	}
}

// 2024-03-04 is a Monday.
func sample() []models.Registration {
	return []models.Registration{
		reg(1, at(2024, 3, 4, 9), "u1", "Anna", "IT", 90),
		reg(2, at(2024, 3, 5, 9), "u1", "Anna", "Drift", 30),
		reg(3, at(2024, 4, 7, 9), "u2", "Bo", "IT", 60),
		reg(4, at(2024, 4, 8, 9), "u3", "Carl", "IT", 60),
	}
}

func TestComputeEmptyIsZeroed(t *testing.T) {
	st := Compute(nil, "da")

	assert.Zero(t, st.Count)
	assert.Zero(t, st.TotalMinutes)
	assert.Empty(t, st.Departments)
	assert.Empty(t, st.TopUsers)
	assert.Nil(t, st.First)
	require.Len(t, st.Weekdays, 7)
	assert.Equal(t, "Mandag", st.Weekdays[0].Label)
	assert.Equal(t, "Søndag", st.Weekdays[6].Label)
}

func TestComputeTotals(t *testing.T) {
	st := Compute(sample(), "da")

	assert.Equal(t, 4, st.Count)
	assert.Equal(t, 240, st.TotalMinutes)
	assert.Equal(t, 4, st.Hours)
	assert.Equal(t, 0, st.Minutes)
	assert.Equal(t, 4.0, st.HoursDecimal)
	assert.Equal(t, 0.5, st.Workdays)
	assert.Equal(t, 3, st.Users)
	assert.Equal(t, 1.3, st.AvgHoursPerUser)
	assert.Equal(t, at(2024, 3, 4, 9), *st.First)
	assert.Equal(t, at(2024, 4, 8, 9), *st.Last)
	assert.Equal(t, "IT", st.MostUsedDepartment)
}

func TestComputeDepartmentShares(t *testing.T) {
	st := Compute(sample(), "da")

	require.Len(t, st.Departments, 2)
	assert.Equal(t, DepartmentStat{Name: "IT", Registrations: 3, TotalMinutes: 210, Hours: 3, Minutes: 30, Percent: 87.5, Users: 3}, st.Departments[0])
	assert.Equal(t, 12.5, st.Departments[1].Percent)
}

func TestComputeTopUsers(t *testing.T) {
	regs := sample()
	regs = append(regs, reg(5, at(2024, 4, 9, 9), "u1", "Anna Jensen", "IT", 15))
	st := Compute(regs, "da")

	require.Len(t, st.TopUsers, 3)
	top := st.TopUsers[0]
	assert.Equal(t, "u1", top.Login)
	assert.Equal(t, "Anna Jensen", top.Label)
	assert.Equal(t, 3, top.Registrations)
	assert.Equal(t, 135, top.TotalMinutes)
	assert.Equal(t, 2, top.Departments)
	assert.Equal(t, at(2024, 4, 9, 9), top.LastActivity)
}

func TestComputeTopUsersCapsAtTen(t *testing.T) {
	var regs []models.Registration
	for i := 0; i < 12; i++ {
		login := string(rune('a' + i))
		regs = append(regs, reg(int64(i+1), at(2024, 1, 2, 9), login, login, "IT", 10+i))
	}
	st := Compute(regs, "en")
	assert.Len(t, st.TopUsers, 10)
	assert.Equal(t, 12, st.Users)
	assert.Equal(t, "l", st.TopUsers[0].Login)
}

func TestComputeMonthsAndWeekdays(t *testing.T) {
	st := Compute(sample(), "da")

	require.Len(t, st.Months, 2)
	assert.Equal(t, "marts 2024", st.Months[0].Label)
	assert.Equal(t, 1, st.Months[0].Users)
	assert.Equal(t, "april 2024", st.Months[1].Label)
	assert.Equal(t, 2, st.Months[1].Users)

	require.Len(t, st.Weekdays, 7)
	assert.Equal(t, 2, st.Weekdays[0].Registrations) // Monday
	assert.Equal(t, 1, st.Weekdays[1].Registrations) // Tuesday
	assert.Equal(t, 1, st.Weekdays[6].Registrations) // Sunday

	en := Compute(sample(), "en")
	assert.Equal(t, "March 2024", en.Months[0].Label)
	assert.Equal(t, "Monday", en.Weekdays[0].Label)
}

func TestFilterMatch(t *testing.T) {
	r := reg(1, at(2024, 3, 4, 23), "u1", "Anna", "IT", 30)
	r.CaseNumber = models.Ptr("SAG-2024-17")
	r.OrgUnit = models.Ptr("Digitalisering")
	day := at(2024, 3, 4, 0)
	next := at(2024, 3, 5, 0)

	tests := []struct {
		name string
		f    Filter
		want bool
	}{
		{"empty", Filter{}, true},
		{"same day bounds", Filter{From: &day, To: &day}, true},
		{"after range", Filter{To: &day}, true},
		{"before from", Filter{From: &next}, false},
		{"case substring", Filter{CaseNumber: "2024"}, true},
		{"case is sensitive", Filter{CaseNumber: "sag"}, false},
		{"department", Filter{Department: "Drift"}, false},
		{"user", Filter{User: "Anna"}, true},
		{"org unit", Filter{OrgUnit: "Digitalisering"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.f.Match(r))
		})
	}
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortDate, k)

	k, err = ParseSortKey("Duration")
	require.NoError(t, err)
	assert.Equal(t, SortDuration, k)

	k, err = ParseSortKey("afdeling")
	require.NoError(t, err)
	assert.Equal(t, SortDepartment, k)

	_, err = ParseSortKey("salary")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSort(t *testing.T) {
	ids := func(regs []models.Registration) []int64 {
		out := make([]int64, len(regs))
		for i, r := range regs {
			out[i] = r.ID
		}
		return out
	}

	regs := sample()
	Sort(regs, SortDate, true, "da")
	assert.Equal(t, []int64{4, 3, 2, 1}, ids(regs))

	Sort(regs, SortDuration, false, "da")
	assert.Equal(t, []int64{2, 4, 3, 1}, ids(regs))

	Sort(regs, SortUser, false, "da")
	assert.Equal(t, []int64{2, 1, 3, 4}, ids(regs))

	Sort(regs, SortDepartment, true, "da")
	assert.Equal(t, []int64{4, 3, 1, 2}, ids(regs))
}

func TestServiceOverviewAndStatistics(t *testing.T) {
	gdb := db.OpenTest(t)
	for _, r := range sample() {
		r.ID = 0
		r.OrgUnit = models.Ptr("Digitalisering")
		require.NoError(t, gdb.Create(&r).Error)
	}
	require.NoError(t, gdb.Create(&models.Department{Name: "IT", Active: true, CreatedAt: time.Now()}).Error)
	svc := NewService(gdb, "da", nil)
	ctx := context.Background()

	ov, err := svc.Overview(ctx, Filter{Department: "IT"}, SortDuration, true)
	require.NoError(t, err)
	assert.Equal(t, 3, ov.Count)
	assert.Equal(t, 210, ov.TotalMinutes)
	assert.Equal(t, 3.5, ov.HoursDecimal)
	assert.Equal(t, 90, ov.Registrations[0].Minutes)
	assert.Equal(t, "duration", ov.Sort)
	assert.Equal(t, []string{"IT"}, ov.Options.Departments)
	assert.Equal(t, []string{"Anna", "Bo", "Carl"}, ov.Options.Users)
	assert.Equal(t, []string{"Digitalisering"}, ov.Options.OrgUnits)

	st, err := svc.Statistics(ctx, Filter{Department: "Ukendt"})
	require.NoError(t, err)
	assert.Zero(t, st.Count)
	assert.Empty(t, st.Departments)
}

func TestWriteXLSX(t *testing.T) {
	regs := sample()
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, regs, Compute(regs, "da")))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetRegistrations, sheetUsers, sheetDepartments, sheetMonths, sheetWeekdays}, f.GetSheetList())

	rows, err := f.GetRows(sheetRegistrations)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
	assert.Equal(t, "Department", rows[0][3])

	days, err := f.GetRows(sheetWeekdays)
	require.NoError(t, err)
	assert.Len(t, days, 8)
	assert.Equal(t, "Mandag", days[1][0])
}

func TestLocaleLabels(t *testing.T) {
	assert.Equal(t, "december 2023", monthLabel("da", 2023, time.December))
	assert.Equal(t, "May 2024", monthLabel("en", 2024, time.May))
	assert.Equal(t, "januar 2025", monthLabel("fr", 2025, time.January))

	da := []string{"Søndag", "Mandag", "Tirsdag", "Onsdag", "Torsdag", "Fredag", "Lørdag"}
	for d, want := range da {
		assert.Equal(t, want, dayLabel("da", time.Weekday(d)))
	}
	assert.Equal(t, "Saturday", dayLabel("en", time.Saturday))
}
