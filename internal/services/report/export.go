package report

import (
	"fmt"
	"io"
	"tidsregistrering/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	sheetRegistrations = "Registrations"
	sheetUsers         = "Users"
	sheetDepartments   = "Departments"
	sheetMonths        = "Months"
	sheetWeekdays      = "Weekdays"
)

// WriteXLSX writes regs and their statistics as a workbook with one sheet
// per breakdown.
func WriteXLSX(w io.Writer, regs []models.Registration, st Statistics) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", sheetRegistrations); err != nil {
		return err
	}
	for _, name := range []string{sheetUsers, sheetDepartments, sheetMonths, sheetWeekdays} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %s: %w", name, err)
		}
	}

	regRows := make([][]any, 0, len(regs))
	for _, r := range regs {
		performed := ""
		if r.PerformedOn != nil {
			performed = r.PerformedOn.Format("2006-01-02")
		}
		regRows = append(regRows, []any{
			r.RegisteredAt.Local().Format("2006-01-02 15:04"),
			r.Label(),
			r.Login,
			r.Department,
			models.Deref(r.OrgUnit),
			models.Deref(r.CaseNumber),
			r.Minutes,
			performed,
			models.Deref(r.Note),
		})
	}

	userRows := make([][]any, 0, len(st.TopUsers))
	for _, u := range st.TopUsers {
		userRows = append(userRows, []any{u.Label, u.Login, u.Registrations, u.TotalMinutes, u.Departments, u.LastActivity.Local().Format("2006-01-02 15:04")})
	}
	deptRows := make([][]any, 0, len(st.Departments))
	for _, d := range st.Departments {
		deptRows = append(deptRows, []any{d.Name, d.Registrations, d.TotalMinutes, d.Users, d.Percent})
	}
	monthRows := make([][]any, 0, len(st.Months))
	for _, m := range st.Months {
		monthRows = append(monthRows, []any{m.Label, m.Registrations, m.TotalMinutes, m.Users})
	}
	dayRows := make([][]any, 0, len(st.Weekdays))
	for _, d := range st.Weekdays {
		dayRows = append(dayRows, []any{d.Label, d.Registrations, d.TotalMinutes})
	}

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{sheetRegistrations, []any{"Registered", "Name", "Login", "Department", "Org unit", "Case number", "Minutes", "Performed", "Note"}, regRows},
		{sheetUsers, []any{"Name", "Login", "Registrations", "Minutes", "Departments", "Last activity"}, userRows},
		{sheetDepartments, []any{"Department", "Registrations", "Minutes", "Users", "Percent"}, deptRows},
		{sheetMonths, []any{"Month", "Registrations", "Minutes", "Users"}, monthRows},
		{sheetWeekdays, []any{"Weekday", "Registrations", "Minutes"}, dayRows},
	}
	for _, sh := range sheets {
		if err := writeSheet(f, sh.name, sh.header, sh.rows, bold); err != nil {
			return fmt.Errorf("write sheet %s: %w", sh.name, err)
		}
	}
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 18)
}
