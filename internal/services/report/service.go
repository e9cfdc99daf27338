// Package report filters, sorts and aggregates registrations for the
// overview and statistics views. Nothing is cached; every call reads the
// store.
package report

import (
	"context"
	"fmt"
	"tidsregistrering/internal/collation"
	"tidsregistrering/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	locale string
	lg     *zap.SugaredLogger
}

func NewService(db *gorm.DB, locale string, lg *zap.SugaredLogger) *Service {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &Service{db: db, locale: locale, lg: lg}
}

func (s *Service) Locale() string { return s.locale }

// Options lists the values offered in the report filter form.
type Options struct {
	Departments []string `json:"departments"`
	Users       []string `json:"users"`
	OrgUnits    []string `json:"org_units"`
	CaseNumbers []string `json:"case_numbers"`
}

type Overview struct {
	Registrations []models.Registration `json:"registrations"`
	Count         int                   `json:"count"`
	TotalMinutes  int                   `json:"total_minutes"`
	HoursDecimal  float64               `json:"hours_decimal"`
	Sort          string                `json:"sort"`
	Descending    bool                  `json:"descending"`
	Options       Options               `json:"options"`
}

// Load returns the registrations matching f, newest first.
func (s *Service) Load(ctx context.Context, f Filter) ([]models.Registration, error) {
	var rows []models.Registration
	err := f.scope(s.db.WithContext(ctx)).
		Order("registered_at desc").Order("id desc").
		Find(&rows).Error
	if err != nil {
		s.lg.Errorw("load report registrations failed", "error", err)
		return nil, fmt.Errorf("load registrations: %w", err)
	}
	out := rows[:0]
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) Overview(ctx context.Context, f Filter, key SortKey, desc bool) (Overview, error) {
	regs, err := s.Load(ctx, f)
	if err != nil {
		return Overview{}, err
	}
	Sort(regs, key, desc, s.locale)

	ov := Overview{Registrations: regs, Count: len(regs), Sort: key.String(), Descending: desc}
	for _, r := range regs {
		ov.TotalMinutes += r.Minutes
	}
	ov.HoursDecimal = round(float64(ov.TotalMinutes)/60, 1)
	if ov.Options, err = s.Options(ctx); err != nil {
		return Overview{}, err
	}
	return ov, nil
}

func (s *Service) Statistics(ctx context.Context, f Filter) (Statistics, error) {
	regs, err := s.Load(ctx, f)
	if err != nil {
		return Statistics{}, err
	}
	return Compute(regs, s.locale), nil
}

// Options falls back to the department names found on registrations when
// the master list has no active rows.
func (s *Service) Options(ctx context.Context) (Options, error) {
	var opts Options
	db := s.db.WithContext(ctx)
	err := db.Model(&models.Department{}).Where("active = ?", true).Pluck("name", &opts.Departments).Error
	if err == nil && len(opts.Departments) == 0 {
		err = distinct(db, "department", &opts.Departments)
	}
	if err == nil {
		err = distinct(db, "display_name", &opts.Users)
	}
	if err == nil {
		err = distinct(db, "org_unit", &opts.OrgUnits)
	}
	if err == nil {
		err = distinct(db, "case_number", &opts.CaseNumbers)
	}
	if err != nil {
		s.lg.Errorw("load report options failed", "error", err)
		return Options{}, fmt.Errorf("load report options: %w", err)
	}
	for _, list := range [][]string{opts.Departments, opts.Users, opts.OrgUnits} {
		collation.Sort(s.locale, list)
	}
	return opts, nil
}

func distinct(db *gorm.DB, column string, dest *[]string) error {
	return db.Model(&models.Registration{}).
		Where(column+" IS NOT NULL AND "+column+" <> ''").
		Distinct().
		Order(column).
		Pluck(column, dest).Error
}
