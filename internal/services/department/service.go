// Package department maintains the master list of department names offered
// for selection. Renames supersede rows instead of editing them in place.
package department

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"tidsregistrering/internal/apperr"
	"tidsregistrering/internal/collation"
	"tidsregistrering/internal/models"
	"tidsregistrering/internal/services/audit"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxName = 100

type Service struct {
	db     *gorm.DB
	locale string
	lg     *zap.SugaredLogger
	now    func() time.Time
}

func NewService(db *gorm.DB, locale string, lg *zap.SugaredLogger) *Service {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &Service{db: db, locale: locale, lg: lg, now: time.Now}
}

// Usage is a master row with the number of registrations carrying its name.
type Usage struct {
	models.Department
	Registrations int64 `json:"registrations"`
}

func (s *Service) List(ctx context.Context) ([]Usage, error) {
	var depts []models.Department
	if err := s.db.WithContext(ctx).Find(&depts).Error; err != nil {
		s.lg.Errorw("list departments failed", "error", err)
		return nil, fmt.Errorf("list departments: %w", err)
	}

	var counts []struct {
		Department string
		Count      int64
	}
	err := s.db.WithContext(ctx).Model(&models.Registration{}).
		Select("department, COUNT(*) AS count").
		Group("department").
		Scan(&counts).Error
	if err != nil {
		s.lg.Errorw("count department usage failed", "error", err)
		return nil, fmt.Errorf("count department usage: %w", err)
	}
	byName := make(map[string]int64, len(counts))
	for _, c := range counts {
		byName[c.Department] = c.Count
	}

	out := make([]Usage, 0, len(depts))
	for _, d := range depts {
		out = append(out, Usage{Department: d, Registrations: byName[d.Name]})
	}
	col := collation.New(s.locale)
	sort.SliceStable(out, func(i, j int) bool {
		return col.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out, nil
}

// ActiveNames returns the names offered on the registration form. The seed
// list stands in when no active master rows exist.
func (s *Service) ActiveNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&models.Department{}).
		Where("active = ?", true).
		Pluck("name", &names).Error
	if err != nil {
		s.lg.Errorw("list active departments failed", "error", err)
		return nil, fmt.Errorf("list active departments: %w", err)
	}
	if len(names) == 0 {
		names = append([]string(nil), models.DefaultDepartments...)
	}
	collation.Sort(s.locale, names)
	return names, nil
}

func (s *Service) Create(ctx context.Context, name string, active bool, actor string) (models.Department, error) {
	name = strings.TrimSpace(name)
	if vErr := validateName(name); vErr != nil {
		return models.Department{}, vErr
	}

	now := s.now()
	dept := models.Department{Name: name, Active: active, CreatedAt: now, CreatedBy: models.Ptr(actor)}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findByKey(tx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return duplicate(existing.Name)
		}
		if err := tx.Create(&dept).Error; err != nil {
			return err
		}
		return audit.Record(tx, audit.Entry{
			Actor:      actor,
			Action:     audit.ActionDepartmentCreated,
			TargetType: audit.TargetDepartment,
			TargetID:   dept.ID,
			Message:    fmt.Sprintf("Department %q created (active: %t)", dept.Name, dept.Active),
		}, now)
	})
	if err != nil {
		return models.Department{}, s.fail("create", actor, 0, err)
	}
	s.lg.Infow("department created", "actor", actor, "id", dept.ID, "name", dept.Name, "active", dept.Active)
	return dept, nil
}

// Update toggles the active flag when name matches the current name, ignoring
// case. Otherwise the current row is deactivated and a row named name is
// created or reactivated; registrations keep their stored names.
func (s *Service) Update(ctx context.Context, id int64, name string, active bool, actor string) (models.Department, error) {
	name = strings.TrimSpace(name)
	if vErr := validateName(name); vErr != nil {
		return models.Department{}, vErr
	}

	now := s.now()
	var result models.Department
	superseded := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Department
		if err := tx.First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("department %d not found", id)
			}
			return err
		}

		if models.Key(name) == current.NameKey {
			current.Active = active
			stamp(&current, actor, now)
			if err := tx.Save(&current).Error; err != nil {
				return err
			}
			result = current
			return audit.Record(tx, audit.Entry{
				Actor:      actor,
				Action:     audit.ActionDepartmentStatus,
				TargetType: audit.TargetDepartment,
				TargetID:   current.ID,
				Message:    fmt.Sprintf("Department %q active set to %t", current.Name, active),
			}, now)
		}

		existing, err := findByKey(tx, name)
		if err != nil {
			return err
		}
		if existing != nil && existing.Active {
			return duplicate(existing.Name)
		}

		current.Active = false
		stamp(&current, actor, now)
		if err := tx.Save(&current).Error; err != nil {
			return err
		}

		if existing != nil {
			existing.Name = name
			existing.Active = active
			stamp(existing, actor, now)
			if err := tx.Save(existing).Error; err != nil {
				return err
			}
			result = *existing
		} else {
			result = models.Department{Name: name, Active: active, CreatedAt: now, CreatedBy: models.Ptr(actor)}
			if err := tx.Create(&result).Error; err != nil {
				return err
			}
		}
		superseded = true
		return audit.Record(tx, audit.Entry{
			Actor:      actor,
			Action:     audit.ActionDepartmentSuperseded,
			TargetType: audit.TargetDepartment,
			TargetID:   current.ID,
			Message:    fmt.Sprintf("Department %q superseded by %q", current.Name, result.Name),
			Metadata:   map[string]any{"old_id": current.ID, "new_id": result.ID, "reactivated": existing != nil},
		}, now)
	})
	if err != nil {
		return models.Department{}, s.fail("update", actor, id, err)
	}
	if superseded {
		s.lg.Infow("department superseded", "actor", actor, "old_id", id, "new_id", result.ID, "name", result.Name)
	} else {
		s.lg.Infow("department status changed", "actor", actor, "id", id, "active", result.Active)
	}
	return result, nil
}

// Delete removes a master row that no registration refers to by name,
// compared case-insensitively.
func (s *Service) Delete(ctx context.Context, id int64, actor string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dept models.Department
		if err := tx.First(&dept, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("department %d not found", id)
			}
			return err
		}
		refs, err := countReferences(tx, dept.NameKey)
		if err != nil {
			return err
		}
		if refs > 0 {
			return apperr.Validation(
				"department %q cannot be deleted: it is used by %d registrations. Use mass rename to move them to another department first",
				dept.Name, refs,
			).With("count", refs)
		}
		if err := tx.Delete(&dept).Error; err != nil {
			return err
		}
		return audit.Record(tx, audit.Entry{
			Actor:      actor,
			Action:     audit.ActionDepartmentDeleted,
			TargetType: audit.TargetDepartment,
			TargetID:   dept.ID,
			Message:    fmt.Sprintf("Department %q deleted", dept.Name),
		}, s.now())
	})
	if err != nil {
		return s.fail("delete", actor, id, err)
	}
	s.lg.Infow("department deleted", "actor", actor, "id", id)
	return nil
}

// fail passes business errors through and logs everything else.
func (s *Service) fail(op, actor string, id int64, err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Validation("a department with that name already exists")
	}
	s.lg.Errorw("department "+op+" failed", "actor", actor, "id", id, "error", err)
	return fmt.Errorf("%s department: %w", op, err)
}

// countReferences counts registrations whose department folds to key.
// Folding happens in Go because SQLite's LOWER only handles ASCII.
func countReferences(tx *gorm.DB, key string) (int64, error) {
	var counts []struct {
		Department string
		Count      int64
	}
	err := tx.Model(&models.Registration{}).
		Select("department, COUNT(*) AS count").
		Group("department").
		Scan(&counts).Error
	if err != nil {
		return 0, err
	}
	var n int64
	for _, c := range counts {
		if models.Key(c.Department) == key {
			n += c.Count
		}
	}
	return n, nil
}

func findByKey(tx *gorm.DB, name string) (*models.Department, error) {
	var d models.Department
	err := tx.Where("name_key = ?", models.Key(name)).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func stamp(d *models.Department, actor string, at time.Time) {
	d.UpdatedAt = &at
	d.UpdatedBy = models.Ptr(actor)
}

func validateName(name string) *apperr.Error {
	if name == "" {
		return apperr.Validation("department name is required").With("name", "required")
	}
	if utf8.RuneCountInString(name) > maxName {
		return apperr.Validation("department name must be at most %d characters", maxName).With("name", "too long")
	}
	return nil
}

func duplicate(name string) *apperr.Error {
	return apperr.Validation("department %q already exists", name).With("name", "duplicate")
}
