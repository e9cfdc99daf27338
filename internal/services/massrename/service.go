// Package massrename moves every registration from one department name to
// another. Preview is read only; Execute re-validates and applies the rename
// together with the master-list bookkeeping in one transaction.
package massrename

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"tidsregistrering/internal/apperr"
	"tidsregistrering/internal/models"
	"tidsregistrering/internal/services/audit"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxName = 100

type Service struct {
	db  *gorm.DB
	lg  *zap.SugaredLogger
	now func() time.Time
}

func NewService(db *gorm.DB, lg *zap.SugaredLogger) *Service {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &Service{db: db, lg: lg, now: time.Now}
}

// Group counts the affected registrations of one user.
type Group struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	Label       string `json:"label"`
	Count       int    `json:"count"`
}

type Preview struct {
	OldName       string  `json:"old_name"`
	NewName       string  `json:"new_name"`
	AffectedCount int     `json:"affected_count"`
	Groups        []Group `json:"groups"`
}

type Result struct {
	BatchID        string `json:"batch_id"`
	OldName        string `json:"old_name"`
	NewName        string `json:"new_name"`
	Changed        int64  `json:"changed"`
	OldDeactivated bool   `json:"old_deactivated"`
	NewReactivated bool   `json:"new_reactivated"`
	NewCreated     bool   `json:"new_created"`
}

func (s *Service) Preview(ctx context.Context, oldName, newName string) (Preview, error) {
	oldName, newName = strings.TrimSpace(oldName), strings.TrimSpace(newName)
	if vErr := validate(oldName, newName); vErr != nil {
		return Preview{}, vErr
	}

	var regs []models.Registration
	err := s.db.WithContext(ctx).
		Select("login", "display_name").
		Where("department = ?", oldName).
		Find(&regs).Error
	if err != nil {
		s.lg.Errorw("mass rename preview failed", "old", oldName, "new", newName, "error", err)
		return Preview{}, fmt.Errorf("load affected registrations: %w", err)
	}
	if len(regs) == 0 {
		return Preview{}, nothingToChange(oldName)
	}
	return Preview{OldName: oldName, NewName: newName, AffectedCount: len(regs), Groups: groupByUser(regs)}, nil
}

// Execute renames oldName to newName on every registration carrying it,
// deactivates the old master row and activates or creates the new one.
func (s *Service) Execute(ctx context.Context, oldName, newName, actor string) (Result, error) {
	oldName, newName = strings.TrimSpace(oldName), strings.TrimSpace(newName)
	if vErr := validate(oldName, newName); vErr != nil {
		return Result{}, vErr
	}

	now := s.now()
	res := Result{BatchID: uuid.NewString(), OldName: oldName, NewName: newName}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockNames(tx, oldName, newName); err != nil {
			return err
		}

		var affected int64
		if err := tx.Model(&models.Registration{}).Where("department = ?", oldName).Count(&affected).Error; err != nil {
			return err
		}
		if affected == 0 {
			return nothingToChange(oldName)
		}

		var old models.Department
		err := tx.Where("name = ?", oldName).First(&old).Error
		switch {
		case err == nil:
			if old.Active {
				old.Active = false
				old.UpdatedAt = &now
				old.UpdatedBy = models.Ptr(actor)
				if err := tx.Save(&old).Error; err != nil {
					return err
				}
				res.OldDeactivated = true
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		var target models.Department
		err = tx.Where("name_key = ?", models.Key(newName)).First(&target).Error
		switch {
		case err == nil:
			if !target.Active {
				target.Active = true
				target.UpdatedAt = &now
				target.UpdatedBy = models.Ptr(actor)
				if err := tx.Save(&target).Error; err != nil {
					return err
				}
				res.NewReactivated = true
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			target = models.Department{Name: newName, Active: true, CreatedAt: now, CreatedBy: models.Ptr(actor)}
			if err := tx.Create(&target).Error; err != nil {
				return err
			}
			res.NewCreated = true
		default:
			return err
		}

		// registrations take the master spelling, not the request's
		res.NewName = target.Name
		upd := tx.Model(&models.Registration{}).Where("department = ?", oldName).Update("department", target.Name)
		if upd.Error != nil {
			return upd.Error
		}
		res.Changed = upd.RowsAffected

		return audit.Record(tx, audit.Entry{
			Actor:      actor,
			Action:     audit.ActionMassRename,
			TargetType: audit.TargetDepartment,
			TargetID:   target.ID,
			Message:    fmt.Sprintf("Mass rename %q -> %q changed %d registrations", oldName, target.Name, res.Changed),
			Metadata:   res,
		}, now)
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return Result{}, err
		}
		s.lg.Errorw("mass rename failed", "actor", actor, "old", oldName, "new", newName, "batch", res.BatchID, "error", err)
		return Result{}, fmt.Errorf("mass rename: %w", err)
	}
	s.lg.Warnw("mass rename executed",
		"actor", actor,
		"old", oldName,
		"new", res.NewName,
		"changed", res.Changed,
		"batch", res.BatchID,
	)
	return res, nil
}

// lockNames serializes concurrent renames touching the same names. On SQLite
// the immediate transaction already holds the database write lock.
func lockNames(tx *gorm.DB, names ...string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	keys := make([]string, 0, len(names))
	for _, n := range names {
		keys = append(keys, models.Key(n))
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "department:"+k).Error; err != nil {
			return fmt.Errorf("lock department %q: %w", k, err)
		}
	}
	return nil
}

func groupByUser(regs []models.Registration) []Group {
	type key struct{ login, name string }
	idx := make(map[key]int)
	var groups []Group
	for _, r := range regs {
		k := key{r.Login, models.Deref(r.DisplayName)}
		i, ok := idx[k]
		if !ok {
			i = len(groups)
			idx[k] = i
			groups = append(groups, Group{Login: r.Login, DisplayName: k.name, Label: r.Label()})
		}
		groups[i].Count++
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Label < groups[j].Label
	})
	return groups
}

func validate(oldName, newName string) *apperr.Error {
	if oldName == "" || newName == "" {
		return apperr.Validation("both the old and the new department name are required")
	}
	if utf8.RuneCountInString(newName) > maxName {
		return apperr.Validation("department name must be at most %d characters", maxName).With("new_name", "too long")
	}
	if models.Key(oldName) == models.Key(newName) {
		return apperr.Validation("old and new department name must differ")
	}
	return nil
}

func nothingToChange(oldName string) *apperr.Error {
	return apperr.Validation("nothing to change: no registrations use department %q", oldName).With("count", 0)
}
