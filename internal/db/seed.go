package db

import (
	"context"
	"tidsregistrering/internal/models"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seed inserts the default department list into an empty department table
// and the fallback identity into an empty administrator table.
func Seed(ctx context.Context, db *gorm.DB, fallbackAdmin string, lg *zap.SugaredLogger) error {
	now := time.Now()
	system := models.SystemActor
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Department{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			depts := make([]models.Department, 0, len(models.DefaultDepartments))
			for _, name := range models.DefaultDepartments {
				depts = append(depts, models.Department{Name: name, Active: true, CreatedAt: now, CreatedBy: &system})
			}
			if err := tx.Create(&depts).Error; err != nil {
				return err
			}
			if lg != nil {
				lg.Infow("seeded departments", "count", len(depts))
			}
		}

		if fallbackAdmin == "" {
			return nil
		}
		if err := tx.Model(&models.Administrator{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		admin := models.Administrator{
			Login:       fallbackAdmin,
			DisplayName: models.Ptr("System Administrator"),
			Active:      true,
			Note:        models.Ptr("Initial administrator, created automatically"),
			CreatedAt:   now,
			CreatedBy:   &system,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		if lg != nil {
			lg.Infow("seeded default admin", "login", fallbackAdmin)
		}
		return nil
	})
}
