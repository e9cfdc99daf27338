// Package audit records administrative changes in the audit_logs table,
// inside the caller's transaction.
package audit

import (
	"context"
	"strconv"
	"tidsregistrering/internal/models"
	"time"

	"gorm.io/gorm"
)

const (
	ActionRegistrationEdited   = "registration.edited"
	ActionRegistrationDeleted  = "registration.deleted"
	ActionDepartmentCreated    = "department.created"
	ActionDepartmentStatus     = "department.status"
	ActionDepartmentSuperseded = "department.superseded"
	ActionDepartmentDeleted    = "department.deleted"
	ActionAdminCreated         = "administrator.created"
	ActionAdminUpdated         = "administrator.updated"
	ActionAdminDeleted         = "administrator.deleted"
	ActionMassRename           = "department.mass_rename"
)

const (
	TargetRegistration  = "registration"
	TargetDepartment    = "department"
	TargetAdministrator = "administrator"
)

type Entry struct {
	Actor      string
	Action     string
	TargetType string
	TargetID   int64
	Message    string
	Metadata   any
}

// Record inserts e using tx.
func Record(tx *gorm.DB, e Entry, at time.Time) error {
	row := models.AuditLog{
		Actor:      e.Actor,
		Action:     e.Action,
		TargetType: e.TargetType,
		Message:    e.Message,
		CreatedAt:  at,
	}
	if e.TargetID != 0 {
		id := strconv.FormatInt(e.TargetID, 10)
		row.TargetID = &id
	}
	if e.Metadata != nil {
		row.Metadata = models.NewJSONB(e.Metadata)
	}
	return tx.Create(&row).Error
}

// Recent returns the newest entries first.
func Recent(ctx context.Context, db *gorm.DB, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	var logs []models.AuditLog
	err := db.WithContext(ctx).Order("created_at desc").Order("id desc").Limit(limit).Find(&logs).Error
	return logs, err
}
