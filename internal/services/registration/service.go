// Package registration manages time entries owned by the principal that
// recorded them.
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"tidsregistrering/internal/apperr"
	"tidsregistrering/internal/auth"
	"tidsregistrering/internal/models"
	"tidsregistrering/internal/services/audit"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxDepartment = 100
	maxLogin      = 50
	maxName       = 100
	maxNote       = 1000
	maxCaseNumber = 60
	recentCount   = 5
)

type Service struct {
	db     *gorm.DB
	admins auth.AdminChecker
	lg     *zap.SugaredLogger
	now    func() time.Time
}

func NewService(db *gorm.DB, admins auth.AdminChecker, lg *zap.SugaredLogger) *Service {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &Service{db: db, admins: admins, lg: lg, now: time.Now}
}

type CreateInput struct {
	Owner       string
	DisplayName string
	OrgUnit     string
	Minutes     int
	Department  string
	Note        string
	CaseNumber  string
	PerformedOn *time.Time
}

// UpdateInput is a partial update: nil fields keep their stored value. An
// empty Note or CaseNumber clears it.
type UpdateInput struct {
	Minutes          *int
	Department       *string
	Note             *string
	CaseNumber       *string
	PerformedOn      *time.Time
	ClearPerformedOn bool
}

type Summary struct {
	TotalMinutes int                   `json:"total_minutes"`
	Hours        int                   `json:"hours"`
	Minutes      int                   `json:"minutes"`
	Recent       []models.Registration `json:"recent"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (models.Registration, error) {
	owner := strings.TrimSpace(in.Owner)
	if vErr := validate(in.Minutes, in.Department, in.Note, in.CaseNumber); vErr != nil {
		return models.Registration{}, vErr
	}
	if owner == "" || utf8.RuneCountInString(owner) > maxLogin {
		return models.Registration{}, apperr.Validation("invalid owner identity").With("owner", "required, at most 50 characters")
	}

	now := s.now()
	performed := day(now)
	if in.PerformedOn != nil {
		performed = day(*in.PerformedOn)
	}
	reg := models.Registration{
		RegisteredAt: now,
		Minutes:      in.Minutes,
		Department:   strings.TrimSpace(in.Department),
		Note:         models.Ptr(in.Note),
		Login:        owner,
		DisplayName:  models.Ptr(truncate(in.DisplayName, maxName)),
		OrgUnit:      models.Ptr(truncate(in.OrgUnit, maxName)),
		PerformedOn:  &performed,
		CaseNumber:   models.Ptr(in.CaseNumber),
		CreatedAt:    now,
	}
	if err := s.db.WithContext(ctx).Create(&reg).Error; err != nil {
		s.lg.Errorw("create registration failed", "actor", owner, "error", err)
		return models.Registration{}, fmt.Errorf("create registration: %w", err)
	}
	s.lg.Infow("registration created", "actor", owner, "id", reg.ID, "minutes", reg.Minutes, "department", reg.Department)
	return reg, nil
}

// ListForOwner returns the owner's registrations, newest first.
func (s *Service) ListForOwner(ctx context.Context, owner string) ([]models.Registration, error) {
	var regs []models.Registration
	err := s.db.WithContext(ctx).
		Where("login = ?", owner).
		Order("registered_at desc").Order("id desc").
		Find(&regs).Error
	if err != nil {
		s.lg.Errorw("list registrations failed", "actor", owner, "error", err)
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

func (s *Service) SummaryForOwner(ctx context.Context, owner string) (Summary, error) {
	regs, err := s.ListForOwner(ctx, owner)
	if err != nil {
		return Summary{}, err
	}
	var sum Summary
	for _, r := range regs {
		sum.TotalMinutes += r.Minutes
	}
	sum.Hours, sum.Minutes = sum.TotalMinutes/60, sum.TotalMinutes%60
	if len(regs) > recentCount {
		regs = regs[:recentCount]
	}
	sum.Recent = regs
	return sum, nil
}

// Update applies in when actor owns the registration or is an administrator.
// Administrator edits of other users' entries are written to the audit log.
func (s *Service) Update(ctx context.Context, actor string, id int64, in UpdateInput) (models.Registration, error) {
	reg, asAdmin, err := s.authorize(ctx, actor, id, "update")
	if err != nil {
		return models.Registration{}, err
	}

	prev := reg
	if in.Minutes != nil {
		reg.Minutes = *in.Minutes
	}
	if in.Department != nil {
		reg.Department = strings.TrimSpace(*in.Department)
	}
	if in.Note != nil {
		reg.Note = models.Ptr(*in.Note)
	}
	if in.CaseNumber != nil {
		reg.CaseNumber = models.Ptr(*in.CaseNumber)
	}
	switch {
	case in.PerformedOn != nil:
		performed := day(*in.PerformedOn)
		reg.PerformedOn = &performed
	case in.ClearPerformedOn:
		reg.PerformedOn = nil
	}
	if vErr := validate(reg.Minutes, reg.Department, models.Deref(reg.Note), models.Deref(reg.CaseNumber)); vErr != nil {
		return models.Registration{}, vErr
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&reg).Error; err != nil {
			return err
		}
		if !asAdmin {
			return nil
		}
		return audit.Record(tx, audit.Entry{
			Actor:      actor,
			Action:     audit.ActionRegistrationEdited,
			TargetType: audit.TargetRegistration,
			TargetID:   reg.ID,
			Message:    fmt.Sprintf("Registration %d owned by %s edited by administrator %s. Previous values: %s", reg.ID, reg.Login, actor, describe(prev)),
			Metadata:   map[string]any{"owner": reg.Login, "previous": prev},
		}, s.now())
	})
	if err != nil {
		s.lg.Errorw("update registration failed", "actor", actor, "id", id, "error", err)
		return models.Registration{}, fmt.Errorf("update registration: %w", err)
	}
	if asAdmin {
		s.lg.Warnw("registration edited by administrator", "actor", actor, "id", id, "owner", reg.Login, "previous", describe(prev))
	} else {
		s.lg.Infow("registration updated", "actor", actor, "id", id)
	}
	return reg, nil
}

func (s *Service) Delete(ctx context.Context, actor string, id int64) error {
	reg, asAdmin, err := s.authorize(ctx, actor, id, "delete")
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Registration{}, reg.ID).Error; err != nil {
			return err
		}
		if !asAdmin {
			return nil
		}
		return audit.Record(tx, audit.Entry{
			Actor:      actor,
			Action:     audit.ActionRegistrationDeleted,
			TargetType: audit.TargetRegistration,
			TargetID:   reg.ID,
			Message:    fmt.Sprintf("Registration %d owned by %s deleted by administrator %s. Values: %s", reg.ID, reg.Login, actor, describe(reg)),
			Metadata:   map[string]any{"owner": reg.Login, "previous": reg},
		}, s.now())
	})
	if err != nil {
		s.lg.Errorw("delete registration failed", "actor", actor, "id", id, "error", err)
		return fmt.Errorf("delete registration: %w", err)
	}
	if asAdmin {
		s.lg.Warnw("registration deleted by administrator", "actor", actor, "id", id, "owner", reg.Login)
	} else {
		s.lg.Infow("registration deleted", "actor", actor, "id", id)
	}
	return nil
}

// authorize loads the registration and reports whether actor acts through
// the administrator path. Non-owners without admin rights are forbidden.
func (s *Service) authorize(ctx context.Context, actor string, id int64, op string) (models.Registration, bool, error) {
	var reg models.Registration
	err := s.db.WithContext(ctx).First(&reg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return reg, false, apperr.NotFound("registration %d not found", id)
	}
	if err != nil {
		s.lg.Errorw("load registration failed", "actor", actor, "id", id, "error", err)
		return reg, false, fmt.Errorf("load registration: %w", err)
	}
	if reg.Login == actor {
		return reg, false, nil
	}
	if s.admins != nil && s.admins.IsAdmin(ctx, actor) {
		return reg, true, nil
	}
	s.lg.Warnw("registration access denied", "actor", actor, "id", id, "owner", reg.Login, "operation", op)
	return reg, false, apperr.Forbidden("you can only %s your own registrations", op)
}

func validate(minutes int, department, note, caseNumber string) *apperr.Error {
	var vErr *apperr.Error
	add := func(field, msg string) {
		if vErr == nil {
			vErr = apperr.Validation("invalid registration")
		}
		vErr.With(field, msg)
	}
	if minutes <= 0 {
		add("minutes", "must be greater than 0")
	}
	dept := strings.TrimSpace(department)
	if dept == "" {
		add("department", "required")
	} else if utf8.RuneCountInString(dept) > maxDepartment {
		add("department", "must be at most 100 characters")
	}
	if utf8.RuneCountInString(strings.TrimSpace(note)) > maxNote {
		add("note", "must be at most 1000 characters")
	}
	if utf8.RuneCountInString(strings.TrimSpace(caseNumber)) > maxCaseNumber {
		add("case_number", "must be at most 60 characters")
	}
	return vErr
}

func describe(r models.Registration) string {
	performed := "-"
	if r.PerformedOn != nil {
		performed = r.PerformedOn.Format("2006-01-02")
	}
	return fmt.Sprintf("%d min, department %q, case %q, performed %s, note %q",
		r.Minutes, r.Department, models.Deref(r.CaseNumber), performed, models.Deref(r.Note))
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
