// Package administrator manages the administrator table. At least one
// active row is kept at all times.
package administrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"tidsregistrering/internal/apperr"
	"tidsregistrering/internal/directory"
	"tidsregistrering/internal/models"
	"tidsregistrering/internal/services/audit"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxLogin       = 100
	maxDisplayName = 100
	maxNote        = 200
)

type Service struct {
	db     *gorm.DB
	dir    directory.Directory
	domain string
	lg     *zap.SugaredLogger
	now    func() time.Time
}

// NewService wires the store and an optional directory. Logins without a
// domain part are qualified with domain.
func NewService(db *gorm.DB, dir directory.Directory, domain string, lg *zap.SugaredLogger) *Service {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &Service{db: db, dir: dir, domain: strings.TrimSuffix(domain, `\`), lg: lg, now: time.Now}
}

type Input struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	Active      bool   `json:"active"`
	Note        string `json:"note"`
}

type LookupResult struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	OrgUnit     string `json:"org_unit"`
	Found       bool   `json:"found"`
}

// NormalizeLogin trims login and prefixes the configured domain when the
// login has none.
func (s *Service) NormalizeLogin(login string) string {
	login = strings.TrimSpace(login)
	if login == "" || strings.Contains(login, `\`) || s.domain == "" {
		return login
	}
	return s.domain + `\` + login
}

func (s *Service) List(ctx context.Context) ([]models.Administrator, error) {
	var admins []models.Administrator
	if err := s.db.WithContext(ctx).Order("login_key").Find(&admins).Error; err != nil {
		s.lg.Errorw("list administrators failed", "error", err)
		return nil, fmt.Errorf("list administrators: %w", err)
	}
	return admins, nil
}

// Lookup checks that login is not already an administrator and reports what
// the directory knows about it.
func (s *Service) Lookup(ctx context.Context, login string) (LookupResult, error) {
	login = s.NormalizeLogin(login)
	if login == "" {
		return LookupResult{}, apperr.Validation("login is required").With("login", "required")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Administrator{}).Where("login_key = ?", models.Key(login)).Count(&count).Error; err != nil {
		s.lg.Errorw("administrator lookup failed", "login", login, "error", err)
		return LookupResult{}, fmt.Errorf("lookup administrator: %w", err)
	}
	if count > 0 {
		return LookupResult{}, apperr.Validation("%s is already an administrator", login).With("login", "duplicate")
	}
	p := directory.Resolve(ctx, s.dir, login, s.lg)
	return LookupResult{Login: login, DisplayName: p.DisplayName, OrgUnit: p.OrgUnit, Found: p.Found}, nil
}

func (s *Service) Create(ctx context.Context, in Input, actor string) (models.Administrator, error) {
	in = s.prepare(ctx, in)
	if vErr := validate(in); vErr != nil {
		return models.Administrator{}, vErr
	}

	now := s.now()
	admin := models.Administrator{
		Login:       in.Login,
		DisplayName: models.Ptr(in.DisplayName),
		Active:      in.Active,
		Note:        models.Ptr(in.Note),
		CreatedAt:   now,
		CreatedBy:   models.Ptr(actor),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, in.Login, 0); err != nil {
			return err
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		return audit.Record(tx, audit.Entry{
			Actor:      actor,
			Action:     audit.ActionAdminCreated,
			TargetType: audit.TargetAdministrator,
			TargetID:   admin.ID,
			Message:    fmt.Sprintf("Administrator %s created (active: %t)", admin.Login, admin.Active),
		}, now)
	})
	if err != nil {
		return models.Administrator{}, s.fail("create", actor, 0, err)
	}
	s.lg.Infow("administrator created", "actor", actor, "id", admin.ID, "login", admin.Login)
	return admin, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input, actor string) (models.Administrator, error) {
	in = s.prepare(ctx, in)
	if vErr := validate(in); vErr != nil {
		return models.Administrator{}, vErr
	}

	now := s.now()
	var admin models.Administrator
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&admin, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("administrator %d not found", id)
			}
			return err
		}
		if admin.Active && !in.Active {
			if err := ensureOtherActive(tx, admin.ID, "deactivate"); err != nil {
				return err
			}
		}
		if models.Key(in.Login) != admin.LoginKey {
			if err := ensureUnique(tx, in.Login, admin.ID); err != nil {
				return err
			}
		}
		prev := admin.Login
		admin.Login = in.Login
		admin.DisplayName = models.Ptr(in.DisplayName)
		admin.Active = in.Active
		admin.Note = models.Ptr(in.Note)
		admin.UpdatedAt = &now
		admin.UpdatedBy = models.Ptr(actor)
		if err := tx.Save(&admin).Error; err != nil {
			return err
		}
		return audit.Record(tx, audit.Entry{
			Actor:      actor,
			Action:     audit.ActionAdminUpdated,
			TargetType: audit.TargetAdministrator,
			TargetID:   admin.ID,
			Message:    fmt.Sprintf("Administrator %s updated (login: %s, active: %t)", prev, admin.Login, admin.Active),
		}, now)
	})
	if err != nil {
		return models.Administrator{}, s.fail("update", actor, id, err)
	}
	s.lg.Infow("administrator updated", "actor", actor, "id", id, "active", admin.Active)
	return admin, nil
}

func (s *Service) Delete(ctx context.Context, id int64, actor string) error {
	var login string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admin models.Administrator
		if err := tx.First(&admin, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("administrator %d not found", id)
			}
			return err
		}
		if admin.Active {
			if err := ensureOtherActive(tx, admin.ID, "delete"); err != nil {
				return err
			}
		}
		if err := tx.Delete(&admin).Error; err != nil {
			return err
		}
		login = admin.Login
		return audit.Record(tx, audit.Entry{
			Actor:      actor,
			Action:     audit.ActionAdminDeleted,
			TargetType: audit.TargetAdministrator,
			TargetID:   admin.ID,
			Message:    fmt.Sprintf("Administrator %s deleted", admin.Login),
		}, s.now())
	})
	if err != nil {
		return s.fail("delete", actor, id, err)
	}
	s.lg.Warnw("administrator deleted", "actor", actor, "id", id, "login", login)
	return nil
}

// prepare qualifies the login and fills a blank display name from the
// directory. It runs before any transaction is opened.
func (s *Service) prepare(ctx context.Context, in Input) Input {
	in.Login = s.NormalizeLogin(in.Login)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if in.DisplayName == "" && in.Login != "" && s.dir != nil {
		if p := directory.Resolve(ctx, s.dir, in.Login, s.lg); p.Found {
			in.DisplayName = p.DisplayName
		}
	}
	return in
}

func (s *Service) fail(op, actor string, id int64, err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Validation("an administrator with that login already exists").With("login", "duplicate")
	}
	s.lg.Errorw("administrator "+op+" failed", "actor", actor, "id", id, "error", err)
	return fmt.Errorf("%s administrator: %w", op, err)
}

func ensureUnique(tx *gorm.DB, login string, exceptID int64) error {
	var count int64
	err := tx.Model(&models.Administrator{}).
		Where("login_key = ? AND id <> ?", models.Key(login), exceptID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Validation("%s is already an administrator", login).With("login", "duplicate")
	}
	return nil
}

func ensureOtherActive(tx *gorm.DB, id int64, op string) error {
	var others int64
	err := tx.Model(&models.Administrator{}).
		Where("active = ? AND id <> ?", true, id).
		Count(&others).Error
	if err != nil {
		return err
	}
	if others == 0 {
		return apperr.Validation("cannot %s the last active administrator", op)
	}
	return nil
}

func validate(in Input) *apperr.Error {
	var vErr *apperr.Error
	add := func(field, msg string) {
		if vErr == nil {
			vErr = apperr.Validation("invalid administrator")
		}
		vErr.With(field, msg)
	}
	switch n := utf8.RuneCountInString(in.Login); {
	case n == 0:
		add("login", "required")
	case n > maxLogin:
		add("login", "must be at most 100 characters")
	}
	if utf8.RuneCountInString(in.DisplayName) > maxDisplayName {
		add("display_name", "must be at most 100 characters")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Note)) > maxNote {
		add("note", "must be at most 200 characters")
	}
	return vErr
}
