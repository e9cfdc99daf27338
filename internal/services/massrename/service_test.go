package massrename

import (
	"context"
	"errors"
	"testing"
	"tidsregistrering/internal/apperr"
	"tidsregistrering/internal/db"
	"tidsregistrering/internal/models"
	"tidsregistrering/internal/services/audit"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fixture builds departments A and B, three registrations under A for u1
// and two for u2.
func fixture(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	gdb := db.OpenTest(t)
	now := time.Now()
	admin := "admin"
	for _, name := range []string{"A", "B"} {
		require.NoError(t, gdb.Create(&models.Department{Name: name, Active: true, CreatedAt: now, CreatedBy: &admin}).Error)
	}
	add := func(login, display string, n int) {
		for i := 0; i < n; i++ {
			reg := models.Registration{
				RegisteredAt: now,
				Minutes:      30,
				Department:   "A",
				Login:        login,
				DisplayName:  models.Ptr(display),
				CreatedAt:    now,
			}
			require.NoError(t, gdb.Create(&reg).Error)
		}
	}
	add(`IBK\u1`, "User One", 3)
	add(`IBK\u2`, "User Two", 2)
	return NewService(gdb, nil), gdb
}

func department(t *testing.T, gdb *gorm.DB, name string) models.Department {
	t.Helper()
	var d models.Department
	require.NoError(t, gdb.Where("name = ?", name).First(&d).Error)
	return d
}

func countIn(t *testing.T, gdb *gorm.DB, name string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(&models.Registration{}).Where("department = ?", name).Count(&n).Error)
	return n
}

func TestPreviewGroupsByUser(t *testing.T) {
	svc, _ := fixture(t)

	p, err := svc.Preview(context.Background(), "A", "B")
	require.NoError(t, err)

	assert.Equal(t, 5, p.AffectedCount)
	require.Len(t, p.Groups, 2)
	assert.Equal(t, Group{Login: `IBK\u1`, DisplayName: "User One", Label: "User One", Count: 3}, p.Groups[0])
	assert.Equal(t, Group{Login: `IBK\u2`, DisplayName: "User Two", Label: "User Two", Count: 2}, p.Groups[1])
}

func TestPreviewValidation(t *testing.T) {
	svc, _ := fixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		from, to string
	}{
		{"blank old", " ", "B"},
		{"blank new", "A", ""},
		{"same name", "A", "a"},
		{"nothing to change", "Ukendt", "B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Preview(ctx, tt.from, tt.to)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
}

func TestExecuteEndToEnd(t *testing.T) {
	svc, gdb := fixture(t)
	ctx := context.Background()
	require.NoError(t, gdb.Model(&models.Department{}).Where("name = ?", "B").Update("active", false).Error)

	res, err := svc.Execute(ctx, "A", "B", "admin")
	require.NoError(t, err)

	assert.Equal(t, int64(5), res.Changed)
	assert.True(t, res.OldDeactivated)
	assert.True(t, res.NewReactivated)
	assert.False(t, res.NewCreated)
	assert.NotEmpty(t, res.BatchID)

	assert.False(t, department(t, gdb, "A").Active)
	assert.True(t, department(t, gdb, "B").Active)
	assert.Equal(t, int64(5), countIn(t, gdb, "B"))
	assert.Zero(t, countIn(t, gdb, "A"))

	logs, err := audit.Recent(ctx, gdb, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, audit.ActionMassRename, logs[0].Action)
	assert.Equal(t, "admin", logs[0].Actor)
}

func TestExecuteCreatesMissingTarget(t *testing.T) {
	svc, gdb := fixture(t)

	res, err := svc.Execute(context.Background(), "A", "Ny afdeling", "admin")
	require.NoError(t, err)
	assert.True(t, res.NewCreated)
	assert.True(t, department(t, gdb, "Ny afdeling").Active)
}

func TestExecuteUsesMasterSpelling(t *testing.T) {
	svc, gdb := fixture(t)

	res, err := svc.Execute(context.Background(), "A", "b", "admin")
	require.NoError(t, err)
	assert.False(t, res.NewCreated)
	assert.Equal(t, "B", res.NewName)
	assert.Equal(t, int64(5), countIn(t, gdb, "B"))
	assert.Zero(t, countIn(t, gdb, "b"))

	var masters []models.Department
	require.NoError(t, gdb.Where("name_key = ?", "b").Find(&masters).Error)
	require.Len(t, masters, 1)
	assert.Equal(t, "B", masters[0].Name)
	assert.True(t, masters[0].Active)
}

func TestExecuteWithoutOldMasterRow(t *testing.T) {
	svc, gdb := fixture(t)
	require.NoError(t, gdb.Where("name = ?", "A").Delete(&models.Department{}).Error)

	res, err := svc.Execute(context.Background(), "A", "B", "admin")
	require.NoError(t, err)
	assert.False(t, res.OldDeactivated)
	assert.Equal(t, int64(5), res.Changed)
}

func TestRenameThenPreviewHasNothingToChange(t *testing.T) {
	svc, _ := fixture(t)
	ctx := context.Background()

	_, err := svc.Execute(ctx, "A", "B", "admin")
	require.NoError(t, err)

	_, err = svc.Preview(ctx, "A", "B")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "nothing to change")

	_, err = svc.Execute(ctx, "A", "B", "admin")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestExecuteIsAllOrNothing(t *testing.T) {
	svc, gdb := fixture(t)
	require.NoError(t, gdb.Model(&models.Department{}).Where("name = ?", "B").Update("active", false).Error)

	injected := errors.New("injected write failure")
	err := gdb.Callback().Update().Before("gorm:update").Register("test:fail_registrations", func(tx *gorm.DB) {
		if tx.Statement.Table == "registrations" {
			_ = tx.AddError(injected)
		}
	})
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), "A", "B", "admin")
	require.Error(t, err)
	assert.ErrorIs(t, err, injected)

	assert.True(t, department(t, gdb, "A").Active)
	assert.False(t, department(t, gdb, "B").Active)
	assert.Equal(t, int64(5), countIn(t, gdb, "A"))
	assert.Zero(t, countIn(t, gdb, "B"))

	var logs int64
	require.NoError(t, gdb.Model(&models.AuditLog{}).Count(&logs).Error)
	assert.Zero(t, logs)
}
