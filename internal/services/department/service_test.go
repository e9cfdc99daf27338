package department

import (
	"context"
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

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	gdb := db.OpenTest(t)
	return NewService(gdb, "da", nil), gdb
}

func addRegistration(t *testing.T, gdb *gorm.DB, login, department string) models.Registration {
	t.Helper()
	now := time.Now()
	reg := models.Registration{RegisteredAt: now, Minutes: 15, Department: department, Login: login, CreatedAt: now}
	require.NoError(t, gdb.Create(&reg).Error)
	return reg
}

func TestCreateRejectsCaseInsensitiveDuplicate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "IT-afdelingen", true, "admin")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "  it-afdelingen ", true, "admin")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCreateRejectsDuplicateOfInactive(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "Drift", false, "admin")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "DRIFT", true, "admin")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCreateBlankName(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Create(context.Background(), "   ", true, "admin")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCreateStoresInactiveFlag(t *testing.T) {
	svc, gdb := newService(t)
	d, err := svc.Create(context.Background(), "Arkiv", false, "admin")
	require.NoError(t, err)

	var stored models.Department
	require.NoError(t, gdb.First(&stored, d.ID).Error)
	assert.False(t, stored.Active)
	assert.Equal(t, "admin", models.Deref(stored.CreatedBy))
}

func TestUpdateSameNameTogglesStatus(t *testing.T) {
	svc, gdb := newService(t)
	ctx := context.Background()
	d, err := svc.Create(ctx, "Drift", true, "admin")
	require.NoError(t, err)

	got, err := svc.Update(ctx, d.ID, "drift", false, "boss")
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, "Drift", got.Name)
	assert.False(t, got.Active)

	var count int64
	require.NoError(t, gdb.Model(&models.Department{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpdateSupersedesAndLeavesRegistrations(t *testing.T) {
	svc, gdb := newService(t)
	ctx := context.Background()
	old, err := svc.Create(ctx, "Teknik", true, "admin")
	require.NoError(t, err)
	reg := addRegistration(t, gdb, "anna", "Teknik")

	got, err := svc.Update(ctx, old.ID, "Teknik og Miljø", true, "admin")
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, got.ID)
	assert.True(t, got.Active)

	var prev models.Department
	require.NoError(t, gdb.First(&prev, old.ID).Error)
	assert.False(t, prev.Active)
	assert.Equal(t, "Teknik", prev.Name)

	var stored models.Registration
	require.NoError(t, gdb.First(&stored, reg.ID).Error)
	assert.Equal(t, "Teknik", stored.Department)
}

func TestUpdateReactivatesInactiveTarget(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, "A", true, "admin")
	require.NoError(t, err)
	b, err := svc.Create(ctx, "B", false, "admin")
	require.NoError(t, err)

	got, err := svc.Update(ctx, a.ID, "b", true, "admin")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.True(t, got.Active)
	assert.Equal(t, "b", got.Name)
}

func TestUpdateRejectsActiveTarget(t *testing.T) {
	svc, gdb := newService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, "A", true, "admin")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "B", true, "admin")
	require.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, "B", true, "admin")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	var stored models.Department
	require.NoError(t, gdb.First(&stored, a.ID).Error)
	assert.True(t, stored.Active)
}

func TestUpdateMissing(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Update(context.Background(), 99, "X", true, "admin")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteBlockedWhileReferenced(t *testing.T) {
	svc, gdb := newService(t)
	ctx := context.Background()
	d, err := svc.Create(ctx, "X", true, "admin")
	require.NoError(t, err)
	reg := addRegistration(t, gdb, "anna", "X")

	err = svc.Delete(ctx, d.ID, "admin")
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, e.Kind)
	assert.Equal(t, int64(1), e.Details["count"])
	assert.Contains(t, e.Message, "1 registrations")
	assert.Contains(t, e.Message, "mass rename")

	require.NoError(t, gdb.Model(&reg).Update("department", "Y").Error)
	require.NoError(t, svc.Delete(ctx, d.ID, "admin"))

	err = gdb.First(&models.Department{}, d.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	logs, err := audit.Recent(ctx, gdb, 0)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, audit.ActionDepartmentDeleted, logs[0].Action)
}

func TestDeleteBlockedByOtherCasing(t *testing.T) {
	svc, gdb := newService(t)
	ctx := context.Background()

	tests := []struct {
		master, used string
	}{
		{"B", "b"},
		{"Økonomi", "økonomi"},
		{"Ærø", " ÆRØ "},
	}
	for _, tt := range tests {
		t.Run(tt.master, func(t *testing.T) {
			d, err := svc.Create(ctx, tt.master, true, "admin")
			require.NoError(t, err)
			addRegistration(t, gdb, "anna", tt.used)

			err = svc.Delete(ctx, d.ID, "admin")
			e, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindValidation, e.Kind)
			assert.Equal(t, int64(1), e.Details["count"])
			assert.NoError(t, gdb.First(&models.Department{}, d.ID).Error)
		})
	}
}

func TestListCountsUsageInCollationOrder(t *testing.T) {
	svc, gdb := newService(t)
	ctx := context.Background()
	for _, name := range []string{"Økonomi", "Arkiv", "Zoo"} {
		_, err := svc.Create(ctx, name, true, "admin")
		require.NoError(t, err)
	}
	addRegistration(t, gdb, "anna", "Arkiv")
	addRegistration(t, gdb, "bo", "Arkiv")

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Arkiv", list[0].Name)
	assert.Equal(t, int64(2), list[0].Registrations)
	assert.Equal(t, "Zoo", list[1].Name)
	assert.Equal(t, "Økonomi", list[2].Name)
	assert.Zero(t, list[2].Registrations)
}

func TestActiveNamesFallsBackToSeedList(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	names, err := svc.ActiveNames(ctx)
	require.NoError(t, err)
	assert.Len(t, names, len(models.DefaultDepartments))
	assert.Equal(t, "Økonomi- og Personaleafdelingen", names[len(names)-1])

	_, err = svc.Create(ctx, "Kun denne", true, "admin")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Lukket", false, "admin")
	require.NoError(t, err)

	names, err = svc.ActiveNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kun denne"}, names)
}
