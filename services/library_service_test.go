package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricelens/models"
)

func savedFixture(t *testing.T, ls *LibraryService, name string) *models.SavedCalculation {
	t.Helper()
	engine := NewCalculatorService(ModeEnhanced)
	inputs := models.CalculatorInputs{CurrentPrice: models.Num(49)}
	return ls.Save(name, inputs, engine.Compute(inputs))
}

func TestLibrarySaveAndGet(t *testing.T) {
	ls := NewLibraryService(nil)

	entry := savedFixture(t, ls, "Q3 pricing")
	require.NotEmpty(t, entry.ID)
	assert.Equal(t, "Q3 pricing", entry.Name)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.Equal(t, entry.CreatedAt, entry.UpdatedAt)

	got, found := ls.Get(entry.ID)
	require.True(t, found)
	assert.Equal(t, entry, got)

	_, found = ls.Get("calc_0")
	assert.False(t, found)
}

func TestLibraryListNewestFirst(t *testing.T) {
	ls := NewLibraryService(nil)

	first := savedFixture(t, ls, "first")
	time.Sleep(2 * time.Millisecond)
	second := savedFixture(t, ls, "second")

	list := ls.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestLibraryRename(t *testing.T) {
	ls := NewLibraryService(nil)
	entry := savedFixture(t, ls, "old name")

	require.NoError(t, ls.Rename(entry.ID, "new name"))

	got, found := ls.Get(entry.ID)
	require.True(t, found)
	assert.Equal(t, "new name", got.Name)
	assert.True(t, !got.UpdatedAt.Before(got.CreatedAt))

	assert.Error(t, ls.Rename("calc_0", "whatever"))
}

func TestLibraryDelete(t *testing.T) {
	ls := NewLibraryService(nil)
	entry := savedFixture(t, ls, "doomed")

	require.NoError(t, ls.Delete(entry.ID))
	_, found := ls.Get(entry.ID)
	assert.False(t, found)

	assert.Error(t, ls.Delete(entry.ID))
}

func TestLibraryExport(t *testing.T) {
	ls := NewLibraryService(nil)
	savedFixture(t, ls, "a")
	savedFixture(t, ls, "b")

	export := ls.Export()
	assert.Equal(t, 2, export.Count)
	assert.Len(t, export.Calculations, 2)
	assert.False(t, export.ExportedAt.IsZero())
}
