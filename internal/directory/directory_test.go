package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civic-desk/complaint-service/internal/domain"
)

func TestLookupKnownCodes(t *testing.T) {
	dir := New()

	for _, dept := range domain.AllDepartments {
		got, ok := dir.Lookup(dept.Code())
		require.True(t, ok, dept.Code())
		assert.Equal(t, dept, got)
	}
}

func TestLookupRejectsUnknownAndEmpty(t *testing.T) {
	dir := New()

	for _, code := range []string{"", "dashboard", "ADMIN", "login", "complaints"} {
		_, ok := dir.Lookup(code)
		assert.False(t, ok, code)
	}
}

func TestDisplayNames(t *testing.T) {
	dir := New()

	assert.Equal(t, "Central Administration", dir.DisplayName(domain.DepartmentAdmin))
	assert.Equal(t, "Power & Electricity", dir.DisplayName(domain.DepartmentPower))
	assert.Equal(t, "Unassigned", dir.DisplayName(domain.DepartmentNone))
	assert.Equal(t, "Public Works", dir.DisplayNameForCode("works"))
	assert.Equal(t, "parks", dir.DisplayNameForCode("parks"))
}

func TestDepartmentsReturnsCopy(t *testing.T) {
	dir := New()

	entries := dir.Departments()
	require.Len(t, entries, 4)
	entries[0].Name = "changed"

	assert.Equal(t, "Central Administration", dir.Departments()[0].Name)
}

func TestChoiceLabels(t *testing.T) {
	dir := New()

	assert.Equal(t, "In Progress", dir.StatusLabel(domain.ComplaintStatusInProgress))
	assert.Equal(t, "Urgent", dir.PriorityLabel(domain.ComplaintPriorityUrgent))
	assert.Equal(t, "Water Supply", dir.CategoryLabel(domain.ComplaintCategoryWaterSupply))
	assert.Len(t, dir.Statuses(), 3)
	assert.Len(t, dir.Priorities(), 4)
	assert.Len(t, dir.Categories(), 5)
}

func TestDepartmentChoices(t *testing.T) {
	choices := New().DepartmentChoices()

	require.Len(t, choices, 4)
	assert.Equal(t, Choice{Value: "health", Label: "Public Health & Engineering"}, choices[2])
}
