package directory

import "github.com/civic-desk/complaint-service/internal/domain"

// Choice pairs a stored value with its display label.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Entry describes one department.
type Entry struct {
	Department domain.Department
	Code       string
	Name       string
}

// Directory holds the immutable lookup tables for departments and complaint choices.
// Build it once at start-up and pass it to whoever needs labels or code validation.
type Directory struct {
	departments []Entry
	byCode      map[string]Entry
	statuses    []Choice
	priorities  []Choice
	categories  []Choice
}

// New returns the standard directory.
func New() *Directory {
	names := map[domain.Department]string{
		domain.DepartmentAdmin:  "Central Administration",
		domain.DepartmentPower:  "Power & Electricity",
		domain.DepartmentHealth: "Public Health & Engineering",
		domain.DepartmentWorks:  "Public Works",
	}

	d := &Directory{byCode: make(map[string]Entry, len(domain.AllDepartments))}
	for _, dept := range domain.AllDepartments {
		entry := Entry{Department: dept, Code: dept.Code(), Name: names[dept]}
		d.departments = append(d.departments, entry)
		d.byCode[entry.Code] = entry
	}

	d.statuses = []Choice{
		{Value: string(domain.ComplaintStatusPending), Label: "Pending"},
		{Value: string(domain.ComplaintStatusInProgress), Label: "In Progress"},
		{Value: string(domain.ComplaintStatusResolved), Label: "Resolved"},
	}
	d.priorities = []Choice{
		{Value: string(domain.ComplaintPriorityLow), Label: "Low"},
		{Value: string(domain.ComplaintPriorityMedium), Label: "Medium"},
		{Value: string(domain.ComplaintPriorityHigh), Label: "High"},
		{Value: string(domain.ComplaintPriorityUrgent), Label: "Urgent"},
	}
	d.categories = []Choice{
		{Value: string(domain.ComplaintCategoryElectricity), Label: "Electricity"},
		{Value: string(domain.ComplaintCategoryRoad), Label: "Road"},
		{Value: string(domain.ComplaintCategorySanitation), Label: "Sanitation"},
		{Value: string(domain.ComplaintCategoryWaterSupply), Label: "Water Supply"},
		{Value: string(domain.ComplaintCategoryOthers), Label: "Others"},
	}
	return d
}

// Departments returns every department entry in display order.
func (d *Directory) Departments() []Entry {
	out := make([]Entry, len(d.departments))
	copy(out, d.departments)
	return out
}

// DepartmentChoices returns the departments as value/label pairs.
func (d *Directory) DepartmentChoices() []Choice {
	out := make([]Choice, 0, len(d.departments))
	for _, entry := range d.departments {
		out = append(out, Choice{Value: entry.Code, Label: entry.Name})
	}
	return out
}

// Lookup resolves a department code. Unknown and empty codes are rejected.
func (d *Directory) Lookup(code string) (domain.Department, bool) {
	entry, ok := d.byCode[code]
	if !ok {
		return domain.DepartmentNone, false
	}
	return entry.Department, true
}

// DisplayName returns the human readable department name.
func (d *Directory) DisplayName(dept domain.Department) string {
	if entry, ok := d.byCode[dept.Code()]; ok {
		return entry.Name
	}
	return "Unassigned"
}

// DisplayNameForCode is DisplayName for a raw, possibly invalid, code.
func (d *Directory) DisplayNameForCode(code string) string {
	if entry, ok := d.byCode[code]; ok {
		return entry.Name
	}
	return code
}

func (d *Directory) Statuses() []Choice   { return cloneChoices(d.statuses) }
func (d *Directory) Priorities() []Choice { return cloneChoices(d.priorities) }
func (d *Directory) Categories() []Choice { return cloneChoices(d.categories) }

func (d *Directory) StatusLabel(s domain.ComplaintStatus) string {
	return label(d.statuses, string(s))
}

func (d *Directory) PriorityLabel(p domain.ComplaintPriority) string {
	return label(d.priorities, string(p))
}

func (d *Directory) CategoryLabel(c domain.ComplaintCategory) string {
	return label(d.categories, string(c))
}

func label(choices []Choice, value string) string {
	for _, choice := range choices {
		if choice.Value == value {
			return choice.Label
		}
	}
	return value
}

func cloneChoices(in []Choice) []Choice {
	out := make([]Choice, len(in))
	copy(out, in)
	return out
}
