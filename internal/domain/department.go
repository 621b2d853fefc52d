package domain

// Department is the closed set of routing targets a complaint or staff account can belong to.
type Department uint8

const (
	// DepartmentNone marks an unset department.
	DepartmentNone Department = iota
	DepartmentAdmin
	DepartmentPower
	DepartmentHealth
	DepartmentWorks
)

// AllDepartments lists every assignable department in display order.
var AllDepartments = []Department{
	DepartmentAdmin,
	DepartmentPower,
	DepartmentHealth,
	DepartmentWorks,
}

// Code returns the stable wire/storage code. DepartmentNone yields "".
func (d Department) Code() string {
	switch d {
	case DepartmentNone:
		return ""
	case DepartmentAdmin:
		return "admin"
	case DepartmentPower:
		return "power"
	case DepartmentHealth:
		return "health"
	case DepartmentWorks:
		return "works"
	}
	panic("domain: unhandled department value")
}

func (d Department) String() string {
	if d == DepartmentNone {
		return "none"
	}
	return d.Code()
}

// IsSet reports whether d names a department.
func (d Department) IsSet() bool {
	return d != DepartmentNone
}

// IsAdmin reports whether d is the privileged central administration.
func (d Department) IsAdmin() bool {
	return d == DepartmentAdmin
}

// ParseDepartment maps a code to a Department. The empty code parses to DepartmentNone.
func ParseDepartment(code string) (Department, bool) {
	switch code {
	case "":
		return DepartmentNone, true
	case "admin":
		return DepartmentAdmin, true
	case "power":
		return DepartmentPower, true
	case "health":
		return DepartmentHealth, true
	case "works":
		return DepartmentWorks, true
	}
	return DepartmentNone, false
}

// MarshalText implements encoding.TextMarshaler.
func (d Department) MarshalText() ([]byte, error) {
	return []byte(d.Code()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Department) UnmarshalText(text []byte) error {
	parsed, ok := ParseDepartment(string(text))
	if !ok {
		return &UnknownDepartmentError{Code: string(text)}
	}
	*d = parsed
	return nil
}

// UnknownDepartmentError is returned when a code is outside the directory.
type UnknownDepartmentError struct {
	Code string
}

func (e *UnknownDepartmentError) Error() string {
	return "unknown department code " + `"` + e.Code + `"`
}
