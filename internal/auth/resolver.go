package auth

import (
	"net/url"
	"path"
	"strings"
)

const (
	// AuthorityPrefix is the route prefix of every authority page.
	AuthorityPrefix = "/authority"
	// DashboardAlias is the path segment of the central admin dashboard.
	DashboardAlias = "dashboard"
)

// DestinationKind classifies where a login redirect target points.
type DestinationKind uint8

const (
	DestinationNone DestinationKind = iota
	DestinationAdmin
	DestinationDepartment
)

// Destination is the outcome of ResolveDestination.
// Code holds the candidate department code for DestinationDepartment and may be
// outside the directory; Path is the normalised local path to redirect to.
type Destination struct {
	Kind DestinationKind
	Code string
	Path string
}

// ResolveDestination extracts the department a redirect target points at.
// Only the path of target is considered; scheme, host and query are dropped.
// It never fails: anything unparseable resolves to DestinationNone.
func ResolveDestination(target string) Destination {
	target = strings.TrimSpace(target)
	if target == "" {
		return Destination{}
	}
	u, err := url.Parse(target)
	if err != nil || u.Path == "" {
		return Destination{}
	}

	clean := path.Clean("/" + strings.TrimPrefix(u.Path, "/"))
	if !strings.HasPrefix(clean, AuthorityPrefix+"/") {
		return Destination{}
	}

	segments := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	if len(segments) < 2 || segments[1] == "" {
		return Destination{}
	}

	dest := Destination{Path: clean + "/"}
	if segments[1] == DashboardAlias {
		dest.Kind = DestinationAdmin
		return dest
	}
	dest.Kind = DestinationDepartment
	dest.Code = segments[1]
	return dest
}
