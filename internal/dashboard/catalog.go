package dashboard

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/meridian-campus/meridian-campus/internal/rbac"
)

// SectionID identifies one dashboard section.
type SectionID string

// Per-role section catalogs. A role's catalog is the complete set of
// sections its dashboard can ever show; visibility overrides may only hide
// members of this set.
var (
	studentSections = []SectionID{
		"overview",
		"courses",
		"grades",
		"attendance",
		"timetable",
		"assignments",
		"finance",
		"documents",
		"announcements",
		"support",
	}

	alumniSections = []SectionID{
		"overview",
		"transcripts",
		"documents",
		"events",
		"giving",
		"career",
		"directory",
		"announcements",
		"support",
	}

	facultySections = []SectionID{
		"overview",
		"courses",
		"gradebook",
		"timetable",
		"advising",
		"announcements",
	}

	// Every other role gets the generic dashboard.
	genericSections = []SectionID{
		"overview",
		"announcements",
		"support",
	}
)

// DefaultSections returns the full catalog for a role. Unknown roles fall
// back to the generic catalog so a stale role claim still renders something
// harmless.
func DefaultSections(role rbac.RoleID) []SectionID {
	var src []SectionID
	switch role {
	case rbac.RoleStudent:
		src = studentSections
	case rbac.RoleAlumni:
		src = alumniSections
	case rbac.RoleFaculty:
		src = facultySections
	default:
		src = genericSections
	}
	out := make([]SectionID, len(src))
	copy(out, src)
	return out
}

// KnownSection reports whether a section id belongs to the role's catalog.
func KnownSection(role rbac.RoleID, section SectionID) bool {
	for _, s := range DefaultSections(role) {
		if s == section {
			return true
		}
	}
	return false
}

var titleCaser = cases.Title(language.English)

// SectionTitle renders a section id as a display label.
func SectionTitle(section SectionID) string {
	return titleCaser.String(strings.ReplaceAll(string(section), "_", " "))
}
