package dashboard

import (
	"context"
	"fmt"

	"github.com/meridian-campus/meridian-campus/internal/rbac"
	"github.com/meridian-campus/meridian-campus/internal/shared"
)

// RepositoryPort defines persistence for visibility overrides.
type RepositoryPort interface {
	Get(ctx context.Context, userID int64, role rbac.RoleID) ([]SectionID, bool, error)
	Save(ctx context.Context, userID int64, role rbac.RoleID, sections []SectionID) error
}

// AuditPort records admin visibility changes.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service resolves and mutates per-user dashboard visibility. Concurrent
// toggles by different admins are last-writer-wins; that race is accepted.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// VisibleSections returns the sections a user's dashboard shows for a role.
// With no override record the role's full default catalog applies. Stored
// sets are re-intersected against the catalog so a section later removed
// from the catalog can never resurface.
func (s *Service) VisibleSections(ctx context.Context, userID int64, role rbac.RoleID) ([]SectionID, error) {
	stored, found, err := s.repo.Get(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	if !found {
		return DefaultSections(role), nil
	}
	return intersectCatalog(role, stored), nil
}

// ToggleResult reports the outcome of a toggle command.
type ToggleResult struct {
	Sections []SectionID
	// Reverted is set when persistence failed and Sections is the
	// pre-toggle state the caller must fall back to.
	Reverted bool
}

// ToggleSection flips one section's visibility and persists the resulting
// full set. On persistence failure the pre-toggle set is returned with
// Reverted=true alongside the error, so callers can roll their local state
// back instead of silently desyncing. Toggling a section id outside the
// role's catalog is a no-op.
func (s *Service) ToggleSection(ctx context.Context, actorID, effectiveID, userID int64, role rbac.RoleID, section SectionID) (ToggleResult, error) {
	current, err := s.VisibleSections(ctx, userID, role)
	if err != nil {
		return ToggleResult{}, err
	}
	if !KnownSection(role, section) {
		// Unknown ids must never be persisted.
		return ToggleResult{Sections: current}, nil
	}

	next := intersectCatalog(role, toggle(current, section))
	if err := s.repo.Save(ctx, userID, role, next); err != nil {
		return ToggleResult{Sections: current, Reverted: true}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:     actorID,
			EffectiveID: effectiveID,
			Action:      "dashboard.toggle_section",
			Entity:      "dashboard_visibility",
			EntityID:    fmt.Sprintf("%d:%s", userID, role),
			Meta:        map[string]any{"section": string(section)},
		})
	}
	return ToggleResult{Sections: next}, nil
}

func toggle(current []SectionID, section SectionID) []SectionID {
	out := make([]SectionID, 0, len(current)+1)
	removed := false
	for _, s := range current {
		if s == section {
			removed = true
			continue
		}
		out = append(out, s)
	}
	if removed {
		return out
	}
	return append(out, section)
}

// intersectCatalog filters stored sections to the role catalog, preserving
// catalog order.
func intersectCatalog(role rbac.RoleID, stored []SectionID) []SectionID {
	member := make(map[SectionID]struct{}, len(stored))
	for _, s := range stored {
		member[s] = struct{}{}
	}
	out := make([]SectionID, 0, len(stored))
	for _, s := range DefaultSections(role) {
		if _, ok := member[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
