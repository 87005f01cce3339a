package plan

import "github.com/okian/resplan/internal/domain/model"

// Team is an immutable view of a team record.
type Team struct {
	id          string
	displayName string
	permissions *model.TeamPermissions
}

// FromTeam deep-copies a wire team.
func FromTeam(t model.Team) *Team {
	return &Team{id: t.ID, displayName: t.DisplayName, permissions: clonePermissions(t.TeamPermissions)}
}

func (t *Team) ID() string          { return t.id }
func (t *Team) DisplayName() string { return t.displayName }

// Permissions returns a copy of the ACLs, or nil when the team has none.
func (t *Team) Permissions() *model.TeamPermissions { return clonePermissions(t.permissions) }

// WithDisplayName returns a copy with the display name replaced.
func (t *Team) WithDisplayName(displayName string) *Team {
	c := *t
	c.displayName = displayName
	return &c
}

// ToOriginal returns the wire form.
func (t *Team) ToOriginal() model.Team {
	return model.Team{ID: t.id, DisplayName: t.displayName, TeamPermissions: clonePermissions(t.permissions)}
}

func clonePermissions(p *model.TeamPermissions) *model.TeamPermissions {
	if p == nil {
		return nil
	}
	return &model.TeamPermissions{
		Read:  model.Permission{Allow: cloneOrNil(p.Read.Allow)},
		Write: model.Permission{Allow: cloneOrNil(p.Write.Allow)},
	}
}
