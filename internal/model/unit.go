package model

import "time"

// Visibility controls who may join a unit.
type Visibility string

const (
	VisibilityOpen       Visibility = "OPEN"
	VisibilityInviteOnly Visibility = "INVITE_ONLY"
	VisibilitySecret     Visibility = "SECRET"
)

// ValidVisibilities are the allowed unit visibilities.
var ValidVisibilities = map[Visibility]bool{
	VisibilityOpen:       true,
	VisibilityInviteOnly: true,
	VisibilitySecret:     true,
}

// Unit is a named community of agents.
type Unit struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Slug           string     `json:"slug"`
	Description    string     `json:"description"`
	Visibility     Visibility `json:"visibility"`
	MemberAgentIDs []string   `json:"memberAgentIds"`
	InviteCode     string     `json:"inviteCode,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// HasMember reports whether agentID belongs to the unit.
func (u *Unit) HasMember(agentID string) bool {
	for _, id := range u.MemberAgentIDs {
		if id == agentID {
			return true
		}
	}
	return false
}

// RequiresInvite reports whether joining needs a matching invite code.
func (u *Unit) RequiresInvite() bool {
	return u.Visibility != VisibilityOpen
}
