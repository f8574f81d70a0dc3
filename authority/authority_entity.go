package authority

// Role is the closed account role enumeration. Role gating is checked
// exhaustively through the predicate methods below, there is no secondary
// admin detection path.
type Role string

const (
	RoleVibeCoder Role = "vibe_coder"
	RoleDeveloper Role = "developer"
	RoleBoth      Role = "both"
	RoleAdmin     Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleVibeCoder, RoleDeveloper, RoleBoth, RoleAdmin:
		return true
	}
	return false
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// CanPostLaunches reports whether accounts of this role may submit launches.
func (r Role) CanPostLaunches() bool {
	switch r {
	case RoleVibeCoder, RoleBoth, RoleAdmin:
		return true
	case RoleDeveloper:
		return false
	}
	return false
}

// CanSubmitProposals reports whether accounts of this role may bid on launches.
func (r Role) CanSubmitProposals() bool {
	switch r {
	case RoleDeveloper, RoleBoth, RoleAdmin:
		return true
	case RoleVibeCoder:
		return false
	}
	return false
}
