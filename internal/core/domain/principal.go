package domain

type UserID string

type TeamID string

type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Principal is the authenticated actor behind a request. It is built fresh
// from the account row on every request and never persisted.
type Principal struct {
	ID     UserID
	Role   Role
	TeamID TeamID // empty when the account has no team
}

func (p *Principal) HasTeam() bool {
	return p != nil && p.TeamID != ""
}

// AccessIntent is what the caller wants to do with a resource.
type AccessIntent int

const (
	IntentRead AccessIntent = iota
	IntentWrite
)

// Ownable is the minimal shape any access-controlled resource exposes.
// The resolver never needs more than these two fields.
type Ownable interface {
	OwnerUser() UserID
	OwnerTeam() TeamID // empty when the resource is not team-owned
}

// AccessDecision is the result of resolving a Principal against an Ownable.
// Invariant: CanWrite implies CanRead.
type AccessDecision struct {
	CanRead  bool
	CanWrite bool
}

// Ownership is a plain Ownable value for callers that hold only the two
// ownership fields of a resource.
type Ownership struct {
	UserID UserID
	TeamID TeamID
}

func (o Ownership) OwnerUser() UserID { return o.UserID }
func (o Ownership) OwnerTeam() TeamID { return o.TeamID }

// OwnershipFilter is the predicate form of the access rule, reused by list
// queries so listings and single-resource checks cannot disagree.
type OwnershipFilter struct {
	UserID UserID
	TeamID TeamID // empty when the principal has no team
	All    bool   // admin sees everything
}

func (f OwnershipFilter) Matches(o Ownable) bool {
	if f.All {
		return true
	}
	if o.OwnerUser() == f.UserID {
		return true
	}
	return f.TeamID != "" && o.OwnerTeam() == f.TeamID
}

// Clause renders the filter as a parameterized SQL fragment for query layers
// that push the predicate into the store.
func (f OwnershipFilter) Clause() (string, []any) {
	if f.All {
		return "1=1", nil
	}
	if f.TeamID == "" {
		return "owner_user_id = ?", []any{string(f.UserID)}
	}
	return "(owner_user_id = ? OR owner_team_id = ?)", []any{string(f.UserID), string(f.TeamID)}
}
