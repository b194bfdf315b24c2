// Package access narrows a dataset to the rows a viewer may see, based on an
// already-authenticated identity and role.
package access

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/onbscore/internal/domain/columns"
	"github.com/okian/onbscore/internal/domain/dataset"
)

// Role is the viewer's role.
type Role string

const (
	Leader Role = "leader"
	Member Role = "member"
)

// AllMembers selects the whole dataset for a leader.
const AllMembers = "all"

// ParseRole accepts the canonical names plus the legacy "lider" and "user".
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "leader", "lider", "líder":
		return Leader, nil
	case "member", "user":
		return Member, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidIdentity, s)
}

// Identity is the resolved viewer. Team is only meaningful for leaders.
type Identity struct {
	Email string
	Role  Role
	Team  []string
}

// NewIdentity normalizes emails to lowercase and drops blank or duplicated
// team entries. Members never carry a team.
func NewIdentity(email string, role Role, team []string) (Identity, error) {
	email = normalizeEmail(email)
	if email == "" {
		return Identity{}, fmt.Errorf("%w: email is required", ErrInvalidIdentity)
	}
	if role != Leader && role != Member {
		return Identity{}, fmt.Errorf("%w: unknown role %q", ErrInvalidIdentity, role)
	}
	id := Identity{Email: email, Role: role}
	if role == Leader {
		seen := map[string]struct{}{}
		for _, t := range team {
			t = normalizeEmail(t)
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			id.Team = append(id.Team, t)
		}
	}
	return id, nil
}

// Members lists the emails a leader may select: the team plus themself,
// sorted. A member's list is only their own email.
func (id Identity) Members() []string {
	if id.Role != Leader {
		return []string{id.Email}
	}
	set := map[string]struct{}{id.Email: {}}
	for _, t := range id.Team {
		set[t] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// CanView reports whether the identity may see rows owned by owner.
func (id Identity) CanView(owner string) bool {
	owner = normalizeEmail(owner)
	if owner == id.Email {
		return true
	}
	if id.Role != Leader {
		return false
	}
	for _, t := range id.Team {
		if t == owner {
			return true
		}
	}
	return false
}

// Scope is the outcome of resolving a viewer's selection.
type Scope struct {
	// Owner is the email rows are filtered by; empty means no filtering.
	Owner string
	// Unscoped is set when the dataset has no owner column to filter on.
	Unscoped bool
}

// Resolve decides which owner's rows the identity sees. member is the leader's
// selection: "" or AllMembers for everything, else an email from Members().
// Members always see their own rows and the selection is ignored.
func Resolve(id Identity, member string) (Scope, error) {
	if id.Role != Leader {
		return Scope{Owner: id.Email}, nil
	}
	member = normalizeEmail(member)
	if member == "" || member == AllMembers {
		return Scope{}, nil
	}
	if member != id.Email && !id.CanView(member) {
		return Scope{}, fmt.Errorf("%w: %s", ErrNotInTeam, member)
	}
	return Scope{Owner: member}, nil
}

// Filter returns the rows of ds visible to id under the leader's selection.
// Without an owner column no row can be attributed and ds is returned whole
// with Scope.Unscoped set.
func Filter(ds *dataset.Dataset, m columns.Map, id Identity, member string) (*dataset.Dataset, Scope, error) {
	scope, err := Resolve(id, member)
	if err != nil {
		return nil, Scope{}, err
	}
	if scope.Owner == "" {
		return ds, scope, nil
	}
	if !m.Has(columns.Owner) {
		scope.Unscoped = true
		return ds, scope, nil
	}
	out := ds.Filter(func(r dataset.Row) bool {
		return normalizeEmail(m.Record(r).Text(columns.Owner)) == scope.Owner
	})
	return out, scope, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
