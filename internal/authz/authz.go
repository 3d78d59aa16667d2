// Package authz decides whether an authenticated principal may perform an
// action on a resource class.
//
// The engine is a pure function over facts the caller has already resolved:
// the principal, the resource class and an Action that carries the owning
// user id when ownership matters. It performs no I/O and holds no state, so it
// is safe for concurrent use.
//
// Usage:
//
//	owner := authz.OwnedBy(project.ManagerID)
//	if err := authz.Decide(principal, authz.MaterialRequests, authz.Create(owner)); err != nil {
//	    return err // *apperrors.AppError with HTTP 403
//	}
package authz

import (
	"fmt"

	"buildmatrix/internal/apperrors"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleProjectManager Role = "project_manager"
	RoleEmployee       Role = "employee"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleProjectManager, RoleEmployee}

// ParseRole validates s as a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("authz: invalid role %q", s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProjectManager, RoleEmployee:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Principal is the authenticated identity making a request.
type Principal struct {
	ID   int64
	Role Role
}

// Resource is a class of protected entities.
type Resource int

const (
	Employees Resource = iota + 1
	Projects
	Inventory
	MaterialRequests
	Tasks
)

func (r Resource) String() string {
	switch r {
	case Employees:
		return "employees"
	case Projects:
		return "projects"
	case Inventory:
		return "inventory"
	case MaterialRequests:
		return "material requests"
	case Tasks:
		return "tasks"
	}
	return "unknown"
}

// Kind tags an Action.
type Kind int

const (
	KindList Kind = iota + 1
	KindReadOne
	KindReadScoped
	KindCreate
	KindUpdate
	KindUpdateStatus
	KindDelete
)

// Owner is the user an entity belongs to outside the admin role. The zero
// value is an unknown owner, which never matches a principal.
type Owner struct {
	id    int64
	known bool
}

// OwnedBy returns a known owner.
func OwnedBy(id int64) Owner {
	return Owner{id: id, known: true}
}

// OwnerOf converts a nullable owner id, such as a project without a manager.
func OwnerOf(id *int64) Owner {
	if id == nil {
		return Owner{}
	}
	return OwnedBy(*id)
}

// Is reports whether the owner is the given user.
func (o Owner) Is(userID int64) bool {
	return o.known && o.id == userID
}

// Action is what a principal wants to do. Build it with the constructors
// below; the Subject of a scoped read is the id from the request path.
type Action struct {
	Kind    Kind
	Owner   Owner
	Subject int64
}

// List is an unscoped "list all".
func List() Action { return Action{Kind: KindList} }

// ReadOne reads a single entity whose owner has been resolved.
func ReadOne(owner Owner) Action { return Action{Kind: KindReadOne, Owner: owner} }

// ReadScoped lists entities belonging to subjectID via a "by manager" or
// "by employee" path.
func ReadScoped(subjectID int64) Action { return Action{Kind: KindReadScoped, Subject: subjectID} }

// Create creates an entity that will belong to owner.
func Create(owner Owner) Action { return Action{Kind: KindCreate, Owner: owner} }

// Update modifies any field of an entity.
func Update(owner Owner) Action { return Action{Kind: KindUpdate, Owner: owner} }

// UpdateStatus modifies only the status field of an entity.
func UpdateStatus(owner Owner) Action { return Action{Kind: KindUpdateStatus, Owner: owner} }

// Delete removes an entity.
func Delete() Action { return Action{Kind: KindDelete} }

// Allowed reports whether p may perform act on res.
func Allowed(p Principal, res Resource, act Action) bool {
	return Decide(p, res, act) == nil
}

// Decide returns nil when p may perform act on res, and a Forbidden
// AppError otherwise. Admin is checked first, then the resource policy for
// the principal's role; anything not explicitly granted is denied.
func Decide(p Principal, res Resource, act Action) error {
	if !p.Role.Valid() {
		return apperrors.Forbidden("Unknown role")
	}
	if p.Role == RoleAdmin {
		if res.valid() && act.Kind.valid() {
			return nil
		}
		return deny(res, act)
	}

	var ok bool
	switch res {
	case Employees:
		ok = false
	case Projects:
		ok = projectPolicy(p, act)
	case Inventory:
		ok = inventoryPolicy(p, act)
	case MaterialRequests:
		ok = materialRequestPolicy(p, act)
	case Tasks:
		ok = taskPolicy(p, act)
	}
	if ok {
		return nil
	}
	return deny(res, act)
}

// DecideRole answers for the most favourable owner: the principal itself.
// Route gates call it before a record is loaded, so a role that could never
// perform act is refused the same way whether or not the record exists.
func DecideRole(p Principal, res Resource, act Action) error {
	switch act.Kind {
	case KindReadScoped:
		act.Subject = p.ID
	case KindReadOne, KindCreate, KindUpdate, KindUpdateStatus:
		act.Owner = OwnedBy(p.ID)
	}
	return Decide(p, res, act)
}

// inventoryPolicy: any role may read, only admin writes.
func inventoryPolicy(_ Principal, act Action) bool {
	return act.Kind == KindList || act.Kind == KindReadOne
}

func projectPolicy(p Principal, act Action) bool {
	switch p.Role {
	case RoleProjectManager:
		return act.Kind == KindReadScoped && act.Subject == p.ID
	case RoleEmployee, RoleAdmin:
		return false
	}
	return false
}

func materialRequestPolicy(p Principal, act Action) bool {
	switch p.Role {
	case RoleProjectManager:
		switch act.Kind {
		case KindReadScoped:
			return act.Subject == p.ID
		case KindReadOne, KindCreate:
			return act.Owner.Is(p.ID)
		}
		return false
	case RoleEmployee, RoleAdmin:
		return false
	}
	return false
}

func taskPolicy(p Principal, act Action) bool {
	switch p.Role {
	case RoleProjectManager:
		return act.Kind.valid()
	case RoleEmployee:
		switch act.Kind {
		case KindReadScoped:
			return act.Subject == p.ID
		case KindReadOne, KindUpdateStatus:
			return act.Owner.Is(p.ID)
		}
		return false
	case RoleAdmin:
		return true
	}
	return false
}

func (r Resource) valid() bool {
	return r >= Employees && r <= Tasks
}

func (k Kind) valid() bool {
	return k >= KindList && k <= KindDelete
}

func deny(res Resource, act Action) error {
	switch act.Kind {
	case KindReadScoped, KindReadOne:
		return apperrors.Forbidden(fmt.Sprintf("You can only view your own %s", res))
	case KindCreate:
		if res == MaterialRequests {
			return apperrors.Forbidden("You can only create requests for your own projects")
		}
	case KindUpdateStatus:
		return apperrors.Forbidden(fmt.Sprintf("You can only update your own %s", res))
	}
	return apperrors.Forbidden(fmt.Sprintf("Access denied to %s", res))
}
