package core

// Requirement describes what an action demands of the caller: an admin
// role, ownership of the target resource, or both sides of the same
// coin when the resource is the caller's own account.
type Requirement struct {
	ownerID  string
	hasOwner bool
}

// AdminOnly requires the ADMIN role.
func AdminOnly() Requirement {
	return Requirement{}
}

// OwnerOrAdmin requires the caller to own the target resource or hold
// the ADMIN role.
func OwnerOrAdmin(ownerID string) Requirement {
	return Requirement{ownerID: ownerID, hasOwner: true}
}

// SelfOrAdmin requires the caller to be the target user or an admin.
// Semantically identical to OwnerOrAdmin; the resource is the identity
// itself.
func SelfOrAdmin(targetUserID string) Requirement {
	return Requirement{ownerID: targetUserID, hasOwner: true}
}

// Authorize decides whether the identity satisfies the requirement.
// Pure and deterministic: role check first, ownership second, an ADMIN
// always passes. Denials are uniformly ErrForbidden with no detail on
// which check failed.
func Authorize(id Identity, req Requirement) error {
	if id.Role == RoleAdmin {
		return nil
	}
	if req.hasOwner && id.SubjectID == req.ownerID {
		return nil
	}
	return ErrForbidden
}
