package domain

import "slices"

// Identity is the caller as established by the transport layer for one request.
// EntityIDs scopes which entities the caller may touch; "*" grants every entity.
type Identity struct {
	UserID    string   `json:"userID"`
	EntityIDs []string `json:"entityIDs"`
}

// AllEntities is the wildcard entity grant.
const AllEntities = "*"

// CanAccess reports whether the identity is scoped to entityID.
func (i Identity) CanAccess(entityID string) bool {
	return slices.Contains(i.EntityIDs, AllEntities) || slices.Contains(i.EntityIDs, entityID)
}

// Unrestricted reports whether the identity holds the wildcard grant.
func (i Identity) Unrestricted() bool {
	return slices.Contains(i.EntityIDs, AllEntities)
}
