// Package permissions holds the pure role/verb decision functions. Handlers
// consult these before touching the store; none of them have side effects.
package permissions

import (
	"net/http"

	"github.com/littlelemon/restaurant-api/internal/roles"
)

func isSafe(verb string) bool {
	switch verb {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// CanAccessMenuOrCategory: reads are open to every role, writes are
// manager-only.
func CanAccessMenuOrCategory(role roles.Role, verb string) bool {
	if isSafe(verb) {
		return true
	}
	return role == roles.Manager
}

// CanManageManagers gates the manager roster endpoints. Managers only,
// listing included.
func CanManageManagers(role roles.Role, verb string) bool {
	return role == roles.Manager
}

// CanManageDeliveryCrew gates the delivery crew roster endpoints.
func CanManageDeliveryCrew(role roles.Role, verb string) bool {
	return role == roles.Manager
}

// CanDeleteOwnedResource permits only the owner to DELETE; every other
// verb/owner combination is denied.
func CanDeleteOwnedResource(verb string, isOwner bool) bool {
	return verb == http.MethodDelete && isOwner
}

// CanAccessOrder decides mutation and customer read access to a single order.
// Manager visibility on GET is handled by the lookup itself, not here.
func CanAccessOrder(role roles.Role, verb string, isOwner bool) bool {
	switch role {
	case roles.Manager:
		switch verb {
		case http.MethodDelete, http.MethodPut, http.MethodPatch:
			return true
		}
		return false
	case roles.DeliveryCrew:
		return verb == http.MethodPatch
	default:
		if !isOwner {
			return false
		}
		switch verb {
		case http.MethodGet, http.MethodPut, http.MethodPatch:
			return true
		}
		return false
	}
}
