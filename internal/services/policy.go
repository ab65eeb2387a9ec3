package services

import "usersapi/internal/models"

// IsAuthorized reports whether the requester may modify the user identified
// by ownerID: either it is their own account or they are an admin.
// Listing users is not gated by this policy.
func IsAuthorized(ownerID string, requester *models.Claims) bool {
	if requester == nil {
		return false
	}
	return requester.IsAdmin || (requester.ID != "" && requester.ID == ownerID)
}
