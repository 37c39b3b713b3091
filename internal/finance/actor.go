package finance

import "family-portal/internal/models"

// Actor identifies the authenticated caller of a finance operation.
// The HTTP layer resolves it once per request and passes it down; the
// core never reads the current user from ambient state.
type Actor struct {
	UserID  uint
	IsAdmin bool
}

// canUseAccount implements the three-way visibility rule: the actor owns
// the account, the account is shared (no owner), or the actor is admin.
func (a Actor) canUseAccount(acc *models.Account) bool {
	return a.IsAdmin || acc.OwnerID == nil || *acc.OwnerID == a.UserID
}

// canEditOwned covers resources with a mandatory owner (entries, rules).
func (a Actor) canEditOwned(ownerID uint) bool {
	return a.IsAdmin || ownerID == a.UserID
}

// canEditShared covers resources with an optional owner (categories).
func (a Actor) canEditShared(ownerID *uint) bool {
	return a.IsAdmin || ownerID == nil || *ownerID == a.UserID
}
