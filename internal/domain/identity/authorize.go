package identity

import (
	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
)

// Denial reasons returned by Authorize
const (
	ReasonNoActiveCompany   = "no active company selected"
	ReasonNotMember         = "not an active member of the company"
	ReasonCapabilityMissing = "permission denied"
	ReasonUnknownCapability = "unknown capability"
)

// Decision is the outcome of an authorization check
type Decision struct {
	Allowed bool
	Reason  string
}

// Err converts a denial into a PermissionDenied domain error, or nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonNoActiveCompany:
		return shared.ErrNoActiveCompany
	case ReasonNotMember:
		return shared.NewPermissionDenied("You do not have access to this company.")
	}
	return shared.NewPermissionDenied("You do not have permission to perform this action.")
}

// Authorize decides whether p may use capability c in companyID. member
// reports an active membership of p in companyID, an active company. perm is
// the stored permission row for (p, companyID), or nil if none exists, in
// which case the capability defaults apply. It has no side effects.
func Authorize(p Principal, c Capability, companyID uuid.UUID, member bool, perm *UserPermission) Decision {
	if p.IsSuperuser {
		return Decision{Allowed: true}
	}
	if companyID == uuid.Nil {
		return Decision{Reason: ReasonNoActiveCompany}
	}
	if !member {
		return Decision{Reason: ReasonNotMember}
	}
	if !c.IsValid() {
		return Decision{Reason: ReasonUnknownCapability}
	}

	granted := c.DefaultAllowed()
	if perm != nil {
		granted = perm.Has(c)
	}
	if !granted {
		return Decision{Reason: ReasonCapabilityMissing}
	}
	return Decision{Allowed: true}
}
