package voucher

import (
	"sort"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
)

// Approver is a user eligible to decide on vouchers
type Approver struct {
	UserID   uuid.UUID
	Username string
}

// Level is one active approval level with its current eligible members
type Level struct {
	LevelID         uuid.UUID
	DesignationID   uuid.UUID
	DesignationName string
	Order           int
	Members         []Approver
}

// Has reports whether userID is an eligible member of the level
func (l Level) Has(userID uuid.UUID) bool {
	return shared.AnyWhere(l.Members, func(a Approver) bool { return a.UserID == userID })
}

// ApprovedBy reports whether any member of the level has approved
func (l Level) ApprovedBy(approvals []Approval) bool {
	return shared.AnyWhere(approvals, func(a Approval) bool {
		return a.Status == DecisionApproved && l.Has(a.ApproverID)
	})
}

// Chain is the live approval chain of a company: its active levels in
// ascending order, each with the members who may act for it.
type Chain struct {
	Levels []Level
}

// BuildChain assembles the live chain. Only active levels count, and a member
// is eligible when the membership is active Admin Staff holding the level's
// designation and the user is active.
func BuildChain(levels []tenancy.ApprovalLevel, designations []tenancy.Designation, memberships []tenancy.Membership, users []identity.User) Chain {
	names := make(map[uuid.UUID]string, len(designations))
	for _, d := range designations {
		names[d.ID] = d.Name
	}
	usernames := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		if u.IsActive {
			usernames[u.ID] = u.Username
		}
	}

	active := shared.Where(levels, func(l tenancy.ApprovalLevel) bool { return l.IsActive })
	sort.SliceStable(active, func(i, j int) bool { return active[i].Order < active[j].Order })

	chain := Chain{Levels: make([]Level, 0, len(active))}
	for _, l := range active {
		level := Level{
			LevelID:         l.ID,
			DesignationID:   l.DesignationID,
			DesignationName: names[l.DesignationID],
			Order:           l.Order,
		}
		for _, m := range memberships {
			if !m.IsApprover() || m.CompanyID != l.CompanyID || *m.DesignationID != l.DesignationID {
				continue
			}
			username, ok := usernames[m.UserID]
			if !ok || level.Has(m.UserID) {
				continue
			}
			level.Members = append(level.Members, Approver{UserID: m.UserID, Username: username})
		}
		sort.Slice(level.Members, func(i, j int) bool { return level.Members[i].Username < level.Members[j].Username })
		chain.Levels = append(chain.Levels, level)
	}
	return chain
}

// IsEmpty reports whether the chain has no active levels
func (c Chain) IsEmpty() bool {
	return len(c.Levels) == 0
}

// RequiredApprovers returns the union of all level members, in level order
func (c Chain) RequiredApprovers() []Approver {
	seen := make(map[uuid.UUID]bool)
	var out []Approver
	for _, l := range c.Levels {
		for _, m := range l.Members {
			if seen[m.UserID] {
				continue
			}
			seen[m.UserID] = true
			out = append(out, m)
		}
	}
	return out
}

// RequiredUsernames returns the usernames of RequiredApprovers
func (c Chain) RequiredUsernames() []string {
	approvers := c.RequiredApprovers()
	out := make([]string, 0, len(approvers))
	for _, a := range approvers {
		out = append(out, a.Username)
	}
	return out
}

// Requires reports whether userID is in the live required set
func (c Chain) Requires(userID uuid.UUID) bool {
	return shared.AnyWhere(c.Levels, func(l Level) bool { return l.Has(userID) })
}

// LevelForDesignation returns the active level of designationID
func (c Chain) LevelForDesignation(designationID uuid.UUID) (*Level, bool) {
	return shared.FirstWhere(c.Levels, func(l Level) bool { return l.DesignationID == designationID })
}

// PreviousLevel returns the nearest lower-order active level. It gates
// approvals even when nobody currently holds its designation.
func (c Chain) PreviousLevel(level Level) (*Level, bool) {
	for i := len(c.Levels) - 1; i >= 0; i-- {
		if c.Levels[i].Order < level.Order {
			return &c.Levels[i], true
		}
	}
	return nil, false
}

// Evaluate derives the status the decisions imply. Any rejection is a veto.
// Otherwise every staffed level needs at least one approval from one of its
// members; an empty chain approves outright.
func (c Chain) Evaluate(approvals []Approval) Status {
	if shared.AnyWhere(approvals, func(a Approval) bool { return a.Status == DecisionRejected }) {
		return StatusRejected
	}
	if c.IsEmpty() {
		return StatusApproved
	}
	if _, waiting := c.WaitingFor(approvals); waiting {
		return StatusPending
	}
	return StatusApproved
}

// WaitingFor returns the first staffed level with no approval yet
func (c Chain) WaitingFor(approvals []Approval) (*Level, bool) {
	return shared.FirstWhere(c.Levels, func(l Level) bool {
		return len(l.Members) > 0 && !l.ApprovedBy(approvals)
	})
}
