package voucher

import (
	"context"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/application/uow"
	"github.com/voucherdesk/backend/internal/domain/voucher"
)

// loadChain assembles the live approval chain of companyID from repos. Inside
// a transaction it sees the transaction's own writes.
func loadChain(ctx context.Context, repos uow.Repositories, companyID uuid.UUID) (voucher.Chain, error) {
	levels, err := repos.ApprovalLevels().FindActiveByCompany(ctx, companyID)
	if err != nil {
		return voucher.Chain{}, err
	}
	if len(levels) == 0 {
		return voucher.Chain{}, nil
	}

	designations, err := repos.Designations().FindByCompany(ctx, companyID)
	if err != nil {
		return voucher.Chain{}, err
	}
	designationIDs := make([]uuid.UUID, 0, len(levels))
	for _, l := range levels {
		designationIDs = append(designationIDs, l.DesignationID)
	}
	memberships, err := repos.Memberships().FindApprovers(ctx, companyID, designationIDs)
	if err != nil {
		return voucher.Chain{}, err
	}
	userIDs := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		userIDs = append(userIDs, m.UserID)
	}
	users, err := repos.Users().FindByIDs(ctx, userIDs)
	if err != nil {
		return voucher.Chain{}, err
	}
	return voucher.BuildChain(levels, designations, memberships, users), nil
}
