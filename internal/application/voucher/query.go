package voucher

import (
	"context"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/voucher"
)

// ListVouchers lists a company's vouchers with their decision counts
func (s *Service) ListVouchers(ctx context.Context, p identity.Principal, companyID uuid.UUID, filter voucher.ListFilter) (*shared.Paginated[VoucherSummaryDTO], error) {
	if err := s.authz.Require(ctx, p, identity.CapViewVoucherList, companyID); err != nil {
		return nil, err
	}
	paging := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalized()
	filter.Page, filter.PageSize = paging.Page, paging.PageSize

	rows, total, err := s.scope.Repositories().Vouchers().FindAll(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]VoucherSummaryDTO, 0, len(rows))
	for _, r := range rows {
		items = append(items, VoucherSummaryDTO{
			ID:            r.ID,
			Number:        r.Number,
			Date:          r.Date,
			PaymentType:   r.PaymentType,
			PayTo:         r.PayTo,
			Status:        r.Status,
			Total:         r.Total.StringFixed(2),
			ApprovedCount: r.ApprovedCount,
			RejectedCount: r.RejectedCount,
			CreatedAt:     r.CreatedAt,
		})
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetVoucherDetail returns a voucher with its decisions, required approvers
// and what the viewer may do with it.
func (s *Service) GetVoucherDetail(ctx context.Context, p identity.Principal, companyID, id uuid.UUID) (*VoucherDetailDTO, error) {
	if err := s.authz.Require(ctx, p, identity.CapViewVoucherDetail, companyID); err != nil {
		return nil, err
	}
	repos := s.scope.Repositories()
	v, err := repos.Vouchers().FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	approvals, err := repos.Approvals().FindByVoucher(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	chain, err := loadChain(ctx, repos, companyID)
	if err != nil {
		return nil, err
	}
	required, err := s.requiredApprovers(ctx, repos, v, chain, approvals)
	if err != nil {
		return nil, err
	}
	names, err := usernames(ctx, repos, approvals)
	if err != nil {
		return nil, err
	}

	detail := &VoucherDetailDTO{
		VoucherDTO:        *ToVoucherDTO(v),
		Approvals:         make([]ApprovalDTO, 0, len(approvals)),
		RequiredApprovers: required,
		CanEdit:           v.CanEdit(p.UserID, int64(len(approvals))),
	}
	for _, a := range approvals {
		detail.Approvals = append(detail.Approvals, ApprovalDTO{
			ApproverID:      a.ApproverID,
			Approver:        names[a.ApproverID],
			Status:          a.Status,
			RejectionReason: a.RejectionReason,
			DecidedAt:       a.DecidedAt,
		})
	}

	if v.Status == voucher.StatusPending {
		if level, ok := chain.WaitingFor(approvals); ok {
			detail.WaitingFor = level.DesignationName
		}
		designationID, err := approverDesignation(ctx, repos, p.UserID, companyID)
		if err != nil {
			return nil, err
		}
		approver := voucher.Approver{UserID: p.UserID, Username: p.Username}
		detail.CanApprove = v.CheckApprover(chain, approver, designationID, approvals) == nil
	}
	return detail, nil
}

