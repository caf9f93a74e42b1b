package voucher

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	appidentity "github.com/voucherdesk/backend/internal/application/identity"
	"github.com/voucherdesk/backend/internal/application/uow"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"github.com/voucherdesk/backend/internal/domain/voucher"
	"go.uber.org/zap"
)

// sequenceName is the counter voucher numbers are drawn from. It is global,
// not per company.
const sequenceName = voucher.NumberPrefix

// Service runs the voucher workflow
type Service struct {
	scope    uow.TransactionScope
	authz    Authorizer
	remover  AttachmentRemover
	events   shared.EventPublisher
	observer RetryObserver
	config   Config
	logger   *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Service
type Option func(*Service)

// WithRetryObserver reports lock contention to o
func WithRetryObserver(o RetryObserver) Option {
	return func(s *Service) { s.observer = o }
}

// WithConfig overrides DefaultConfig
func WithConfig(c Config) Option {
	return func(s *Service) { s.config = c }
}

// NewService creates a new voucher service
func NewService(scope uow.TransactionScope, authz Authorizer, remover AttachmentRemover, events shared.EventPublisher, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		scope:    scope,
		authz:    authz,
		remover:  remover,
		events:   events,
		observer: noopObserver{},
		config:   DefaultConfig(),
		logger:   logger,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrUpdateVoucher creates a voucher when id is nil and edits it otherwise
func (s *Service) CreateOrUpdateVoucher(ctx context.Context, p identity.Principal, companyID uuid.UUID, id *uuid.UUID, input VoucherInput) (*VoucherDTO, error) {
	if id == nil {
		return s.CreateVoucher(ctx, p, companyID, input)
	}
	return s.UpdateVoucher(ctx, p, companyID, *id, input)
}

// CreateVoucher numbers and stores a new PENDING voucher and freezes its
// required approvers snapshot.
func (s *Service) CreateVoucher(ctx context.Context, p identity.Principal, companyID uuid.UUID, input VoucherInput) (*VoucherDTO, error) {
	if err := s.authz.Require(ctx, p, identity.CapCreateVoucher, companyID); err != nil {
		return nil, err
	}

	var v *voucher.Voucher
	var collector uow.EventCollector
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		if err := checkAccount(ctx, repos, companyID, input); err != nil {
			return err
		}
		n, err := repos.Sequences().Next(ctx, sequenceName, repos.Vouchers().MaxNumber)
		if err != nil {
			return err
		}
		v, err = voucher.NewVoucher(companyID, p.UserID, shared.FormatNumber(voucher.NumberPrefix, n), input.content())
		if err != nil {
			return err
		}
		chain, err := loadChain(ctx, repos, companyID)
		if err != nil {
			return err
		}
		v.FreezeSnapshot(chain)
		if err := repos.Vouchers().Create(ctx, v); err != nil {
			return err
		}
		collector.Collect(v)
		return nil
	})
	if err != nil {
		s.logFailure("voucher create failed", companyID, err)
		return nil, err
	}

	s.logger.Info("voucher created",
		zap.String("voucher_id", v.ID.String()),
		zap.String("number", v.Number),
		zap.String("company_id", companyID.String()),
		zap.Strings("required_approvers", v.RequiredApproversSnapshot),
	)
	uow.Publish(ctx, s.events, s.logger, collector.Events())
	return ToVoucherDTO(v), nil
}

// UpdateVoucher edits a voucher its creator owns while nobody has decided on
// it. Attachments the edit detaches are removed from storage after commit.
func (s *Service) UpdateVoucher(ctx context.Context, p identity.Principal, companyID, id uuid.UUID, input VoucherInput) (*VoucherDTO, error) {
	if err := s.authz.Require(ctx, p, identity.CapEditVoucher, companyID); err != nil {
		return nil, err
	}

	var v *voucher.Voucher
	var detached []voucher.Attachment
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		v, err = repos.Vouchers().FindByID(ctx, companyID, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewNotFound("Voucher not found or cannot be edited.")
			}
			return err
		}
		count, err := repos.Approvals().CountByVoucher(ctx, v.ID)
		if err != nil {
			return err
		}
		if !v.CanEdit(p.UserID, count) {
			return shared.NewNotFound("Voucher not found or cannot be edited.")
		}
		if err := checkAccount(ctx, repos, companyID, input); err != nil {
			return err
		}
		detached, err = v.Edit(p.UserID, count, input.content())
		if err != nil {
			return err
		}
		return repos.Vouchers().Save(ctx, v)
	})
	if err != nil {
		s.logFailure("voucher update failed", companyID, err)
		return nil, err
	}

	s.logger.Info("voucher updated",
		zap.String("voucher_id", v.ID.String()),
		zap.String("number", v.Number),
		zap.Int("detached_attachments", len(detached)),
	)
	s.removeAttachments(ctx, voucher.StorageKeys(detached))
	return ToVoucherDTO(v), nil
}

// RecordApproval stores an approver's decision and recomputes the voucher
// status. Lock contention is retried with exponential backoff before the
// caller is told the database is busy.
func (s *Service) RecordApproval(ctx context.Context, p identity.Principal, companyID, voucherID uuid.UUID, input ApprovalInput) (*ApprovalResultDTO, error) {
	if err := s.authz.Require(ctx, p, identity.CapViewVoucherDetail, companyID); err != nil {
		return nil, err
	}
	approval, err := voucher.NewApproval(voucherID, p.UserID, input.Decision, input.Reason)
	if err != nil {
		return nil, err
	}

	var result *ApprovalResultDTO
	var collector uow.EventCollector
	for attempt := 0; ; attempt++ {
		collector.Reset()
		result, err = s.recordOnce(ctx, p, companyID, approval, &collector)
		if !errors.Is(err, shared.ErrBusy) {
			break
		}
		if attempt >= s.config.MaxRetries {
			s.observer.LockExhausted(ctx)
			s.logger.Warn("voucher lock retries exhausted",
				zap.String("voucher_id", voucherID.String()),
				zap.Int("attempts", attempt+1),
			)
			return nil, shared.ErrBusy
		}
		s.observer.LockRetried(ctx, attempt+1)
		if werr := s.sleep(ctx, s.config.BaseBackoff<<attempt); werr != nil {
			return nil, werr
		}
	}
	if err != nil {
		s.logFailure("approval refused", companyID, err)
		return nil, err
	}

	s.logger.Info("approval recorded",
		zap.String("voucher_id", voucherID.String()),
		zap.String("approver", p.Username),
		zap.String("decision", string(input.Decision)),
		zap.String("status", string(result.Status)),
	)
	uow.Publish(ctx, s.events, s.logger, collector.Events())
	return result, nil
}

func (s *Service) recordOnce(ctx context.Context, p identity.Principal, companyID uuid.UUID, approval *voucher.Approval, collector *uow.EventCollector) (*ApprovalResultDTO, error) {
	var result *ApprovalResultDTO
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		v, err := repos.Vouchers().LockForApproval(ctx, companyID, approval.VoucherID)
		if err != nil {
			return err
		}
		chain, err := loadChain(ctx, repos, companyID)
		if err != nil {
			return err
		}
		designationID, err := approverDesignation(ctx, repos, p.UserID, companyID)
		if err != nil {
			return err
		}
		approvals, err := repos.Approvals().FindByVoucher(ctx, v.ID)
		if err != nil {
			return err
		}

		approver := voucher.Approver{UserID: p.UserID, Username: p.Username}
		if err := v.CheckApprover(chain, approver, designationID, approvals); err != nil {
			return err
		}
		if err := repos.Approvals().Upsert(ctx, approval); err != nil {
			return err
		}
		v.AddDomainEvent(voucher.NewApprovalRecordedEvent(v, approval))

		merged := voucher.MergeApproval(approvals, *approval)
		if v.ApplyDecisions(chain, merged, p.UserID) {
			if err := repos.Vouchers().UpdateStatus(ctx, v); err != nil {
				return err
			}
		}
		collector.Collect(v)
		result = &ApprovalResultDTO{VoucherID: v.ID, Decision: approval.Status, Status: v.Status}
		return nil
	})
	return result, err
}

func approverDesignation(ctx context.Context, repos uow.Repositories, userID, companyID uuid.UUID) (*uuid.UUID, error) {
	m, err := repos.Memberships().FindByUserAndCompany(ctx, userID, companyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !m.IsActive || m.Group != tenancy.GroupAdminStaff {
		return nil, nil
	}
	return m.DesignationID, nil
}

// ComputeRequiredApprovers returns who must approve the voucher: the frozen
// snapshot once decided, the live chain while pending.
func (s *Service) ComputeRequiredApprovers(ctx context.Context, p identity.Principal, companyID, voucherID uuid.UUID) ([]RequiredApproverDTO, error) {
	if err := s.authz.Require(ctx, p, identity.CapViewVoucherDetail, companyID); err != nil {
		return nil, err
	}
	repos := s.scope.Repositories()
	v, err := repos.Vouchers().FindByID(ctx, companyID, voucherID)
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
	return s.requiredApprovers(ctx, repos, v, chain, approvals)
}

func (s *Service) requiredApprovers(ctx context.Context, repos uow.Repositories, v *voucher.Voucher, chain voucher.Chain, approvals []voucher.Approval) ([]RequiredApproverDTO, error) {
	approvedBy := make(map[uuid.UUID]bool)
	for _, a := range approvals {
		if a.Status == voucher.DecisionApproved {
			approvedBy[a.ApproverID] = true
		}
	}

	if v.Status.IsTerminal() {
		names, err := usernames(ctx, repos, approvals)
		if err != nil {
			return nil, err
		}
		approvedNames := make(map[string]bool)
		for id := range approvedBy {
			approvedNames[names[id]] = true
		}
		out := make([]RequiredApproverDTO, 0, len(v.RequiredApproversSnapshot))
		for _, username := range v.ComputeRequiredApprovers(chain) {
			out = append(out, RequiredApproverDTO{Username: username, HasApproved: approvedNames[username]})
		}
		return out, nil
	}

	seen := make(map[uuid.UUID]bool)
	var out []RequiredApproverDTO
	for _, level := range chain.Levels {
		for _, m := range level.Members {
			if seen[m.UserID] {
				continue
			}
			seen[m.UserID] = true
			out = append(out, RequiredApproverDTO{
				Username:    m.Username,
				Designation: level.DesignationName,
				HasApproved: approvedBy[m.UserID],
			})
		}
	}
	return out, nil
}

// ReplaceApprovalChain swaps the company's approval levels for entries and
// re-evaluates every undecided voucher against the new chain, all in one
// transaction that holds the voucher rows locked.
func (s *Service) ReplaceApprovalChain(ctx context.Context, p identity.Principal, companyID uuid.UUID, entries []ChainLevelInput) (*ChainReplaceResultDTO, error) {
	if err := appidentity.RequireSuperuser(p, "Only superusers can edit the approval workflow."); err != nil {
		return nil, err
	}
	if companyID == uuid.Nil {
		return nil, shared.ErrNoActiveCompany
	}

	result := &ChainReplaceResultDTO{}
	var collector uow.EventCollector
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		company, err := repos.Companies().FindByID(ctx, companyID)
		if err != nil {
			return err
		}
		designations, err := repos.Designations().FindByCompany(ctx, companyID)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]tenancy.Designation, len(designations))
		for _, d := range designations {
			byID[d.ID] = d
		}
		chainEntries := make([]tenancy.ChainEntry, 0, len(entries))
		for _, e := range entries {
			chainEntries = append(chainEntries, tenancy.ChainEntry{DesignationID: e.DesignationID, IsActive: e.IsActive})
		}
		levels, err := tenancy.BuildApprovalLevels(company, chainEntries, byID, p.UserID)
		if err != nil {
			return err
		}

		vouchers, err := repos.Vouchers().LockUndecided(ctx, companyID)
		if err != nil {
			return err
		}
		if err := repos.ApprovalLevels().ReplaceAll(ctx, companyID, levels); err != nil {
			return err
		}

		chain, err := loadChain(ctx, repos, companyID)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(vouchers))
		for _, v := range vouchers {
			ids = append(ids, v.ID)
		}
		approvals, err := repos.Approvals().FindByVouchers(ctx, ids)
		if err != nil {
			return err
		}

		for i := range vouchers {
			v := &vouchers[i]
			if !v.Recalculate(chain, approvals[v.ID]) {
				continue
			}
			if err := repos.Vouchers().UpdateStatus(ctx, v); err != nil {
				return err
			}
			result.NewApproved++
			collector.Collect(v)
		}
		result.Levels = len(levels)
		result.Recomputed = len(vouchers)
		collector.Add(tenancy.NewApprovalChainEditedEvent(companyID, result.Levels, result.Recomputed, result.NewApproved))
		return nil
	})
	if err != nil {
		s.logFailure("approval chain replace failed", companyID, err)
		return nil, err
	}

	s.logger.Info("approval chain replaced",
		zap.String("company_id", companyID.String()),
		zap.Int("levels", result.Levels),
		zap.Int("recomputed", result.Recomputed),
		zap.Int("new_approved", result.NewApproved),
	)
	uow.Publish(ctx, s.events, s.logger, collector.Events())
	return result, nil
}

// DeleteVoucher removes a voucher with everything it owns. Stored objects are
// removed after commit.
func (s *Service) DeleteVoucher(ctx context.Context, p identity.Principal, companyID, id uuid.UUID) error {
	if err := appidentity.RequireSuperuser(p, "Only superusers can delete vouchers."); err != nil {
		return err
	}
	var keys []string
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		v, err := repos.Vouchers().FindByID(ctx, companyID, id)
		if err != nil {
			return err
		}
		keys = voucher.StorageKeys(v.AllAttachments())
		return repos.Vouchers().Delete(ctx, companyID, v.ID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("voucher deleted",
		zap.String("voucher_id", id.String()),
		zap.String("company_id", companyID.String()),
		zap.String("deleted_by", p.Username),
	)
	s.removeAttachments(ctx, keys)
	return nil
}

func checkAccount(ctx context.Context, repos uow.Repositories, companyID uuid.UUID, input VoucherInput) error {
	if input.PaymentType != voucher.PaymentCheque || input.AccountID == nil {
		return nil
	}
	_, err := repos.BankAccounts().FindByID(ctx, companyID, *input.AccountID)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewValidationError("Account Details is required.")
	}
	return err
}

func usernames(ctx context.Context, repos uow.Repositories, approvals []voucher.Approval) (map[uuid.UUID]string, error) {
	ids := make([]uuid.UUID, 0, len(approvals))
	for _, a := range approvals {
		ids = append(ids, a.ApproverID)
	}
	users, err := repos.Users().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}

func (s *Service) removeAttachments(ctx context.Context, keys []string) {
	if s.remover == nil || len(keys) == 0 {
		return
	}
	if err := s.remover.Remove(ctx, keys); err != nil {
		s.logger.Error("failed to remove attachments", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *Service) logFailure(msg string, companyID uuid.UUID, err error) {
	switch shared.KindOf(err) {
	case shared.KindInvariantViolation, "":
		s.logger.Error(msg, zap.String("company_id", companyID.String()), zap.Error(err))
	default:
		s.logger.Warn(msg, zap.String("company_id", companyID.String()), zap.Error(err))
	}
}
