package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appvoucher "github.com/voucherdesk/backend/internal/application/voucher"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/voucher"
	"github.com/voucherdesk/backend/internal/infrastructure/logger"
	"github.com/voucherdesk/backend/internal/infrastructure/storage"
	"github.com/voucherdesk/backend/internal/infrastructure/telemetry"
	"github.com/voucherdesk/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Multipart field names of voucher create and edit
const (
	fieldMainFiles       = "main_files"
	fieldChequeFiles     = "cheque_files"
	fieldParticularFiles = "particular_files_%d"
)

// AttachmentStore is the part of object storage the voucher glue uses
type AttachmentStore interface {
	Upload(ctx context.Context, storageKey string, body io.Reader, size int64, contentType string) error
	DeleteObject(ctx context.Context, storageKey string) error
}

// VoucherHandler handles voucher endpoints. Files are uploaded before the
// engine is called and removed again when it refuses the input.
type VoucherHandler struct {
	BaseHandler
	vouchers *appvoucher.Service
	store    AttachmentStore
	now      func() time.Time
}

// NewVoucherHandler creates a new VoucherHandler
func NewVoucherHandler(vouchers *appvoucher.Service, store AttachmentStore) *VoucherHandler {
	return &VoucherHandler{vouchers: vouchers, store: store, now: time.Now}
}

// VoucherForm is the non-file part of the multipart voucher body.
// particulars is a JSON array of {"description", "amount"}; the files of
// particular i ride in particular_files_<i>.
type VoucherForm struct {
	VoucherDate  string `form:"voucher_date" binding:"required,datetime=2006-01-02"`
	PaymentType  string `form:"payment_type" binding:"required,payment_type"`
	NameTitle    string `form:"name_title" binding:"required,oneof=MR MRS MS"`
	PayTo        string `form:"pay_to" binding:"required,max=200"`
	ChequeNumber string `form:"cheque_number" binding:"max=50"`
	ChequeDate   string `form:"cheque_date" binding:"omitempty,datetime=2006-01-02"`
	AccountID    string `form:"account_id" binding:"omitempty,uuid"`
	Particulars  string `form:"particulars" binding:"required"`
}

// ParticularForm is one element of VoucherForm.Particulars
type ParticularForm struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// ApprovalRequest is the body of POST /vouchers/:id/approvals
type ApprovalRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVED REJECTED"`
	Reason   string `json:"reason" binding:"max=1000"`
}

// List pages through the active company's vouchers. Supports status, search,
// page and page_size.
func (h *VoucherHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	result, err := h.vouchers.ListVouchers(c.Request.Context(), principal(c), companyID(c), voucher.ListFilter{
		Status:   voucher.Status(c.Query("status")),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(c, result)
}

// Get returns the voucher detail screen
func (h *VoucherHandler) Get(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.vouchers.GetVoucherDetail(c.Request.Context(), principal(c), companyID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// Create stores a new voucher from a multipart body
func (h *VoucherHandler) Create(c *gin.Context) {
	input, ok := h.bindVoucher(c)
	if !ok {
		return
	}
	v, err := h.vouchers.CreateVoucher(c.Request.Context(), principal(c), companyID(c), input)
	if err != nil {
		h.discard(c, input.StorageKeys())
		h.HandleError(c, err)
		return
	}
	h.Created(c, v)
}

// Update edits a voucher from a multipart body. Kinds of files left out of
// the body keep their stored attachments.
func (h *VoucherHandler) Update(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	input, ok := h.bindVoucher(c)
	if !ok {
		return
	}
	v, err := h.vouchers.UpdateVoucher(c.Request.Context(), principal(c), companyID(c), id, input)
	if err != nil {
		h.discard(c, input.StorageKeys())
		h.HandleError(c, err)
		return
	}
	h.Success(c, v)
}

// Delete removes a voucher (superusers only)
func (h *VoucherHandler) Delete(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.vouchers.DeleteVoucher(c.Request.Context(), principal(c), companyID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RecordApproval stores the caller's decision on a voucher
func (h *VoucherHandler) RecordApproval(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req ApprovalRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.vouchers.RecordApproval(c.Request.Context(), principal(c), companyID(c), id, appvoucher.ApprovalInput{
		Decision: voucher.Decision(req.Decision),
		Reason:   req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RequiredApprovers lists who still has to approve
func (h *VoucherHandler) RequiredApprovers(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	approvers, err := h.vouchers.ComputeRequiredApprovers(c.Request.Context(), principal(c), companyID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, approvers)
}

// bindVoucher parses the form, uploads every file and returns the engine
// input. On failure the response is written and uploads are rolled back.
func (h *VoucherHandler) bindVoucher(c *gin.Context) (appvoucher.VoucherInput, bool) {
	var form VoucherForm
	if err := c.ShouldBind(&form); err != nil {
		middleware.HandleValidationError(c, err)
		return appvoucher.VoucherInput{}, false
	}

	input, err := form.input()
	if err != nil {
		h.HandleError(c, err)
		return appvoucher.VoucherInput{}, false
	}
	mf, err := c.MultipartForm()
	if err != nil {
		h.BadRequest(c, "Expected a multipart/form-data body")
		return appvoucher.VoucherInput{}, false
	}

	var uploaded []string
	upload := func(field string) ([]appvoucher.AttachmentInput, error) {
		files := make([]appvoucher.AttachmentInput, 0, len(mf.File[field]))
		for _, fh := range mf.File[field] {
			att, err := h.upload(c.Request.Context(), companyID(c), fh)
			if err != nil {
				return nil, err
			}
			uploaded = append(uploaded, att.StorageKey)
			files = append(files, att)
		}
		return files, nil
	}

	if input.MainFiles, err = upload(fieldMainFiles); err == nil {
		input.ChequeFiles, err = upload(fieldChequeFiles)
	}
	for i := range input.Particulars {
		if err != nil {
			break
		}
		input.Particulars[i].Files, err = upload(fmt.Sprintf(fieldParticularFiles, i))
	}
	if err != nil {
		h.discard(c, uploaded)
		h.HandleError(c, err)
		return appvoucher.VoucherInput{}, false
	}
	return input, true
}

func (h *VoucherHandler) upload(ctx context.Context, companyID uuid.UUID, fh *multipart.FileHeader) (appvoucher.AttachmentInput, error) {
	key := storage.AttachmentKey(companyID, fh.Filename, h.now())
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, span := telemetry.StartSpan(ctx, "attachment.upload",
		attribute.String("storage.key", key),
		attribute.Int64("file.size", fh.Size),
	)
	f, err := fh.Open()
	if err != nil {
		telemetry.EndSpan(span, err)
		return appvoucher.AttachmentInput{}, err
	}
	defer f.Close()

	err = h.store.Upload(ctx, key, f, fh.Size, contentType)
	telemetry.EndSpan(span, err)
	if err != nil {
		return appvoucher.AttachmentInput{}, fmt.Errorf("upload %s: %w", fh.Filename, err)
	}
	return appvoucher.AttachmentInput{
		StorageKey:  key,
		FileName:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
	}, nil
}

// discard removes objects uploaded for a request the engine refused
func (h *VoucherHandler) discard(c *gin.Context, keys []string) {
	ctx := context.WithoutCancel(c.Request.Context())
	for _, key := range keys {
		if err := h.store.DeleteObject(ctx, key); err != nil {
			logger.GetGinLogger(c).Warn("failed to discard upload", zap.String("storage_key", key), zap.Error(err))
		}
	}
}

func (f VoucherForm) input() (appvoucher.VoucherInput, error) {
	date, err := parseDate(f.VoucherDate)
	if err != nil {
		return appvoucher.VoucherInput{}, err
	}
	input := appvoucher.VoucherInput{
		Date:         date,
		PaymentType:  voucher.PaymentType(f.PaymentType),
		NameTitle:    voucher.NameTitle(f.NameTitle),
		PayTo:        f.PayTo,
		ChequeNumber: f.ChequeNumber,
	}
	if f.ChequeDate != "" {
		d, err := parseDate(f.ChequeDate)
		if err != nil {
			return appvoucher.VoucherInput{}, err
		}
		input.ChequeDate = &d
	}
	if input.AccountID, err = parseOptionalUUID(f.AccountID); err != nil {
		return appvoucher.VoucherInput{}, shared.NewValidationError("Invalid account_id")
	}

	var particulars []ParticularForm
	if err := json.Unmarshal([]byte(f.Particulars), &particulars); err != nil {
		return appvoucher.VoucherInput{}, shared.NewValidationError("particulars must be a JSON array of {description, amount}")
	}
	input.Particulars = make([]appvoucher.ParticularInput, 0, len(particulars))
	for _, p := range particulars {
		input.Particulars = append(input.Particulars, appvoucher.ParticularInput{
			Description: p.Description,
			Amount:      p.Amount,
		})
	}
	return input, nil
}
