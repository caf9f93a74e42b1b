package router

import (
	"github.com/gin-gonic/gin"
	"github.com/voucherdesk/backend/internal/interfaces/http/handler"
)

// Handlers are the HTTP handlers the API is built from
type Handlers struct {
	Company      *handler.CompanyHandler
	User         *handler.UserHandler
	Membership   *handler.MembershipHandler
	Organization *handler.OrganizationHandler
	Designation  *handler.DesignationHandler
	Account      *handler.AccountHandler
	Permission   *handler.PermissionHandler
	Voucher      *handler.VoucherHandler
	Function     *handler.FunctionHandler
}

// APIGroups builds the route groups of /api/v1. Directory routes act across
// companies; every other group runs requireCompany first.
func APIGroups(h Handlers, requireCompany gin.HandlerFunc) []*DomainGroup {
	directory := NewDomainGroup("directory", "")
	directory.GET("/companies", h.Company.List).
		POST("/companies", h.Company.Create).
		GET("/companies/mine", h.Company.Mine).
		PUT("/companies/:id", h.Company.Update).
		DELETE("/companies/:id", h.Company.Delete).
		POST("/companies/:id/toggle", h.Company.Toggle)
	directory.GET("/users", h.User.List).
		POST("/users", h.User.Create)
	directory.GET("/memberships", h.Membership.List).
		POST("/memberships", h.Membership.Create).
		PUT("/memberships/:id", h.Membership.Update).
		DELETE("/memberships/:id", h.Membership.Delete)
	directory.GET("/settings/organization", h.Organization.Get).
		PUT("/settings/organization", h.Organization.Update)

	tenancy := NewDomainGroup("tenancy", "").Use(requireCompany)
	tenancy.GET("/designations", h.Designation.List).
		POST("/designations", h.Designation.Create).
		GET("/approval-chain", h.Designation.GetChain).
		PUT("/approval-chain", h.Designation.ReplaceChain)
	tenancy.GET("/accounts", h.Account.ListActive).
		GET("/accounts/all", h.Account.ListAll).
		POST("/accounts", h.Account.Create).
		POST("/accounts/:id/toggle", h.Account.Toggle).
		DELETE("/accounts/:id", h.Account.Delete)
	tenancy.GET("/permissions", h.Permission.List).
		PUT("/permissions/bulk", h.Permission.BulkUpdate).
		GET("/permissions/:userId", h.Permission.Get).
		PUT("/permissions/:userId", h.Permission.Update)

	vouchers := NewDomainGroup("voucher", "/vouchers").Use(requireCompany)
	vouchers.GET("", h.Voucher.List).
		POST("", h.Voucher.Create).
		GET("/:id", h.Voucher.Get).
		PUT("/:id", h.Voucher.Update).
		DELETE("/:id", h.Voucher.Delete).
		POST("/:id/approvals", h.Voucher.RecordApproval).
		GET("/:id/required-approvers", h.Voucher.RequiredApprovers)

	functions := NewDomainGroup("venue", "/functions").Use(requireCompany)
	functions.GET("", h.Function.List).
		POST("", h.Function.Create).
		GET("/pending", h.Function.Pending).
		GET("/next-number", h.Function.NextNumber).
		GET("/booked-dates", h.Function.BookedDates).
		GET("/upcoming", h.Function.Upcoming).
		GET("/completed", h.Function.Completed).
		POST("/conflicts", h.Function.Conflicts).
		GET("/:id", h.Function.Get).
		PUT("/:id", h.Function.Update).
		DELETE("/:id", h.Function.Delete).
		POST("/:id/confirm", h.Function.Confirm).
		POST("/:id/cancel", h.Function.Cancel).
		PATCH("/:id/details", h.Function.UpdateDetails)

	return []*DomainGroup{directory, tenancy, vouchers, functions}
}
