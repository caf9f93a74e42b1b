package identity

// Capability names one grantable right. The values double as column names of
// the user_permissions table.
type Capability string

const (
	CapCreateVoucher      Capability = "can_create_voucher"
	CapEditVoucher        Capability = "can_edit_voucher"
	CapViewVoucherList    Capability = "can_view_voucher_list"
	CapViewVoucherDetail  Capability = "can_view_voucher_detail"
	CapPrintVoucher       Capability = "can_print_voucher"
	CapCreateFunction     Capability = "can_create_function"
	CapEditFunction       Capability = "can_edit_function"
	CapDeleteFunction     Capability = "can_delete_function"
	CapViewFunctionList   Capability = "can_view_function_list"
	CapViewFunctionDetail Capability = "can_view_function_detail"
	CapPrintFunction      Capability = "can_print_function"
)

// AllCapabilities lists every capability in display order
var AllCapabilities = []Capability{
	CapCreateVoucher,
	CapEditVoucher,
	CapViewVoucherList,
	CapViewVoucherDetail,
	CapPrintVoucher,
	CapCreateFunction,
	CapEditFunction,
	CapDeleteFunction,
	CapViewFunctionList,
	CapViewFunctionDetail,
	CapPrintFunction,
}

// IsValid reports whether c is a known capability
func (c Capability) IsValid() bool {
	for _, known := range AllCapabilities {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultAllowed is the grant used when a user has no permission row.
// Edit and delete are denied, everything else is allowed.
func (c Capability) DefaultAllowed() bool {
	switch c {
	case CapEditVoucher, CapEditFunction, CapDeleteFunction:
		return false
	default:
		return c.IsValid()
	}
}

func (c Capability) String() string {
	return string(c)
}
