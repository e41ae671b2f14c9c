package domain

const (
	RoleVendor = "vendor"
	RoleAdmin  = "admin"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusComplete  = "complete"
	OrderStatusCancelled = "cancelled"
)

const (
	TxStatusPending = "pending"
	TxStatusSuccess = "success"
	TxStatusFailed  = "failed"
)

const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusRejected = "rejected"
)

// Notification event types.
const (
	EventOrderCreated        = "order_created"
	EventOrderStatus         = "order_status_updated"
	EventWithdrawalRequested = "withdrawal_requested"
	EventWithdrawalProcessed = "withdrawal_processed"
	EventVendorRegistered    = "vendor_registered"
	EventVendorApproved      = "vendor_approved"
)

// Paystack webhook event we settle on; every other event is acknowledged and ignored.
const ChargeSuccessEvent = "charge.success"

// Metadata keys carried with a payment intent.
const (
	MetaBundleID      = "bundleId"
	MetaCustomerPhone = "customerPhone"
	MetaVendorID      = "vendorId"
)

const VendorLinkPrefix = "v-"
