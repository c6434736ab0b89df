package domain

const (
	RoleAdmin    = "ADMIN"
	RoleSupplier = "SUPPLIER"
	RoleCustomer = "CUSTOMER"
)

const (
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

const (
	PaymentStatusPending = "Pending"
	PaymentStatusPaid    = "Paid"
	PaymentStatusOverdue = "Overdue"
)

const (
	PayoutStatusPending    = "pending"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusFailed     = "failed"
	PayoutStatusCancelled  = "cancelled"
)

const (
	TransactionTypeOrderIncome = "order_income"
	TransactionTypePayout      = "payout"
	TransactionTypeRefund      = "refund"
	TransactionTypeAdjustment  = "adjustment"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

const (
	PayoutMethodBank        = "bank"
	PayoutMethodMpesa       = "mpesa"
	PayoutMethodMobileMoney = "mobile_money"
)

const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

// Prefixes for generated payout/ledger references (e.g. PAY-48239).
const (
	PayoutReferencePrefix      = "PAY"
	TransactionReferencePrefix = "TXN"
)

// Polymorphic reference_type values on ledger entries.
const (
	ReferenceTypeOrder  = "order"
	ReferenceTypePayout = "payout"
)
