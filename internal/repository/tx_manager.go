package repository

import "context"

// TxRepos hands out repositories bound to the running transaction.
type TxRepos interface {
	Users() UserRepository
	Products() ProductRepository
	CartItems() CartItemRepository
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	AuditLogs() AuditLogRepository
}

// TransactionManager hides begin/commit/rollback from the use cases.
// fn returning an error rolls everything back.
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
