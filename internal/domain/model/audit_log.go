package model

import "time"

type AuditAction string

const (
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	AuditActionUpdateProduct     AuditAction = "UPDATE_PRODUCT"
	AuditActionDeleteProduct     AuditAction = "DELETE_PRODUCT"
	AuditActionUpdateCreditLimit AuditAction = "UPDATE_CREDIT_LIMIT"
)

type AuditResourceType string

const (
	AuditResourceProduct AuditResourceType = "product"
	AuditResourceOrder   AuditResourceType = "order"
	AuditResourceUser    AuditResourceType = "user"
)

// AuditLog records who changed what during an admin operation.
// ResourceID is a string because users are keyed by UUID and everything else by serial id.
type AuditLog struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID  string            `gorm:"type:varchar(64);not null;index" json:"actorUserId"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resourceType"`
	ResourceID   string            `gorm:"type:varchar(64);not null;index" json:"resourceId"`
	BeforeJSON   string            `gorm:"type:text" json:"beforeJson"`
	AfterJSON    string            `gorm:"type:text" json:"afterJson"`
	CreatedAt    time.Time         `gorm:"not null;index" json:"createdAt"`
}
