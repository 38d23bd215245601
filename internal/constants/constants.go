package constants

// 订单状态常量（规范名称，大小写敏感）
const (
	OrderStatusNew                 = "New"
	OrderStatusReadyForDesign      = "Ready for Design"
	OrderStatusInDesign            = "In Design"
	OrderStatusDesignRevision      = "Design Revision"
	OrderStatusDesignApproval      = "Design Approval"
	OrderStatusWaitingForPrintFile = "Waiting for Print File"
	OrderStatusPendingPayment      = "Pending Payment"
	OrderStatusReadyForProduction  = "Ready for Production"
	OrderStatusInProduction        = "In Production"
	OrderStatusReadyForPickup      = "Ready for Pickup"
	OrderStatusDelivered           = "Delivered"
)

// 订单付款状态常量
const (
	PaymentStatusPending = "pending"
	PaymentStatusPartial = "partial"
	PaymentStatusPaid    = "paid"
)

// 报价单状态常量
const (
	QuotationStatusDraft     = "draft"
	QuotationStatusConverted = "converted"
)

// 附件类型常量
const (
	FileTypeClientReference = "client_reference"
	FileTypeDesignMockup    = "design_mockup"
	FileTypePrintFile       = "print_file"
	FileTypeArchivedMockup  = "archived_mockup"
)

// 角色常量
const (
	RoleAdmin      = "admin"
	RoleSales      = "sales"
	RoleDesigner   = "designer"
	RoleAccountant = "accountant"
	RoleProduction = "production"
)

// 工作流动作常量
const (
	ActionCreate          = "create"
	ActionStartDesign     = "start_design"
	ActionSubmitMockup    = "submit_mockup"
	ActionApproveDesign   = "approve_design"
	ActionRequestRevision = "request_revision"
	ActionUploadPrintFile = "upload_print_file"
	ActionConfirmPayment  = "confirm_payment"
	ActionStartProduction = "start_production"
	ActionMarkReady       = "mark_ready"
	ActionMarkDelivered   = "mark_delivered"
	ActionRecordPayment   = "record_payment"
	ActionEditItems       = "edit_items"
	ActionConvert         = "convert"
)

// 异步任务常量
const (
	TaskOrderStatusChanged = "order:status_changed"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 存储驱动常量
const (
	StorageDriverLocal  = "local"
	StorageDriverMemory = "memory"
	StorageDriverS3     = "s3"
)

// OrderStatusCatalog 默认状态目录（按流程顺序）
func OrderStatusCatalog() []string {
	return []string{
		OrderStatusNew,
		OrderStatusReadyForDesign,
		OrderStatusInDesign,
		OrderStatusDesignRevision,
		OrderStatusDesignApproval,
		OrderStatusWaitingForPrintFile,
		OrderStatusPendingPayment,
		OrderStatusReadyForProduction,
		OrderStatusInProduction,
		OrderStatusReadyForPickup,
		OrderStatusDelivered,
	}
}

// Roles 所有内置角色
func Roles() []string {
	return []string{RoleAdmin, RoleSales, RoleDesigner, RoleAccountant, RoleProduction}
}

// IsKnownRole 判断角色是否内置
func IsKnownRole(role string) bool {
	for _, item := range Roles() {
		if item == role {
			return true
		}
	}
	return false
}

// IsKnownFileType 判断附件类型是否合法
func IsKnownFileType(fileType string) bool {
	switch fileType {
	case FileTypeClientReference, FileTypeDesignMockup, FileTypePrintFile, FileTypeArchivedMockup:
		return true
	}
	return false
}
