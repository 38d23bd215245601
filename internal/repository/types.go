package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	CompanyID   uint
	Statuses    []string
	ClientID    uint
	Keyword     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// QuotationListFilter 查询报价单列表的过滤条件
type QuotationListFilter struct {
	Page      int
	PageSize  int
	CompanyID uint
	Status    string
	Keyword   string
}

// AttachmentListFilter 查询附件列表的过滤条件
type AttachmentListFilter struct {
	FileTypes       []string
	IncludeArchived bool
}
