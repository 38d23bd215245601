package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/printdesk-next/internal/constants"
	"github.com/printdesk-next/internal/logger"
	"github.com/printdesk-next/internal/models"
	"github.com/printdesk-next/internal/repository"

	"gorm.io/gorm"
)

// FileRef 外部存储返回的文件引用
type FileRef struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// AttachmentFilter 附件查询条件
type AttachmentFilter struct {
	FileTypes       []string
	IncludeArchived bool
}

// AttachmentService 订单附件生命周期
type AttachmentService struct {
	attachmentRepo repository.AttachmentRepository
	orderRepo      repository.OrderRepository
	locker         OrderLocker
}

// NewAttachmentService 创建附件服务
func NewAttachmentService(attachmentRepo repository.AttachmentRepository, orderRepo repository.OrderRepository, locker OrderLocker) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		orderRepo:      orderRepo,
		locker:         locker,
	}
}

// AddAttachment 登记一个附件；已归档设计稿只能由修订流程产生
func (s *AttachmentService) AddAttachment(ctx context.Context, actor Actor, orderID uint, fileType string, ref FileRef) (*models.OrderAttachment, error) {
	rows, err := s.AddAttachments(ctx, actor, orderID, fileType, []FileRef{ref})
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// AddAttachments 批量登记同类型附件，全部成功或全部不写入
func (s *AttachmentService) AddAttachments(ctx context.Context, actor Actor, orderID uint, fileType string, refs []FileRef) ([]models.OrderAttachment, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	fileType = strings.TrimSpace(fileType)
	if err := checkDirectFileType(fileType); err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, ErrFilesRequired
	}
	for _, ref := range refs {
		if strings.TrimSpace(ref.URL) == "" || strings.TrimSpace(ref.Name) == "" {
			return nil, ErrFilesRequired
		}
	}

	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := loadCompanyOrder(ctx, s.orderRepo, actor.CompanyID, orderID); err != nil {
		return nil, err
	}
	rows := make([]models.OrderAttachment, 0, len(refs))
	for _, ref := range refs {
		rows = append(rows, newAttachment(orderID, fileType, ref, actor.UserID))
	}
	if err := s.attachmentRepo.CreateBatch(ctx, rows); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAttachmentFailed, err)
	}
	logger.ForOrder(orderID, "file_type", fileType, "count", len(rows), "actor_id", actor.UserID).Infow("order_attachment_added")
	return rows, nil
}

// UploadAttachments 上传文件并登记为附件；登记失败时删除已上传对象
func (s *AttachmentService) UploadAttachments(ctx context.Context, uploads *UploadService, actor Actor, orderID uint, fileType string, files []*multipart.FileHeader) ([]models.OrderAttachment, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	fileType = strings.TrimSpace(fileType)
	if err := checkDirectFileType(fileType); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrFilesRequired
	}
	order, err := loadCompanyOrder(ctx, s.orderRepo, actor.CompanyID, orderID)
	if err != nil {
		return nil, err
	}
	refs, err := uploads.StoreAll(ctx, order.CompanyID, order.ID, fileType, files)
	if err != nil {
		return nil, err
	}
	rows, err := s.AddAttachments(ctx, actor, orderID, fileType, refs)
	if err != nil {
		uploads.Delete(ctx, refs)
		return nil, err
	}
	return rows, nil
}

func checkDirectFileType(fileType string) error {
	if !constants.IsKnownFileType(fileType) {
		return ErrInvalidFileType
	}
	if fileType == constants.FileTypeArchivedMockup {
		return ErrAttachmentNotAllowed
	}
	return nil
}

// ArchiveMockups 将当前设计稿归档，重复调用返回 0
func (s *AttachmentService) ArchiveMockups(ctx context.Context, tx *gorm.DB, orderID uint) (int64, error) {
	count, err := s.attachmentRepo.WithTx(tx).ArchiveMockups(ctx, orderID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAttachmentFailed, err)
	}
	return count, nil
}

// ArchiveMockupsCreatedBefore 归档修订请求之前遗留的设计稿，之后上传的新稿保持有效
func (s *AttachmentService) ArchiveMockupsCreatedBefore(ctx context.Context, tx *gorm.DB, orderID uint, cutoff time.Time) (int64, error) {
	count, err := s.attachmentRepo.WithTx(tx).ArchiveMockupsCreatedBefore(ctx, orderID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAttachmentFailed, err)
	}
	return count, nil
}

// ListAttachments 附件列表；默认只返回当前有效文件
func (s *AttachmentService) ListAttachments(ctx context.Context, actor Actor, orderID uint, filter AttachmentFilter) ([]models.OrderAttachment, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if _, err := loadCompanyOrder(ctx, s.orderRepo, actor.CompanyID, orderID); err != nil {
		return nil, err
	}
	for _, fileType := range filter.FileTypes {
		if !constants.IsKnownFileType(fileType) {
			return nil, ErrInvalidFileType
		}
		if fileType == constants.FileTypeArchivedMockup {
			filter.IncludeArchived = true
		}
	}
	rows, err := s.attachmentRepo.ListByOrder(ctx, orderID, repository.AttachmentListFilter{
		FileTypes:       filter.FileTypes,
		IncludeArchived: filter.IncludeArchived,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	return rows, nil
}

// addFilesTx 在事务内批量登记附件
func (s *AttachmentService) addFilesTx(ctx context.Context, tx *gorm.DB, orderID uint, fileType, uploaderID string, refs []FileRef) ([]models.OrderAttachment, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	rows := make([]models.OrderAttachment, 0, len(refs))
	for _, ref := range refs {
		rows = append(rows, newAttachment(orderID, fileType, ref, uploaderID))
	}
	if err := s.attachmentRepo.WithTx(tx).CreateBatch(ctx, rows); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAttachmentFailed, err)
	}
	return rows, nil
}

func newAttachment(orderID uint, fileType string, ref FileRef, uploaderID string) models.OrderAttachment {
	return models.OrderAttachment{
		OrderID:    orderID,
		FileURL:    ref.URL,
		FileName:   ref.Name,
		FileSize:   ref.Size,
		FileType:   fileType,
		UploaderID: uploaderID,
	}
}

func fileNames(refs []FileRef) string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	return strings.Join(names, ", ")
}
