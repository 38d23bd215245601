package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/printdesk-next/internal/config"
	"github.com/printdesk-next/internal/logger"
	"github.com/printdesk-next/internal/storage"

	"github.com/google/uuid"
)

// UploadService 订单文件上传服务，只负责把字节写入对象存储并返回引用
type UploadService struct {
	cfg   config.UploadConfig
	store storage.BlobStore
}

// NewUploadService 创建上传服务
func NewUploadService(cfg config.UploadConfig, store storage.BlobStore) *UploadService {
	return &UploadService{cfg: cfg, store: store}
}

// CheckBatch 校验一次上传的文件数量、大小与扩展名
func (s *UploadService) CheckBatch(files []*multipart.FileHeader) error {
	if s.cfg.MaxFiles > 0 && len(files) > s.cfg.MaxFiles {
		return ErrTooManyFiles
	}
	for _, file := range files {
		if err := s.checkFile(file); err != nil {
			return err
		}
	}
	return nil
}

// Store 写入单个文件，key 为 {companyId}/{orderId}/{category}/{filename}
func (s *UploadService) Store(ctx context.Context, companyID, orderID uint, category string, file *multipart.FileHeader) (FileRef, error) {
	if err := s.checkFile(file); err != nil {
		return FileRef{}, err
	}
	src, err := file.Open()
	if err != nil {
		return FileRef{}, fmt.Errorf("%w: %w", ErrStorageFailed, err)
	}
	defer src.Close()

	// 读取文件头部识别 MIME 类型
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		return FileRef{}, fmt.Errorf("%w: %w", ErrStorageFailed, err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return FileRef{}, fmt.Errorf("%w: %w", ErrStorageFailed, err)
	}
	contentType := file.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(buffer[:n])
	}

	name := filepath.Base(strings.ReplaceAll(file.Filename, "\\", "/"))
	key := storage.CleanKey(fmt.Sprintf("%d/%d/%s/%s", companyID, orderID, category, objectFileName(name)))
	url, err := s.store.Put(ctx, key, src, file.Size, contentType)
	if err != nil {
		return FileRef{}, fmt.Errorf("%w: %w", ErrStorageFailed, err)
	}
	return FileRef{
		Key:         key,
		URL:         url,
		Name:        name,
		Size:        file.Size,
		ContentType: contentType,
	}, nil
}

// StoreAll 依次写入多个文件；任一失败时删除已写入的对象
func (s *UploadService) StoreAll(ctx context.Context, companyID, orderID uint, category string, files []*multipart.FileHeader) ([]FileRef, error) {
	if err := s.CheckBatch(files); err != nil {
		return nil, err
	}
	refs := make([]FileRef, 0, len(files))
	for _, file := range files {
		ref, err := s.Store(ctx, companyID, orderID, category, file)
		if err != nil {
			s.Delete(ctx, refs)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Delete 补偿删除已上传对象，失败只记录日志
func (s *UploadService) Delete(ctx context.Context, refs []FileRef) {
	for _, ref := range refs {
		if ref.Key == "" {
			continue
		}
		if err := s.store.Delete(ctx, ref.Key); err != nil {
			logger.Warnw("upload_compensation_delete_failed", "key", ref.Key, "error", err)
		}
	}
}

func (s *UploadService) checkFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrFilesRequired
	}
	if s.cfg.MaxSize > 0 && file.Size > s.cfg.MaxSize {
		return ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if len(s.cfg.AllowedExtensions) > 0 {
		if ext == "" || !isAllowedExtension(ext, s.cfg.AllowedExtensions) {
			return ErrFileExtension
		}
	}
	return nil
}

// objectFileName 生成唯一对象名，保留原始文件名便于识别
func objectFileName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	safe := strings.Trim(b.String(), "_")
	if safe == "" {
		safe = "file"
	}
	if len(safe) > 64 {
		safe = safe[:64]
	}
	return fmt.Sprintf("%s-%s%s", uuid.New().String()[:8], safe, ext)
}

func isAllowedExtension(ext string, allowed []string) bool {
	for _, allowedExt := range allowed {
		normalized := strings.ToLower(strings.TrimSpace(allowedExt))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if strings.EqualFold(ext, normalized) {
			return true
		}
	}
	return false
}
