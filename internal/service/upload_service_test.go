package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/printdesk-next/internal/constants"
	"github.com/printdesk-next/internal/models"
)

func multipartFiles(t *testing.T, files map[string]string) []*multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file failed: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write form file failed: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer failed: %v", err)
	}
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("parse multipart failed: %v", err)
	}
	return req.MultipartForm.File["files"]
}

func TestUploadServiceStore(t *testing.T) {
	f := setupServiceFixture(t, nil)
	files := multipartFiles(t, map[string]string{"Front Proof.pdf": "%PDF-1.4 proof"})

	ref, err := f.uploads.Store(context.Background(), 3, 42, constants.FileTypeDesignMockup, files[0])
	if err != nil {
		t.Fatalf("Store error: %v", err)
	}
	if !strings.HasPrefix(ref.Key, "3/42/design_mockup/") || !strings.HasSuffix(ref.Key, "Front_Proof.pdf") {
		t.Fatalf("unexpected key: %s", ref.Key)
	}
	if ref.Name != "Front Proof.pdf" || ref.Size != int64(len("%PDF-1.4 proof")) {
		t.Fatalf("unexpected ref: %+v", ref)
	}
	content, err := f.store.Get(ref.Key)
	if err != nil || string(content) != "%PDF-1.4 proof" {
		t.Fatalf("unexpected stored content: %q %v", content, err)
	}

	bad := multipartFiles(t, map[string]string{"run.exe": "MZ"})
	if _, err := f.uploads.Store(context.Background(), 3, 42, constants.FileTypeDesignMockup, bad[0]); !errors.Is(err, ErrFileExtension) {
		t.Fatalf("expected ErrFileExtension, got %v", err)
	}
}

func TestTransitionWithUploadsCommitsFiles(t *testing.T) {
	f := setupServiceFixture(t, nil)
	order := f.createOrder(t, true)
	f.transition(t, order.ID, constants.RoleDesigner, constants.ActionStartDesign, TransitionInput{})

	files := multipartFiles(t, map[string]string{"mock.png": "png-bytes"})
	result, err := f.workflow.TransitionWithUploads(context.Background(), f.uploads, f.actor(constants.RoleDesigner), order.ID, constants.ActionSubmitMockup, files, TransitionInput{})
	if err != nil {
		t.Fatalf("TransitionWithUploads error: %v", err)
	}
	if len(result.Attachments) != 1 || !strings.HasPrefix(result.Attachments[0].FileURL, "mem://") {
		t.Fatalf("unexpected attachments: %+v", result.Attachments)
	}
	if f.store.Len() != 1 {
		t.Fatalf("expected 1 stored object, got %d", f.store.Len())
	}
}

func TestTransitionWithUploadsCompensatesOnFailure(t *testing.T) {
	f := setupServiceFixture(t, nil)
	order := f.createOrder(t, true)
	f.transition(t, order.ID, constants.RoleDesigner, constants.ActionStartDesign, TransitionInput{})
	if err := f.db.Model(&models.OrderStatus{}).
		Where("company_id = ? AND name = ?", f.companyID, constants.OrderStatusDesignApproval).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate status failed: %v", err)
	}

	files := multipartFiles(t, map[string]string{"a.png": "a", "b.png": "b"})
	_, err := f.workflow.TransitionWithUploads(context.Background(), f.uploads, f.actor(constants.RoleDesigner), order.ID, constants.ActionSubmitMockup, files, TransitionInput{})
	if !errors.Is(err, ErrStatusNotFound) {
		t.Fatalf("expected ErrStatusNotFound, got %v", err)
	}
	if f.store.Len() != 0 {
		t.Fatalf("expected uploaded blobs to be removed, got %d", f.store.Len())
	}

	// 预检失败时不写入存储
	_, err = f.workflow.TransitionWithUploads(context.Background(), f.uploads, f.actor(constants.RoleSales), order.ID, constants.ActionSubmitMockup, files, TransitionInput{})
	if !errors.Is(err, ErrTransitionForbidden) || f.store.Len() != 0 {
		t.Fatalf("expected forbidden without uploads, got %v (objects=%d)", err, f.store.Len())
	}
}

func TestUploadAttachmentsRegistersBatch(t *testing.T) {
	f := setupServiceFixture(t, nil)
	order := f.createOrder(t, false)
	sales := f.actor(constants.RoleSales)
	ctx := context.Background()

	files := multipartFiles(t, map[string]string{"brief.pdf": "%PDF brief", "logo.ai": "ai-bytes"})
	rows, err := f.attachments.UploadAttachments(ctx, f.uploads, sales, order.ID, constants.FileTypeClientReference, files)
	if err != nil {
		t.Fatalf("UploadAttachments error: %v", err)
	}
	if len(rows) != 2 || rows[0].ID == 0 || rows[1].ID == 0 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if f.store.Len() != 2 {
		t.Fatalf("expected 2 stored objects, got %d", f.store.Len())
	}

	if _, err := f.attachments.UploadAttachments(ctx, f.uploads, sales, order.ID, constants.FileTypeArchivedMockup, files); !errors.Is(err, ErrAttachmentNotAllowed) {
		t.Fatalf("expected ErrAttachmentNotAllowed, got %v", err)
	}
	other := sales
	other.CompanyID = f.companyID + 100
	if _, err := f.attachments.UploadAttachments(ctx, f.uploads, other, order.ID, constants.FileTypeClientReference, files); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for foreign tenant, got %v", err)
	}
	if f.store.Len() != 2 {
		t.Fatalf("rejected uploads must not reach storage, got %d objects", f.store.Len())
	}
}
