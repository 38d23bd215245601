package service

import (
	"context"
	"errors"
	"testing"

	"github.com/printdesk-next/internal/constants"

	"gorm.io/gorm"
)

func TestArchiveMockupsIdempotent(t *testing.T) {
	f := setupServiceFixture(t, nil)
	ctx := context.Background()
	order := f.createOrder(t, true)
	f.transition(t, order.ID, constants.RoleDesigner, constants.ActionStartDesign, TransitionInput{})
	f.transition(t, order.ID, constants.RoleDesigner, constants.ActionSubmitMockup, TransitionInput{Files: fileRefs("a.png", "b.png")})

	archive := func() int64 {
		var count int64
		err := f.db.Transaction(func(tx *gorm.DB) error {
			var err error
			count, err = f.attachments.ArchiveMockups(ctx, tx, order.ID)
			return err
		})
		if err != nil {
			t.Fatalf("ArchiveMockups error: %v", err)
		}
		return count
	}
	if got := archive(); got != 2 {
		t.Fatalf("expected 2 archived, got %d", got)
	}
	if got := archive(); got != 0 {
		t.Fatalf("expected second archive to be a no-op, got %d", got)
	}
}

func TestAddAttachment(t *testing.T) {
	f := setupServiceFixture(t, nil)
	ctx := context.Background()
	order := f.createOrder(t, true)
	sales := f.actor(constants.RoleSales)
	ref := fileRefs("brief.pdf")[0]

	for i := 0; i < 2; i++ {
		if _, err := f.attachments.AddAttachment(ctx, sales, order.ID, constants.FileTypeClientReference, ref); err != nil {
			t.Fatalf("AddAttachment error: %v", err)
		}
	}
	rows, err := f.attachments.ListAttachments(ctx, sales, order.ID, AttachmentFilter{FileTypes: []string{constants.FileTypeClientReference}})
	if err != nil {
		t.Fatalf("ListAttachments error: %v", err)
	}
	if len(rows) != 2 || rows[0].UploaderID != sales.UserID {
		t.Fatalf("unexpected attachments: %+v", rows)
	}

	if _, err := f.attachments.AddAttachment(ctx, sales, order.ID, constants.FileTypeArchivedMockup, ref); !errors.Is(err, ErrAttachmentNotAllowed) {
		t.Fatalf("expected ErrAttachmentNotAllowed, got %v", err)
	}
	if _, err := f.attachments.AddAttachment(ctx, sales, order.ID, "invoice", ref); !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType, got %v", err)
	}
	if _, err := f.attachments.AddAttachment(ctx, sales, 9999, constants.FileTypeClientReference, ref); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	other := Actor{UserID: "intruder", CompanyID: f.companyID + 1, Role: constants.RoleAdmin}
	if _, err := f.attachments.ListAttachments(ctx, other, order.ID, AttachmentFilter{}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected tenant isolation, got %v", err)
	}
}
