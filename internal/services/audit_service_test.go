package services

import (
	"context"
	"strings"
	"testing"

	"dompet/internal/models"
	"dompet/internal/testutil"
)

func TestAuditLog(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)
	user := testutil.CreateTestUser(t, db)

	svc.Log(ctx, user.ID, AuditDeleteTransaction, "transaction", "tx-1", "10.0.0.1", map[string]any{"total_amount": "20000.00"})
	svc.Log(ctx, user.ID, AuditLeaveFamily, "family", "fam-1", "10.0.0.1", nil)

	var count int64
	db.Model(&models.AuditLog{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 2 {
		t.Fatalf("expected 2 entries, got %d", count)
	}

	var deleted models.AuditLog
	if err := db.First(&deleted, "action = ?", AuditDeleteTransaction).Error; err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}
	if deleted.ResourceType != "transaction" || !strings.Contains(deleted.Changes, "20000.00") {
		t.Errorf("unexpected entry %+v", deleted)
	}

	var left models.AuditLog
	if err := db.First(&left, "action = ?", AuditLeaveFamily).Error; err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}
	if left.Changes != "" {
		t.Errorf("expected empty changes, got %q", left.Changes)
	}
}
