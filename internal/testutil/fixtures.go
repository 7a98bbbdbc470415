package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"dompet/internal/models"
	"dompet/internal/money"
	"dompet/internal/uuid"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	n := nextID()
	return CreateTestUserWithEmail(t, db, fmt.Sprintf("user%d@test.com", n))
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Name:     fmt.Sprintf("User %d", nextID()),
		Email:    email,
		Password: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestFamily creates a family administered by admin and links admin to it.
func CreateTestFamily(t *testing.T, db *gorm.DB, admin *models.User) *models.Family {
	t.Helper()

	family := &models.Family{
		Name:       fmt.Sprintf("Family %d", nextID()),
		AdminID:    admin.ID,
		InviteCode: uuid.InviteCode(10),
	}
	if err := db.Create(family).Error; err != nil {
		t.Fatalf("failed to create test family: %v", err)
	}
	AddTestFamilyMember(t, db, family, admin)
	return family
}

// AddTestFamilyMember links user to family.
func AddTestFamilyMember(t *testing.T, db *gorm.DB, family *models.Family, user *models.User) {
	t.Helper()

	if err := db.Model(user).Update("family_id", family.ID).Error; err != nil {
		t.Fatalf("failed to add family member: %v", err)
	}
	user.FamilyID = &family.ID
}

// CreateTestCategory creates a catalog category with a unique name derived from prefix.
func CreateTestCategory(t *testing.T, db *gorm.DB, prefix string) *models.Category {
	t.Helper()
	return CreateTestCategoryWithName(t, db, fmt.Sprintf("%s %d", prefix, nextID()))
}

// CreateTestCategoryWithName creates a catalog category with exactly name.
func CreateTestCategoryWithName(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:  name,
		Icon:  "tag",
		Color: models.DefaultCategoryColor,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates an itemless QRIS transaction.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, total money.Amount, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:          userID,
		TotalAmount:     total,
		Type:            models.TransactionTypeQRIS,
		TransactionDate: date.UTC(),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// TestItem describes one item line for CreateTestTransactionWithItems.
type TestItem struct {
	Name       string
	Price      money.Amount
	Qty        int64
	CategoryID *string
}

// CreateTestTransactionWithItems creates a RECEIPT transaction whose total is
// the sum of its item line totals.
func CreateTestTransactionWithItems(t *testing.T, db *gorm.DB, userID string, date time.Time, items ...TestItem) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:          userID,
		Type:            models.TransactionTypeReceipt,
		TransactionDate: date.UTC(),
	}
	for i, it := range items {
		qty := it.Qty
		if qty == 0 {
			qty = 1
		}
		line, err := it.Price.Mul(decimal.NewFromInt(qty))
		if err != nil {
			t.Fatalf("invalid test item %q: %v", it.Name, err)
		}
		tx.Items = append(tx.Items, models.TransactionItem{
			Name:       it.Name,
			CategoryID: it.CategoryID,
			Quantity:   decimal.NewFromInt(qty),
			Unit:       "pcs",
			Price:      it.Price,
			LineTotal:  line,
			Position:   i,
		})
		tx.TotalAmount += line
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}
