package services

import (
	"context"
	"time"

	"dompet/internal/finance"
	"dompet/internal/models"
	"dompet/internal/pagination"
	"dompet/internal/receipt"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, name, email, password string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, name, avatarURL *string) (*models.User, error)
	StoreRefreshTokenHash(ctx context.Context, userID, tokenHash string) error
	GetRefreshTokenHash(ctx context.Context, userID string) (string, error)
}

// IdentityLookup answers the two family questions visibility depends on.
// FamilyOf returns nil when the user has no family.
type IdentityLookup interface {
	FamilyOf(ctx context.Context, userID string) (*string, error)
	MembersOf(ctx context.Context, familyID string) ([]string, error)
}

// FamilyServicer defines the contract for family membership.
type FamilyServicer interface {
	IdentityLookup
	CreateFamily(ctx context.Context, userID, name string, avatarURL *string) (*models.Family, error)
	JoinFamily(ctx context.Context, userID, inviteCode string) (*models.Family, error)
	GetFamily(ctx context.Context, userID string) (*models.Family, error)
	GetMembers(ctx context.Context, userID string) ([]models.FamilyMember, error)
	UpdateFamily(ctx context.Context, userID string, name, avatarURL *string) (*models.Family, error)
	LeaveFamily(ctx context.Context, userID string) error
}

// CategoryServicer defines the contract for the shared category catalog.
type CategoryServicer interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CategoryNames(ctx context.Context) ([]string, error)
	GetCategoryByID(ctx context.Context, id string) (*models.Category, error)
	CreateCategory(ctx context.Context, name, icon, color string) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	ResolveByName(ctx context.Context, name string) (*models.Category, error)
	SeedDefaults(ctx context.Context) (int, error)
}

// TransactionFilter holds optional filter parameters shared by listing,
// dashboard and report queries.
type TransactionFilter struct {
	StartDate     *time.Time
	EndDate       *time.Time
	CategoryID    *string
	ItemName      string
	MemberID      *string
	IncludeFamily bool
}

// TransactionServicer defines the contract for ledger writes and reads.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, ownerID string, input finance.TransactionInput) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, txID, ownerID string, input finance.TransactionInput) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, txID, ownerID string) error
	GetTransaction(ctx context.Context, txID, requesterID string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, requesterID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	RecentTransactions(ctx context.Context, requesterID string, limit int) ([]models.Transaction, error)
}

// StatsServicer defines the contract for spending aggregation.
type StatsServicer interface {
	Dashboard(ctx context.Context, requesterID string, includeFamily bool) (*DashboardView, error)
	Report(ctx context.Context, requesterID string, filter TransactionFilter) (*ReportView, error)
}

// ReceiptServicer turns receipt images into a transaction proposal.
type ReceiptServicer interface {
	Scan(ctx context.Context, images []receipt.Image) (*ReceiptProposal, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
