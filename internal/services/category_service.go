package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "dompet/internal/errors"
	"dompet/internal/logger"
	"dompet/internal/models"
)

// defaultCategories is the catalog every fresh installation starts with.
var defaultCategories = []models.Category{
	{Name: "Makanan & Minuman", Icon: "utensils", Color: "#FF6B6B"},
	{Name: "Belanja Bulanan", Icon: "shopping-bag", Color: "#4ECDC4"},
	{Name: "Transportasi", Icon: "car", Color: "#45B7D1"},
	{Name: "Tagihan & Utilitas", Icon: "zap", Color: "#F7B731"},
	{Name: "Hiburan", Icon: "film", Color: "#A55EEA"},
	{Name: "Kesehatan", Icon: "heart", Color: "#FC5C65"},
	{Name: "Pendidikan", Icon: "book", Color: "#26DE81"},
	{Name: "Hadiah & Donasi", Icon: "gift", Color: "#FD9644"},
	{Name: "Investasi", Icon: "briefcase", Color: "#20BF6B"},
	{Name: models.FallbackCategoryName, Icon: "more-horizontal", Color: "#95A5A6"},
	{Name: "Jajan", Icon: "coffee", Color: "#D980FA"},
	{Name: "Pulsa & Data", Icon: "smartphone", Color: "#12CBC4"},
	{Name: "Rumah Tangga", Icon: "home", Color: "#FFC312"},
	{Name: "Elektronik", Icon: "smartphone", Color: "#5758BB"},
	{Name: "Pakaian", Icon: "shopping-bag", Color: "#ED4C67"},
}

// categoryService manages the catalog shared by all users.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// ListCategories returns the whole catalog ordered by name.
func (s *categoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// CategoryNames returns just the names, for prompting the receipt extractor.
func (s *categoryService) CategoryNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Order("name ASC").Pluck("name", &names).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return names, nil
}

// GetCategoryByID retrieves a category by ID
func (s *categoryService) GetCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// CreateCategory adds a category. Names are unique regardless of case.
func (s *categoryService) CreateCategory(ctx context.Context, name, icon, color string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("name", "category name is required")
	}
	if color == "" {
		color = models.DefaultCategoryColor
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Category{}).Where("LOWER(name) = ?", strings.ToLower(name)).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategory
	}

	category := &models.Category{
		Name:  name,
		Icon:  strings.TrimSpace(icon),
		Color: strings.ToUpper(color),
	}
	if err := db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// DeleteCategory removes a category. Items that used it become uncategorized
// in the same database transaction.
func (s *categoryService) DeleteCategory(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.TransactionItem{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		res := tx.Delete(&models.Category{}, "id = ?", id)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrCategoryNotFound
		}
		return nil
	})
	return asAppError(err)
}

// ResolveByName finds a category by case-insensitive name.
func (s *categoryService) ResolveByName(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ErrCategoryNotFound
	}

	var category models.Category
	if err := s.db.WithContext(ctx).Where("LOWER(name) = ?", strings.ToLower(name)).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// SeedDefaults inserts the default catalog entries that are missing and
// returns how many were created. Running it again is a no-op.
func (s *categoryService) SeedDefaults(ctx context.Context) (int, error) {
	db := s.db.WithContext(ctx)

	var existing []string
	if err := db.Model(&models.Category{}).Pluck("name", &existing).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[strings.ToLower(name)] = true
	}

	var missing []models.Category
	for _, c := range defaultCategories {
		if have[strings.ToLower(c.Name)] {
			continue
		}
		c.IsDefault = true
		missing = append(missing, c)
	}
	if len(missing) == 0 {
		return 0, nil
	}

	if err := db.Create(&missing).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("seeded default categories", "count", len(missing))
	return len(missing), nil
}
