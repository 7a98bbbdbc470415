package models

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#808080"

// FallbackCategoryName is the catalog entry used for items whose category
// cannot be matched.
const FallbackCategoryName = "Lainnya"

// Category is a shared classification for transaction items. Deleting a
// category detaches its items instead of removing them.
type Category struct {
	Base
	Name      string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Icon      string `gorm:"size:50" json:"icon"`
	Color     string `gorm:"size:7;not null;default:'#808080'" json:"color"`
	IsDefault bool   `gorm:"default:false" json:"is_default"`
}
