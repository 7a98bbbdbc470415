package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/uuid"
)

const inviteCodeLength = 10

// familyService manages family membership and answers identity lookups
// for the visibility resolver.
type familyService struct {
	db *gorm.DB
}

// NewFamilyService creates a new FamilyServicer.
func NewFamilyService(db *gorm.DB) FamilyServicer {
	return &familyService{db: db}
}

// FamilyOf returns the family id of userID, or nil.
func (s *familyService) FamilyOf(ctx context.Context, userID string) (*string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Select("id", "family_id").First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user.FamilyID, nil
}

// MembersOf returns the ids of every user in familyID.
func (s *familyService) MembersOf(ctx context.Context, familyID string) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("family_id = ?", familyID).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return ids, nil
}

// CreateFamily creates a family with the caller as admin and first member.
func (s *familyService) CreateFamily(ctx context.Context, userID, name string, avatarURL *string) (*models.Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("name", "family name is required")
	}

	family := &models.Family{
		Name:       name,
		AdminID:    userID,
		AvatarURL:  avatarURL,
		InviteCode: uuid.InviteCode(inviteCodeLength),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := loadUser(tx, userID)
		if err != nil {
			return err
		}
		if user.FamilyID != nil {
			return apperrors.ErrAlreadyInFamily
		}

		if err := tx.Create(family).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("family_id", family.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}

	return family, nil
}

// JoinFamily adds the caller to the family identified by inviteCode.
func (s *familyService) JoinFamily(ctx context.Context, userID, inviteCode string) (*models.Family, error) {
	code := strings.ToUpper(strings.TrimSpace(inviteCode))
	if code == "" {
		return nil, apperrors.Validation("invite_code", "invite code is required")
	}

	var family models.Family
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := loadUser(tx, userID)
		if err != nil {
			return err
		}
		if user.FamilyID != nil {
			return apperrors.ErrAlreadyInFamily
		}

		if err := tx.Where("invite_code = ?", code).First(&family).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrInvalidInviteCode
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("family_id", family.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}

	return &family, nil
}

// GetFamily returns the caller's family.
func (s *familyService) GetFamily(ctx context.Context, userID string) (*models.Family, error) {
	familyID, err := s.FamilyOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if familyID == nil {
		return nil, apperrors.ErrNotInFamily
	}

	var family models.Family
	if err := s.db.WithContext(ctx).First(&family, "id = ?", *familyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFamilyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &family, nil
}

// GetMembers lists the caller's family members, admin flagged.
func (s *familyService) GetMembers(ctx context.Context, userID string) ([]models.FamilyMember, error) {
	family, err := s.GetFamily(ctx, userID)
	if err != nil {
		return nil, err
	}

	var users []models.User
	if err := s.db.WithContext(ctx).
		Where("family_id = ?", family.ID).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	members := make([]models.FamilyMember, 0, len(users))
	for _, u := range users {
		members = append(members, models.FamilyMember{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			AvatarURL: u.AvatarURL,
			IsAdmin:   u.ID == family.AdminID,
		})
	}
	return members, nil
}

// UpdateFamily changes the family profile. Only the admin may do this.
func (s *familyService) UpdateFamily(ctx context.Context, userID string, name, avatarURL *string) (*models.Family, error) {
	family, err := s.GetFamily(ctx, userID)
	if err != nil {
		return nil, err
	}
	if family.AdminID != userID {
		return nil, apperrors.ErrNotFamilyAdmin
	}

	updates := map[string]interface{}{}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperrors.Validation("name", "family name must not be empty")
		}
		updates["name"] = trimmed
	}
	if avatarURL != nil {
		if *avatarURL == "" {
			updates["avatar_url"] = nil
		} else {
			updates["avatar_url"] = *avatarURL
		}
	}
	if len(updates) == 0 {
		return family, nil
	}

	if err := s.db.WithContext(ctx).Model(family).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetFamily(ctx, userID)
}

// LeaveFamily removes the caller from their family. The admin can only
// leave as the last member, which dissolves the family.
func (s *familyService) LeaveFamily(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := loadUser(tx, userID)
		if err != nil {
			return err
		}
		if user.FamilyID == nil {
			return apperrors.ErrNotInFamily
		}

		var family models.Family
		if err := tx.First(&family, "id = ?", *user.FamilyID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if family.AdminID == userID {
			var others int64
			if err := tx.Model(&models.User{}).
				Where("family_id = ? AND id <> ?", family.ID, userID).
				Count(&others).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if others > 0 {
				return apperrors.ErrAdminHasMembers
			}
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("family_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if family.AdminID == userID {
			if err := tx.Delete(&models.Family{}, "id = ?", family.ID).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	return asAppError(err)
}

// loadUser reads a user through tx so checks and writes share one transaction.
func loadUser(tx *gorm.DB, userID string) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// asAppError passes AppErrors through and wraps anything else as internal.
func asAppError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
