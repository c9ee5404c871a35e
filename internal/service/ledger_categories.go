package service

import (
	"context"
	"strings"

	"flowstate/internal/model"
)

const maxCategoryName = 100

func normalizeCategory(name, color string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", invalid("category name is required")
	}
	if len([]rune(name)) > maxCategoryName {
		return "", "", invalid("category name is longer than %d characters", maxCategoryName)
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = model.DefaultColor
	}
	return name, color, nil
}

func (s *LedgerService) CreateCategory(ctx context.Context, userID, name, color string) (*model.Category, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	name, color, err := normalizeCategory(name, color)
	if err != nil {
		return nil, err
	}
	category := model.Category{UserID: userID, Name: name, Color: color}
	if err := s.categoryRepo.Create(ctx, &category); err != nil {
		return nil, err
	}
	s.changed(ctx, userID)
	return &category, nil
}

func (s *LedgerService) ListCategories(ctx context.Context, userID string, offset, limit int) ([]model.Category, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	return s.categoryRepo.ListByUser(ctx, userID, offset, limit)
}

// UpdateCategory replaces name and color. It fails with ErrNotFound when the caller has no
// category with that id.
func (s *LedgerService) UpdateCategory(ctx context.Context, userID string, categoryID uint, name, color string) (*model.Category, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	name, color, err := normalizeCategory(name, color)
	if err != nil {
		return nil, err
	}
	category, err := s.categoryRepo.Update(ctx, userID, categoryID, name, color)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, userID)
	return category, nil
}

// DeleteCategory removes the category and uncategorizes its sessions in one transaction.
// Sessions keep their duration, status and note. It reports false when nothing matched.
func (s *LedgerService) DeleteCategory(ctx context.Context, userID string, categoryID uint) (bool, error) {
	if err := requireOwner(userID); err != nil {
		return false, err
	}
	deleted, err := s.categoryRepo.DeleteDetaching(ctx, userID, categoryID)
	if err != nil {
		ledgerLogger().ErrorContext(ctx, "category delete failed",
			"operation", "delete_category",
			"outcome", "failure",
			"category_id", categoryID,
			"error", err,
		)
		return false, err
	}
	if deleted {
		ledgerLogger().InfoContext(ctx, "category deleted",
			"operation", "delete_category",
			"outcome", "success",
			"category_id", categoryID,
		)
		s.changed(ctx, userID)
	}
	return deleted, nil
}

// CategoryByName resolves one of the caller's categories by name, ignoring case.
func (s *LedgerService) CategoryByName(ctx context.Context, userID, name string) (*model.Category, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	return s.categoryRepo.FindByName(ctx, userID, strings.TrimSpace(name))
}
