package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"flowstate/internal/model"
)

// CategoryRepository manages session categories. Every query is scoped by owner.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *model.Category) error {
	return translate(r.db.WithContext(ctx).Create(category).Error, "create category")
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Category, error) {
	offset, limit = page(offset, limit)
	var categories []model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("id ASC").Offset(offset).Limit(limit).
		Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// ListByIDs returns the owner's categories among ids; unknown ids are skipped.
func (r *CategoryRepository) ListByIDs(ctx context.Context, userID string, ids []uint) ([]model.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var categories []model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id IN ?", userID, ids).
		Order("id ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories by id: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, userID string, id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&category).Error; err != nil {
		return nil, translate(err, "find category")
	}
	return &category, nil
}

// FindByName matches the owner's category name case-insensitively.
func (r *CategoryRepository) FindByName(ctx context.Context, userID, name string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ? AND LOWER(name) = LOWER(?)", userID, name).
		Order("id ASC").First(&category).Error; err != nil {
		return nil, translate(err, "find category")
	}
	return &category, nil
}

// Update replaces name and color of the owner's category.
func (r *CategoryRepository) Update(ctx context.Context, userID string, id uint, name, color string) (*model.Category, error) {
	res := r.db.WithContext(ctx).Model(&model.Category{}).
		Where("user_id = ? AND id = ?", userID, id).
		Updates(map[string]interface{}{"name": name, "color_code": color})
	if res.Error != nil {
		return nil, translate(res.Error, "update category")
	}
	if res.RowsAffected == 0 {
		return nil, translate(gorm.ErrRecordNotFound, "update category")
	}
	return r.GetByID(ctx, userID, id)
}

// DeleteDetaching clears category_id on every session referencing the category and removes
// the category, both inside one transaction. It reports false when the owner has no such
// category.
func (r *CategoryRepository) DeleteDetaching(ctx context.Context, userID string, id uint) (bool, error) {
	found := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category model.Category
		err := tx.Where("user_id = ? AND id = ?", userID, id).First(&category).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&model.FocusSession{}).Where("category_id = ?", id).
			UpdateColumn("category_id", nil).Error; err != nil {
			return fmt.Errorf("detach sessions: %w", err)
		}

		res := tx.Where("user_id = ? AND id = ?", userID, id).Delete(&model.Category{})
		if res.Error != nil {
			return fmt.Errorf("remove category: %w", res.Error)
		}
		found = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	return found, nil
}
