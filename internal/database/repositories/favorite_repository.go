// Package repositories provides data access layer implementations.
package repositories

import (
	"context"
	"errors"

	"github.com/lucsky/cuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bbernstein/lacylights-palette/internal/database/models"
)

// FavoriteRepository handles favorite data access.
type FavoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new FavoriteRepository.
func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// FindBySignature returns every favorite recorded for a step domain,
// ordered by record index.
func (r *FavoriteRepository) FindBySignature(ctx context.Context, signature string) ([]models.Favorite, error) {
	var favorites []models.Favorite
	result := r.db.WithContext(ctx).
		Where("signature = ?", signature).
		Order("record_index ASC").
		Find(&favorites)
	return favorites, result.Error
}

// Find returns a single favorite, or nil if the record is not a favorite.
func (r *FavoriteRepository) Find(ctx context.Context, signature string, index int) (*models.Favorite, error) {
	var favorite models.Favorite
	result := r.db.WithContext(ctx).
		First(&favorite, "signature = ? AND record_index = ?", signature, index)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &favorite, nil
}

// Add marks a record as a favorite. Adding an existing favorite is a no-op.
func (r *FavoriteRepository) Add(ctx context.Context, favorite *models.Favorite) error {
	if favorite.ID == "" {
		favorite.ID = cuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(favorite).Error
}

// Remove clears a favorite.
func (r *FavoriteRepository) Remove(ctx context.Context, signature string, index int) error {
	return r.db.WithContext(ctx).
		Delete(&models.Favorite{}, "signature = ? AND record_index = ?", signature, index).Error
}

// Count returns the number of favorites for a step domain.
func (r *FavoriteRepository) Count(ctx context.Context, signature string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("signature = ?", signature).
		Count(&count)
	return count, result.Error
}

// Signatures returns every step domain signature that has favorites.
func (r *FavoriteRepository) Signatures(ctx context.Context) ([]string, error) {
	var signatures []string
	result := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Distinct("signature").
		Order("signature ASC").
		Pluck("signature", &signatures)
	return signatures, result.Error
}
