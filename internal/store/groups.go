package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbutil "github.com/squadup/status-api/internal/db"
	"github.com/squadup/status-api/internal/models"
	"gorm.io/gorm"
)

// GroupStore is the group persistence interface the services consume.
type GroupStore interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
	FindByName(ctx context.Context, name string) (*models.Group, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Group, error)
	List(ctx context.Context, nameFilter string) ([]models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	UpdateJoinKeyHash(ctx context.Context, id, hash string) (bool, error)
}

// GormGroupStore persists groups through GORM.
type GormGroupStore struct {
	db *gorm.DB
}

// NewGormGroupStore constructs a GormGroupStore.
func NewGormGroupStore(db *gorm.DB) *GormGroupStore {
	return &GormGroupStore{db: db}
}

// FindByID returns the group with the given id, or nil when absent.
func (s *GormGroupStore) FindByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	errFind := s.db.WithContext(ctx).Where("id = ?", id).First(&group).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("group store: find by id: %w", errFind)
	}
	return &group, nil
}

// FindByName returns the oldest group with the exact name, or nil when
// absent. Names are not unique; the oldest row wins for seeding purposes.
func (s *GormGroupStore) FindByName(ctx context.Context, name string) (*models.Group, error) {
	var group models.Group
	errFind := s.db.WithContext(ctx).
		Where("name = ?", name).
		Order("created_at ASC").
		First(&group).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("group store: find by name: %w", errFind)
	}
	return &group, nil
}

// FindByIDs returns the groups matching the given ids.
func (s *GormGroupStore) FindByIDs(ctx context.Context, ids []string) ([]models.Group, error) {
	if len(ids) == 0 {
		return []models.Group{}, nil
	}
	var rows []models.Group
	errFind := s.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at ASC").Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("group store: find by ids: %w", errFind)
	}
	return rows, nil
}

// List returns groups, optionally filtered by a case-insensitive name
// substring.
func (s *GormGroupStore) List(ctx context.Context, nameFilter string) ([]models.Group, error) {
	conn := s.db.WithContext(ctx)
	q := conn.Model(&models.Group{})
	if nameFilter != "" {
		pattern := dbutil.NormalizeLikePattern(conn, "%"+nameFilter+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(conn, "name"), pattern)
	}
	var rows []models.Group
	if errFind := q.Order("created_at ASC").Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("group store: list: %w", errFind)
	}
	return rows, nil
}

// Create inserts a new group row.
func (s *GormGroupStore) Create(ctx context.Context, group *models.Group) error {
	if errCreate := s.db.WithContext(ctx).Create(group).Error; errCreate != nil {
		return fmt.Errorf("group store: create: %w", errCreate)
	}
	return nil
}

// UpdateJoinKeyHash overwrites a group's join key hash. It reports whether a
// row matched.
func (s *GormGroupStore) UpdateJoinKeyHash(ctx context.Context, id, hash string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Group{}).Where("id = ?", id).Updates(map[string]any{
		"join_key_hash": hash,
		"updated_at":    time.Now().UTC(),
	})
	if res.Error != nil {
		return false, fmt.Errorf("group store: update join key: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
