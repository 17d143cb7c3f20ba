package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Table is the generic record-store client for one entity type.
type Table[T any] struct {
	db *gorm.DB
}

// NewTable binds a Table to db.
func NewTable[T any](db *gorm.DB) Table[T] {
	return Table[T]{db: db}
}

// List returns up to limit records ordered by order ("id ASC" when empty). limit <= 0 means no limit.
func (t Table[T]) List(ctx context.Context, order string, limit int) ([]T, error) {
	if order == "" {
		order = "id ASC"
	}
	q := t.db.WithContext(ctx).Order(order)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []T
	if errFind := q.Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("store: list %T: %w", *new(T), errFind)
	}
	return rows, nil
}

// Search returns up to limit records matching conds in the given order ("id DESC" when empty).
func (t Table[T]) Search(ctx context.Context, conds map[string]any, order string, limit int) ([]T, error) {
	if order == "" {
		order = "id DESC"
	}
	q := t.db.WithContext(ctx).Order(order)
	if len(conds) > 0 {
		q = q.Where(conds)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []T
	if errFind := q.Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("store: search %T: %w", *new(T), errFind)
	}
	return rows, nil
}

// Filter returns every record whose columns equal conds, ordered by id.
func (t Table[T]) Filter(ctx context.Context, conds map[string]any) ([]T, error) {
	var rows []T
	q := t.db.WithContext(ctx)
	if len(conds) > 0 {
		q = q.Where(conds)
	}
	if errFind := q.Order("id ASC").Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("store: filter %T: %w", *new(T), errFind)
	}
	return rows, nil
}

// First returns the lowest-id record matching conds.
func (t Table[T]) First(ctx context.Context, conds map[string]any) (*T, error) {
	var row T
	q := t.db.WithContext(ctx)
	if len(conds) > 0 {
		q = q.Where(conds)
	}
	if errFind := q.Order("id ASC").First(&row).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: first %T: %w", row, errFind)
	}
	return &row, nil
}

// Get returns the record with the given primary key.
func (t Table[T]) Get(ctx context.Context, id uint64) (*T, error) {
	var row T
	if errFind := t.db.WithContext(ctx).First(&row, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get %T %d: %w", row, id, errFind)
	}
	return &row, nil
}

// Create inserts rec and fills its generated fields.
func (t Table[T]) Create(ctx context.Context, rec *T) error {
	if errCreate := t.db.WithContext(ctx).Create(rec).Error; errCreate != nil {
		return fmt.Errorf("store: create %T: %w", *rec, errCreate)
	}
	return nil
}

// Update writes fields onto the record with the given id.
func (t Table[T]) Update(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := t.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("store: update %T %d: %w", *new(T), id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateWhere writes fields onto every record matching conds and returns the affected count.
func (t Table[T]) UpdateWhere(ctx context.Context, conds map[string]any, fields map[string]any) (int64, error) {
	res := t.db.WithContext(ctx).Model(new(T)).Where(conds).Updates(fields)
	if res.Error != nil {
		return 0, fmt.Errorf("store: update %T: %w", *new(T), res.Error)
	}
	return res.RowsAffected, nil
}

// Delete removes the record with the given id.
func (t Table[T]) Delete(ctx context.Context, id uint64) error {
	res := t.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return fmt.Errorf("store: delete %T %d: %w", *new(T), id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns how many records match conds.
func (t Table[T]) Count(ctx context.Context, conds map[string]any) (int64, error) {
	var n int64
	q := t.db.WithContext(ctx).Model(new(T))
	if len(conds) > 0 {
		q = q.Where(conds)
	}
	if errCount := q.Count(&n).Error; errCount != nil {
		return 0, fmt.Errorf("store: count %T: %w", *new(T), errCount)
	}
	return n, nil
}
