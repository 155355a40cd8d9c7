package app

import (
	"context"
	"fmt"

	"catgallery/pkg/domain"
)

func (a *App) ListCats(ctx context.Context, filter domain.CatFilter) ([]domain.Cat, error) {
	cats, err := a.store.ListCats(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list cats: %w", err)
	}
	return cats, nil
}

// GetCat returns zero or one cat; callers render it as a list.
func (a *App) GetCat(ctx context.Context, id int64) ([]domain.Cat, error) {
	cat, ok, err := a.store.GetCat(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get cat: %w", err)
	}
	if !ok {
		return []domain.Cat{}, nil
	}
	return []domain.Cat{cat}, nil
}

func (a *App) CreateCat(ctx context.Context, fields domain.CatFields) (domain.Cat, error) {
	cat, err := a.store.CreateCat(ctx, fields)
	if err != nil {
		return domain.Cat{}, fmt.Errorf("create cat: %w", err)
	}
	return cat, nil
}

// UpdateCat replaces all four fields. A nil result means no such cat.
func (a *App) UpdateCat(ctx context.Context, id int64, fields domain.CatFields) (*domain.Cat, error) {
	cat, ok, err := a.store.UpdateCat(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("update cat: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &cat, nil
}

func (a *App) DeleteCat(ctx context.Context, id int64) error {
	if err := a.store.DeleteCat(ctx, id); err != nil {
		return fmt.Errorf("delete cat: %w", err)
	}
	return nil
}

func (a *App) ListTags(ctx context.Context) ([]string, error) {
	tags, err := a.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}
