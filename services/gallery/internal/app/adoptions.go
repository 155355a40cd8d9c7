package app

import (
	"context"
	"errors"
	"fmt"

	"catgallery/pkg/domain"
	"catgallery/pkg/store"
)

// Adopt records that userID adopted catID. Uniqueness of the pair is
// enforced by the store's constraint, not by a prior read.
func (a *App) Adopt(ctx context.Context, userID, catID int64) error {
	_, ok, err := a.store.GetCat(ctx, catID)
	if err != nil {
		return fmt.Errorf("check cat: %w", err)
	}
	if !ok {
		return ErrCatNotFound
	}
	err = a.store.Adopt(ctx, userID, catID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrDuplicate):
		return ErrAlreadyAdopted
	case errors.Is(err, store.ErrForeignKey):
		// cat deleted between the check and the insert
		return ErrCatNotFound
	default:
		return fmt.Errorf("adopt: %w", err)
	}
}

func (a *App) Unadopt(ctx context.Context, userID, catID int64) error {
	err := a.store.Unadopt(ctx, userID, catID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrAdoptionNotFound
	}
	if err != nil {
		return fmt.Errorf("unadopt: %w", err)
	}
	return nil
}

// ListAdoptions returns the user's cats, most recently adopted first.
func (a *App) ListAdoptions(ctx context.Context, userID int64) ([]domain.Cat, error) {
	cats, err := a.store.ListAdoptedCats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list adoptions: %w", err)
	}
	return cats, nil
}

func (a *App) CountAdoptions(ctx context.Context, userID int64) (int, error) {
	n, err := a.store.CountAdoptions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count adoptions: %w", err)
	}
	return n, nil
}
