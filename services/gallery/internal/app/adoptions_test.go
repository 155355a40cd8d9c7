package app

import (
	"context"
	"errors"
	"testing"

	"catgallery/pkg/domain"
)

func adoptionFixture(t *testing.T) (testEnv, int64, []domain.Cat) {
	t.Helper()
	env := newTestApp(t)
	ctx := context.Background()
	mustRegister(t, env.app, "tom", "tom@example.com", "pw")
	u, _, _ := env.store.GetUserByEmail(ctx, "tom@example.com")

	var cats []domain.Cat
	for _, name := range []string{"A", "B", "C"} {
		c, err := env.app.CreateCat(ctx, domain.CatFields{Name: name})
		if err != nil {
			t.Fatalf("create cat: %v", err)
		}
		cats = append(cats, c)
	}
	return env, u.ID, cats
}

func TestAdoptTwiceConflicts(t *testing.T) {
	env, uid, cats := adoptionFixture(t)
	ctx := context.Background()

	if err := env.app.Adopt(ctx, uid, cats[0].ID); err != nil {
		t.Fatalf("first adopt: %v", err)
	}
	if err := env.app.Adopt(ctx, uid, cats[0].ID); !errors.Is(err, ErrAlreadyAdopted) {
		t.Fatalf("second adopt: got %v", err)
	}
	if n, _ := env.app.CountAdoptions(ctx, uid); n != 1 {
		t.Fatalf("expected exactly one adoption row, got %d", n)
	}
}

func TestAdoptUnknownCat(t *testing.T) {
	env, uid, _ := adoptionFixture(t)
	if err := env.app.Adopt(context.Background(), uid, 404); !errors.Is(err, ErrCatNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestUnadoptMissing(t *testing.T) {
	env, uid, cats := adoptionFixture(t)
	if err := env.app.Unadopt(context.Background(), uid, cats[1].ID); !errors.Is(err, ErrAdoptionNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestCountTracksAdoptAndUnadopt(t *testing.T) {
	env, uid, cats := adoptionFixture(t)
	ctx := context.Background()
	for _, c := range cats {
		if err := env.app.Adopt(ctx, uid, c.ID); err != nil {
			t.Fatalf("adopt: %v", err)
		}
	}
	if n, _ := env.app.CountAdoptions(ctx, uid); n != len(cats) {
		t.Fatalf("count = %d, want %d", n, len(cats))
	}
	if err := env.app.Unadopt(ctx, uid, cats[0].ID); err != nil {
		t.Fatalf("unadopt: %v", err)
	}
	if n, _ := env.app.CountAdoptions(ctx, uid); n != len(cats)-1 {
		t.Fatalf("count after unadopt = %d", n)
	}
}

func TestListAdoptionsMostRecentFirstAndCascade(t *testing.T) {
	env, uid, cats := adoptionFixture(t)
	ctx := context.Background()
	a, b := cats[0], cats[1]
	if err := env.app.Adopt(ctx, uid, a.ID); err != nil {
		t.Fatalf("adopt a: %v", err)
	}
	if err := env.app.Adopt(ctx, uid, b.ID); err != nil {
		t.Fatalf("adopt b: %v", err)
	}

	list, err := env.app.ListAdoptions(ctx, uid)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != b.ID || list[1].ID != a.ID {
		t.Fatalf("expected [B, A], got %+v", list)
	}

	if err := env.app.DeleteCat(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ = env.app.ListAdoptions(ctx, uid)
	if len(list) != 1 || list[0].ID != a.ID {
		t.Fatalf("expected deleted cat to drop out, got %+v", list)
	}
}
