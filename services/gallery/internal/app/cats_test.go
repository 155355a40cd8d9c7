package app

import (
	"context"
	"testing"

	"catgallery/pkg/domain"
)

func ptr(s string) *string { return &s }

func TestCatCatalog(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()

	whiskers, _ := env.app.CreateCat(ctx, domain.CatFields{Name: "Whiskers", Tag: ptr("orange")})
	_, _ = env.app.CreateCat(ctx, domain.CatFields{Name: "White Paw", Tag: ptr("white")})
	_, _ = env.app.CreateCat(ctx, domain.CatFields{Name: "Marmalade", Tag: ptr("orange")})

	got, err := env.app.ListCats(ctx, domain.CatFilter{Search: "WHI", Tag: "orange"})
	if err != nil || len(got) != 1 || got[0].ID != whiskers.ID {
		t.Fatalf("filtered list = %+v err=%v", got, err)
	}

	one, _ := env.app.GetCat(ctx, whiskers.ID)
	if len(one) != 1 {
		t.Fatalf("get = %+v", one)
	}
	none, _ := env.app.GetCat(ctx, 999)
	if none == nil || len(none) != 0 {
		t.Fatalf("get missing = %#v", none)
	}

	updated, err := env.app.UpdateCat(ctx, whiskers.ID, domain.CatFields{Name: "Sir Whiskers", Descreption: ptr("grumpy")})
	if err != nil || updated == nil || updated.Tag != nil || *updated.Descreption != "grumpy" {
		t.Fatalf("update = %+v err=%v", updated, err)
	}
	missing, err := env.app.UpdateCat(ctx, 999, domain.CatFields{Name: "x"})
	if err != nil || missing != nil {
		t.Fatalf("update missing = %+v err=%v", missing, err)
	}

	tags, _ := env.app.ListTags(ctx)
	if len(tags) != 2 || tags[0] != "orange" || tags[1] != "white" {
		t.Fatalf("tags = %v", tags)
	}
}
