package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"catgallery/pkg/domain"
)

// MemoryStore keeps everything in-process. It enforces the same unique,
// foreign key and cascade rules as the Postgres schema and backs tests and
// database-less local runs.
type MemoryStore struct {
	mu        sync.RWMutex
	now       func() time.Time
	users     map[int64]domain.User
	cats      map[int64]domain.Cat
	adoptions []domain.Adoption
	nextUser  int64
	nextCat   int64
	nextAdopt int64
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:   time.Now,
		users: make(map[int64]domain.User),
		cats:  make(map[int64]domain.Cat),
	}
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) CreateUser(_ context.Context, u domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return domain.User{}, ErrDuplicate
		}
	}
	m.nextUser++
	u.ID = m.nextUser
	u.CreatedAt = m.now().UTC()
	m.users[u.ID] = u
	return u, nil
}

func (m *MemoryStore) UserExists(_ context.Context, username, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (m *MemoryStore) ListCats(_ context.Context, filter domain.CatFilter) ([]domain.Cat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	search := strings.ToLower(filter.Search)
	out := make([]domain.Cat, 0, len(m.cats))
	for _, c := range m.cats {
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) {
			continue
		}
		if filter.Tag != "" && (c.Tag == nil || *c.Tag != filter.Tag) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetCat(_ context.Context, id int64) (domain.Cat, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cats[id]
	return c, ok, nil
}

func (m *MemoryStore) CreateCat(_ context.Context, fields domain.CatFields) (domain.Cat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextCat++
	c := catFromModel(catToModel(m.nextCat, fields))
	m.cats[c.ID] = c
	return c, nil
}

func (m *MemoryStore) UpdateCat(_ context.Context, id int64, fields domain.CatFields) (domain.Cat, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cats[id]; !ok {
		return domain.Cat{}, false, nil
	}
	c := catFromModel(catToModel(id, fields))
	m.cats[id] = c
	return c, true, nil
}

func (m *MemoryStore) DeleteCat(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cats, id)
	kept := m.adoptions[:0]
	for _, a := range m.adoptions {
		if a.CatID != id {
			kept = append(kept, a)
		}
	}
	m.adoptions = kept
	return nil
}

func (m *MemoryStore) ListTags(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	tags := []string{}
	for _, c := range m.cats {
		if c.Tag == nil || *c.Tag == "" {
			continue
		}
		if _, dup := seen[*c.Tag]; dup {
			continue
		}
		seen[*c.Tag] = struct{}{}
		tags = append(tags, *c.Tag)
	}
	sort.Strings(tags)
	return tags, nil
}

func (m *MemoryStore) Adopt(_ context.Context, userID, catID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return ErrForeignKey
	}
	if _, ok := m.cats[catID]; !ok {
		return ErrForeignKey
	}
	for _, a := range m.adoptions {
		if a.UserID == userID && a.CatID == catID {
			return ErrDuplicate
		}
	}
	m.nextAdopt++
	m.adoptions = append(m.adoptions, domain.Adoption{
		ID:        m.nextAdopt,
		UserID:    userID,
		CatID:     catID,
		AdoptedAt: m.now().UTC(),
	})
	return nil
}

func (m *MemoryStore) Unadopt(_ context.Context, userID, catID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.adoptions {
		if a.UserID == userID && a.CatID == catID {
			m.adoptions = append(m.adoptions[:i], m.adoptions[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) ListAdoptedCats(_ context.Context, userID int64) ([]domain.Cat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mine := make([]domain.Adoption, 0)
	for _, a := range m.adoptions {
		if a.UserID == userID {
			mine = append(mine, a)
		}
	}
	sort.Slice(mine, func(i, j int) bool {
		if !mine[i].AdoptedAt.Equal(mine[j].AdoptedAt) {
			return mine[i].AdoptedAt.After(mine[j].AdoptedAt)
		}
		return mine[i].ID > mine[j].ID
	})
	out := make([]domain.Cat, 0, len(mine))
	for _, a := range mine {
		if c, ok := m.cats[a.CatID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryStore) CountAdoptions(_ context.Context, userID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, a := range m.adoptions {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}
