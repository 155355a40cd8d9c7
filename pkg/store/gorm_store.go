package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/samber/oops"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"catgallery/pkg/domain"
	"catgallery/pkg/store/migrations"
)

const migrateLockID int64 = 51_470_218

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// Open connects to Postgres. It does not touch the schema; see Migrate.
func Open(dsn string) (*gorm.DB, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormLog,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded goose migrations while holding a Postgres
// advisory lock, so concurrent instances do not race on startup.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return withMigrationLock(ctx, db, func(sqlDB *sql.DB) error {
		goose.SetBaseFS(migrations.FS)
		if err := goose.SetDialect("postgres"); err != nil {
			return fmt.Errorf("set goose dialect: %w", err)
		}
		if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
			return oops.In("store").Code("MIGRATION_FAILED").With("operation", "goose up").Wrap(err)
		}
		return nil
	})
}

func withMigrationLock(ctx context.Context, db *gorm.DB, fn func(*sql.DB) error) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(sqlDB)
}

// NewGormStore wraps an open connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Ping checks that the database answers.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CreateUser inserts u and returns it with its assigned id. A taken username
// or email yields ErrDuplicate.
func (s *GormStore) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	m := UserModel{
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.PasswordHash,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.User{}, classify(err, "CREATE_USER_FAILED", "email", u.Email)
	}
	return userFromModel(m), nil
}

// UserExists reports whether any user has the given username or email.
func (s *GormStore) UserExists(ctx context.Context, username, email string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&UserModel{}).
		Where("email = ? OR username = ?", email, username).
		Count(&n).Error
	if err != nil {
		return false, classify(err, "USER_LOOKUP_FAILED", "email", email)
	}
	return n > 0, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	var m UserModel
	err := s.db.WithContext(ctx).Take(&m, "email = ?", email).Error
	if err != nil {
		err = classify(err, "USER_LOOKUP_FAILED", "email", email)
		if err == ErrNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(m), true, nil
}

// ListCats returns cats matching filter ordered by id.
func (s *GormStore) ListCats(ctx context.Context, filter domain.CatFilter) ([]domain.Cat, error) {
	q := s.db.WithContext(ctx).Model(&CatModel{})
	if filter.Search != "" {
		q = q.Where("name ILIKE ?", "%"+escapeLike(filter.Search)+"%")
	}
	if filter.Tag != "" {
		q = q.Where("tag = ?", filter.Tag)
	}
	var models []CatModel
	if err := q.Order("id").Find(&models).Error; err != nil {
		return nil, classify(err, "LIST_CATS_FAILED", "search", filter.Search, "tag", filter.Tag)
	}
	return catsFromModels(models), nil
}

func (s *GormStore) GetCat(ctx context.Context, id int64) (domain.Cat, bool, error) {
	var m CatModel
	err := s.db.WithContext(ctx).Take(&m, "id = ?", id).Error
	if err != nil {
		err = classify(err, "GET_CAT_FAILED", "cat_id", id)
		if err == ErrNotFound {
			return domain.Cat{}, false, nil
		}
		return domain.Cat{}, false, err
	}
	return catFromModel(m), true, nil
}

func (s *GormStore) CreateCat(ctx context.Context, fields domain.CatFields) (domain.Cat, error) {
	m := catToModel(0, fields)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Cat{}, classify(err, "CREATE_CAT_FAILED", "name", fields.Name)
	}
	return catFromModel(m), nil
}

// UpdateCat replaces all four fields of cat id. The bool is false when no
// such cat exists.
func (s *GormStore) UpdateCat(ctx context.Context, id int64, fields domain.CatFields) (domain.Cat, bool, error) {
	var models []CatModel
	err := s.db.WithContext(ctx).Raw(
		`UPDATE cats SET name = ?, tag = ?, descreption = ?, img = ? WHERE id = ?
		 RETURNING id, name, tag, descreption, img`,
		fields.Name, fields.Tag, fields.Descreption, fields.Img, id,
	).Scan(&models).Error
	if err != nil {
		return domain.Cat{}, false, classify(err, "UPDATE_CAT_FAILED", "cat_id", id)
	}
	if len(models) == 0 {
		return domain.Cat{}, false, nil
	}
	return catFromModel(models[0]), true, nil
}

// DeleteCat removes cat id; its adoptions go with it through the cascade.
// Deleting a missing cat is not an error.
func (s *GormStore) DeleteCat(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Exec("DELETE FROM cats WHERE id = ?", id).Error; err != nil {
		return classify(err, "DELETE_CAT_FAILED", "cat_id", id)
	}
	return nil
}

// ListTags returns the distinct non-empty tags in ascending order.
func (s *GormStore) ListTags(ctx context.Context) ([]string, error) {
	tags := []string{}
	err := s.db.WithContext(ctx).Raw(
		"SELECT DISTINCT tag FROM cats WHERE tag IS NOT NULL AND tag <> '' ORDER BY tag",
	).Scan(&tags).Error
	if err != nil {
		return nil, classify(err, "LIST_TAGS_FAILED")
	}
	return tags, nil
}

// Adopt records that userID adopted catID. Uniqueness is left to the
// adoptions_user_cat_key constraint: a repeat yields ErrDuplicate, a missing
// user or cat ErrForeignKey.
func (s *GormStore) Adopt(ctx context.Context, userID, catID int64) error {
	err := s.db.WithContext(ctx).Exec(
		"INSERT INTO adoptions (user_id, cat_id) VALUES (?, ?)", userID, catID,
	).Error
	return classify(err, "ADOPT_FAILED", "user_id", userID, "cat_id", catID)
}

// Unadopt deletes the (userID, catID) adoption or returns ErrNotFound.
func (s *GormStore) Unadopt(ctx context.Context, userID, catID int64) error {
	res := s.db.WithContext(ctx).Exec(
		"DELETE FROM adoptions WHERE user_id = ? AND cat_id = ?", userID, catID,
	)
	if res.Error != nil {
		return classify(res.Error, "UNADOPT_FAILED", "user_id", userID, "cat_id", catID)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAdoptedCats returns the user's cats, most recent adoption first.
func (s *GormStore) ListAdoptedCats(ctx context.Context, userID int64) ([]domain.Cat, error) {
	var models []CatModel
	err := s.db.WithContext(ctx).Raw(
		`SELECT cats.id, cats.name, cats.tag, cats.descreption, cats.img
		 FROM adoptions JOIN cats ON cats.id = adoptions.cat_id
		 WHERE adoptions.user_id = ?
		 ORDER BY adoptions.adopted_at DESC, adoptions.id DESC`,
		userID,
	).Scan(&models).Error
	if err != nil {
		return nil, classify(err, "LIST_ADOPTIONS_FAILED", "user_id", userID)
	}
	return catsFromModels(models), nil
}

func (s *GormStore) CountAdoptions(ctx context.Context, userID int64) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&AdoptionModel{}).Where("user_id = ?", userID).Count(&n).Error
	if err != nil {
		return 0, classify(err, "COUNT_ADOPTIONS_FAILED", "user_id", userID)
	}
	return int(n), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.Password,
		CreatedAt:    m.CreatedAt,
	}
}

func catToModel(id int64, f domain.CatFields) CatModel {
	return CatModel{ID: id, Name: f.Name, Tag: f.Tag, Descreption: f.Descreption, Img: f.Img}
}

func catFromModel(m CatModel) domain.Cat {
	return domain.Cat{ID: m.ID, Name: m.Name, Tag: m.Tag, Descreption: m.Descreption, Img: m.Img}
}

func catsFromModels(models []CatModel) []domain.Cat {
	out := make([]domain.Cat, 0, len(models))
	for _, m := range models {
		out = append(out, catFromModel(m))
	}
	return out
}
