package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"catgallery/pkg/domain"
)

// GormSessionStore keeps sessions in the sessions table.
type GormSessionStore struct {
	db *gorm.DB
}

func NewGormSessionStore(db *gorm.DB) *GormSessionStore {
	return &GormSessionStore{db: db}
}

// NewID returns a fresh random session id.
func (s *GormSessionStore) NewID() string {
	return uuid.NewString()
}

// Save upserts the session payload and expiry. An existing user link is
// left alone; use LinkUser to set it.
func (s *GormSessionStore) Save(ctx context.Context, sess domain.Session) error {
	data, err := json.Marshal(sess.Data)
	if err != nil {
		return fmt.Errorf("encode session data: %w", err)
	}
	err = s.db.WithContext(ctx).Exec(
		`INSERT INTO sessions (sid, user_id, expires, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT (sid) DO UPDATE SET expires = EXCLUDED.expires, data = EXCLUDED.data`,
		sess.ID, sess.UserID, sess.Expires.UTC(), datatypes.JSON(data),
	).Error
	return classify(err, "SESSION_SAVE_FAILED", "sid", sess.ID)
}

func (s *GormSessionStore) Get(ctx context.Context, sid string) (domain.Session, bool, error) {
	var rows []SessionModel
	err := s.db.WithContext(ctx).Raw(
		"SELECT sid, user_id, expires, data FROM sessions WHERE sid = ?", sid,
	).Scan(&rows).Error
	if err != nil {
		return domain.Session{}, false, classify(err, "SESSION_GET_FAILED", "sid", sid)
	}
	if len(rows) == 0 {
		return domain.Session{}, false, nil
	}
	sess, err := sessionFromModel(rows[0])
	if err != nil {
		return domain.Session{}, false, err
	}
	return sess, true, nil
}

// Touch moves the expiry of sid forward.
func (s *GormSessionStore) Touch(ctx context.Context, sid string, expires time.Time) error {
	err := s.db.WithContext(ctx).Exec(
		"UPDATE sessions SET expires = ? WHERE sid = ?", expires.UTC(), sid,
	).Error
	return classify(err, "SESSION_TOUCH_FAILED", "sid", sid)
}

// LinkUser sets the owning user of sid. ErrNotFound if sid is gone.
func (s *GormSessionStore) LinkUser(ctx context.Context, sid string, userID int64) error {
	res := s.db.WithContext(ctx).Exec("UPDATE sessions SET user_id = ? WHERE sid = ?", userID, sid)
	if res.Error != nil {
		return classify(res.Error, "SESSION_LINK_FAILED", "sid", sid, "user_id", userID)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormSessionStore) Destroy(ctx context.Context, sid string) error {
	err := s.db.WithContext(ctx).Exec("DELETE FROM sessions WHERE sid = ?", sid).Error
	return classify(err, "SESSION_DESTROY_FAILED", "sid", sid)
}

// DeleteByUser removes every session linked to userID and returns how many.
func (s *GormSessionStore) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	res := s.db.WithContext(ctx).Exec("DELETE FROM sessions WHERE user_id = ?", userID)
	if res.Error != nil {
		return 0, classify(res.Error, "SESSION_CLEANUP_FAILED", "user_id", userID)
	}
	return res.RowsAffected, nil
}

// DeleteExpired removes sessions whose expiry is at or before now.
func (s *GormSessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Exec("DELETE FROM sessions WHERE expires <= ?", now.UTC())
	if res.Error != nil {
		return 0, classify(res.Error, "SESSION_PRUNE_FAILED")
	}
	return res.RowsAffected, nil
}

func sessionFromModel(m SessionModel) (domain.Session, error) {
	sess := domain.Session{ID: m.Sid, UserID: m.UserID, Expires: m.Expires}
	if len(m.Data) > 0 {
		if err := json.Unmarshal(m.Data, &sess.Data); err != nil {
			return domain.Session{}, fmt.Errorf("decode session %s: %w", m.Sid, err)
		}
	}
	return sess, nil
}
