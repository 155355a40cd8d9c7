package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models. The schema itself is owned by the goose migrations.
type UserModel struct {
	ID        int64     `gorm:"primaryKey"`
	Username  string    `gorm:"not null"`
	Email     string    `gorm:"not null"`
	Password  string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

type CatModel struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Tag         *string
	Descreption *string
	Img         *string
}

func (CatModel) TableName() string { return "cats" }

type AdoptionModel struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"not null"`
	CatID     int64     `gorm:"not null"`
	AdoptedAt time.Time `gorm:"not null"`
}

func (AdoptionModel) TableName() string { return "adoptions" }

type SessionModel struct {
	Sid     string         `gorm:"column:sid;primaryKey"`
	UserID  *int64         `gorm:"column:user_id"`
	Expires time.Time      `gorm:"not null"`
	Data    datatypes.JSON `gorm:"type:json;not null"`
}

func (SessionModel) TableName() string { return "sessions" }
