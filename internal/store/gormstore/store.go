// Package gormstore keeps the credential in a single database row, so it
// survives restarts with nothing more than a sqlite file (or the shared
// MySQL instance in a deployed setup).
package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const credentialName = "faq_api_key"

type Credential struct {
	Name      string `gorm:"primaryKey;type:varchar(64)"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (Credential) TableName() string { return "credentials" }

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Credential{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context) (string, bool, error) {
	var c Credential
	err := s.db.WithContext(ctx).First(&c, "name = ?", credentialName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return c.Value, true, nil
}

func (s *Store) Save(ctx context.Context, value string) error {
	c := Credential{Name: credentialName, Value: value, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&c).Error
}

func (s *Store) Delete(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Delete(&Credential{}, "name = ?", credentialName).Error
}
