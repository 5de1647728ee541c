// Package postgres implements the store contracts on GORM/PostgreSQL.
package postgres

import (
	"gorm.io/gorm"
)

// Store implements every store interface against a single GORM handle.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}
