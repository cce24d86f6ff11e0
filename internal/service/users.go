package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/store"
)

type CreateUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
}

type Users struct {
	db *sql.DB
}

func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

func (s *Users) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return store.CreateUser(ctx, s.db, req.Email, req.Name)
}

func (s *Users) Get(ctx context.Context, id int64) (*models.User, error) {
	return store.GetUser(ctx, s.db, id)
}
