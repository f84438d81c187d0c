package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vendora/vendora/internal/models"
	"github.com/vendora/vendora/internal/repository/postgres"
)

const selectUserByIDQuery = `
						SELECT id, name, email, phone, role, is_active FROM users
						WHERE id = $1
`

// UserRepository implements the read-only identity view
type UserRepository struct {
	db *postgres.DB
}

// NewUserRepository creates new UserRepository instance
func NewUserRepository(db *postgres.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUserByID returns user by id
func (ur *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := models.User{}
	err := ur.db.QueryRow(ctx, selectUserByIDQuery, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.Phone, &user.Role, &user.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
