package store

import (
	"context"
	"fmt"

	"github.com/ifooddash/dashboard/internal/dependency"
	"github.com/ifooddash/dashboard/internal/entity"
)

type usersStore struct {
	*MYSQLStore
}

// Users returns an object implementing the dependency.Users interface
func (ms *MYSQLStore) Users() dependency.Users {
	return &usersStore{
		MYSQLStore: ms,
	}
}

func (us *usersStore) AddUser(ctx context.Context, name, email, passwordHash string) (*entity.User, error) {
	query := `
	INSERT INTO users (name, email, password_hash)
	VALUES (:name, :email, :passwordHash)`

	id, err := ExecNamedLastId(ctx, us.db, query, map[string]any{
		"name":         name,
		"email":        email,
		"passwordHash": passwordHash,
	})
	if err != nil {
		if us.IsErrUniqueViolation(err) {
			return nil, fmt.Errorf("add user: %w", err)
		}
		return nil, fmt.Errorf("can't add user: %w", err)
	}

	return us.GetUserById(ctx, id)
}

func (us *usersStore) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
	SELECT id, name, email, password_hash, created_at
	FROM users WHERE email = :email`

	u, err := QueryNamedOne[entity.User](ctx, us.db, query, map[string]any{
		"email": email,
	})
	if err != nil {
		return nil, fmt.Errorf("can't get user by email: %w", err)
	}
	return &u, nil
}

func (us *usersStore) GetUserById(ctx context.Context, id int) (*entity.User, error) {
	query := `
	SELECT id, name, email, password_hash, created_at
	FROM users WHERE id = :id`

	u, err := QueryNamedOne[entity.User](ctx, us.db, query, map[string]any{
		"id": id,
	})
	if err != nil {
		return nil, fmt.Errorf("can't get user by id: %w", err)
	}
	return &u, nil
}
