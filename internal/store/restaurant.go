package store

import (
	"context"
	"fmt"

	"github.com/ifooddash/dashboard/internal/dependency"
	"github.com/ifooddash/dashboard/internal/entity"
)

type restaurantsStore struct {
	*MYSQLStore
}

// Restaurants returns an object implementing the dependency.Restaurants interface
func (ms *MYSQLStore) Restaurants() dependency.Restaurants {
	return &restaurantsStore{
		MYSQLStore: ms,
	}
}

func (rs *restaurantsStore) AddRestaurant(ctx context.Context, ownerID int, r *entity.RestaurantInsert) (*entity.Restaurant, error) {
	query := `
	INSERT INTO restaurants (name, external_id, owner_id)
	VALUES (:name, :externalId, :ownerId)`

	id, err := ExecNamedLastId(ctx, rs.db, query, map[string]any{
		"name":       r.Name,
		"externalId": r.ExternalID,
		"ownerId":    ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("can't add restaurant: %w", err)
	}

	return &entity.Restaurant{
		ID:         id,
		Name:       r.Name,
		ExternalID: r.ExternalID,
		OwnerID:    ownerID,
	}, nil
}

func (rs *restaurantsStore) GetRestaurantsByOwner(ctx context.Context, ownerID int) ([]entity.Restaurant, error) {
	query := `
	SELECT id, name, external_id, owner_id
	FROM restaurants
	WHERE owner_id = :ownerId
	ORDER BY id`

	list, err := QueryListNamed[entity.Restaurant](ctx, rs.db, query, map[string]any{
		"ownerId": ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("can't get restaurants by owner: %w", err)
	}
	return list, nil
}

func (rs *restaurantsStore) GetRestaurantByIdForOwner(ctx context.Context, id, ownerID int) (*entity.Restaurant, error) {
	query := `
	SELECT id, name, external_id, owner_id
	FROM restaurants
	WHERE id = :id AND owner_id = :ownerId`

	r, err := QueryNamedOne[entity.Restaurant](ctx, rs.db, query, map[string]any{
		"id":      id,
		"ownerId": ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("can't get restaurant %d for owner %d: %w", id, ownerID, err)
	}
	return &r, nil
}
