package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ifooddash/dashboard/internal/entity"
)

func testDSN() string {
	if dsn := os.Getenv("MYSQL_TEST_DSN"); dsn != "" {
		return dsn
	}
	return "user:pass@(localhost:3306)/ifooddash?charset=utf8&parseTime=true"
}

func newTestDB(t *testing.T) *MYSQLStore {
	db, err := New(context.Background(), Config{
		DSN:         testDSN(),
		Automigrate: true,
	})
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}

	_, err = db.db.ExecContext(context.Background(), "SET FOREIGN_KEY_CHECKS = 0")
	assert.NoError(t, err)
	_, err = db.db.ExecContext(context.Background(), "DELETE FROM feedbacks")
	assert.NoError(t, err)
	_, err = db.db.ExecContext(context.Background(), "DELETE FROM order_items")
	assert.NoError(t, err)
	_, err = db.db.ExecContext(context.Background(), "DELETE FROM orders")
	assert.NoError(t, err)
	_, err = db.db.ExecContext(context.Background(), "DELETE FROM daily_metrics")
	assert.NoError(t, err)
	_, err = db.db.ExecContext(context.Background(), "DELETE FROM restaurants")
	assert.NoError(t, err)
	_, err = db.db.ExecContext(context.Background(), "DELETE FROM users")
	assert.NoError(t, err)
	_, err = db.db.ExecContext(context.Background(), "SET FOREIGN_KEY_CHECKS = 1")
	assert.NoError(t, err)

	return db
}

// seedOwner creates a user with one restaurant and returns both ids.
func seedOwner(t *testing.T, db *MYSQLStore, email string) (int, int) {
	ctx := context.Background()
	u, err := db.Users().AddUser(ctx, "owner "+email, email, "hash")
	assert.NoError(t, err)
	r, err := db.Restaurants().AddRestaurant(ctx, u.ID, &entity.RestaurantInsert{
		Name:       "unit of " + email,
		ExternalID: "ext-" + email,
	})
	assert.NoError(t, err)
	return u.ID, r.ID
}
