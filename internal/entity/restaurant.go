package entity

// Restaurant represents the restaurants table. A restaurant (unit) is the
// tenancy boundary for metrics: every query is scoped through OwnerID.
type Restaurant struct {
	ID         int    `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	ExternalID string `db:"external_id" json:"external_id"`
	OwnerID    int    `db:"owner_id" json:"owner_id"`
}

type RestaurantInsert struct {
	Name       string `json:"name" valid:"required"`
	ExternalID string `json:"external_id"`
}
