package entity

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Feedback represents the feedbacks table. Rows are produced by an external
// process; this service only reads them for rating aggregates.
type Feedback struct {
	ID           int             `db:"id" json:"id"`
	OrderID      int             `db:"order_id" json:"order_id"`
	Rating       decimal.Decimal `db:"rating" json:"rating"`
	Comment      sql.NullString  `db:"comment" json:"comment,omitempty"`
	FeedbackType sql.NullString  `db:"feedback_type" json:"feedback_type,omitempty"`
}
