package domain

import (
	"time"
)

// Category labels transactions. Built-in default categories have no owner
// and cannot be modified; users may add their own on top.
type Category struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      TransactionType `json:"type"`
	UserID    string          `json:"user_id,omitempty"`
	IsDefault bool            `json:"is_default"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
