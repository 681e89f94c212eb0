package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/emberlane/storefront-backend/pkg/enums"
)

// User is the owning entity for carts, wishlists and orders. Credential
// material is managed elsewhere and never stored here.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string         `gorm:"column:email;not null;uniqueIndex:users_email_key"`
	Name      string         `gorm:"column:name;not null"`
	Role      enums.UserRole `gorm:"column:role;not null;default:'customer'"`
	IsActive  bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
