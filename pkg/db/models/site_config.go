package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/wisherr-app/wisherr-backend/pkg/enums"
)

// SiteConfig is a typed key/value row for runtime settings.
type SiteConfig struct {
	ID          uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Key         string                `gorm:"type:text;not null;uniqueIndex"`
	Value       string                `gorm:"type:text;not null"`
	ValueType   enums.ConfigValueType `gorm:"column:value_type;type:text;not null;default:'string'"`
	Description *string               `gorm:"type:text"`
	UpdatedBy   *uuid.UUID            `gorm:"column:updated_by;type:uuid"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
