package models

import "time"

// SystemConfigKey is the fixed identifier of the configuration singleton.
const SystemConfigKey = "access_keys"

// SystemConfig is the singleton record holding the two shared secrets. Its
// absence is a valid state: the service then falls back to the compiled-in
// bootstrap keys until an initialization run creates it.
type SystemConfig struct {
	ConfigKey      string    `gorm:"primaryKey;size:32" json:"config_key"`
	AdminPassword  string    `gorm:"size:255;not null" json:"-"`
	UnlockPassword string    `gorm:"size:255;not null" json:"-"`
	UpdatedAt      time.Time `json:"updated_at"`
}
