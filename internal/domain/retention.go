package domain

import "fmt"

// RetentionPolicy bounds the age of local artifacts and run logs. It is
// applied independently to each artifact class.
type RetentionPolicy struct {
	MaxAgeDays int

	// AllowPurge must be set explicitly for MaxAgeDays == 0 to mean
	// "delete everything". Without it a zero policy is a configuration
	// error, not an instant wipe.
	AllowPurge bool
}

// Validate rejects policies that would silently destroy the backup set.
func (p RetentionPolicy) Validate() error {
	if p.MaxAgeDays < 0 {
		return fmt.Errorf("retention days must not be negative, got %d", p.MaxAgeDays)
	}
	if p.MaxAgeDays == 0 && !p.AllowPurge {
		return fmt.Errorf("retention of 0 days deletes every artifact; set the purge override to confirm")
	}
	return nil
}
