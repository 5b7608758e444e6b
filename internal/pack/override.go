package pack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Override is a time-bounded, ticket-referenced exception that
// downgrades one named hard-gate failure to a warning.
//
// An override never deletes a failure from the record; it only
// reclassifies it, and the reclassification stays visible in the
// output so audit trails are never silent.
type Override struct {
	ID     string `json:"id"`
	Gate   string `json:"gate"`
	Ticket string `json:"ticket"`
	Reason string `json:"reason"`

	// ExpiresAt is an ISO-8601 timestamp. At the instant of expiry
	// the override is already inactive: activation requires
	// now < expiresAt, strictly.
	ExpiresAt time.Time `json:"expiresAt"`
}

// ActiveFor reports whether this override suppresses a failure of the
// named gate at the given instant. Mismatched or expired overrides
// are inert.
func (o *Override) ActiveFor(gate string, now time.Time) bool {
	return o.Gate == gate && now.Before(o.ExpiresAt)
}

// DecodeOverrides parses and validates an override list from JSON.
func DecodeOverrides(data []byte) ([]Override, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var overrides []Override
	if err := dec.Decode(&overrides); err != nil {
		return nil, fmt.Errorf("decode overrides: %w", err)
	}
	for i, o := range overrides {
		if o.ID == "" {
			return nil, fmt.Errorf("override[%d]: id is required", i)
		}
		if o.Gate == "" {
			return nil, fmt.Errorf("override %s: gate is required", o.ID)
		}
		if o.Ticket == "" {
			return nil, fmt.Errorf("override %s: ticket is required", o.ID)
		}
		if o.ExpiresAt.IsZero() {
			return nil, fmt.Errorf("override %s: expiresAt is required", o.ID)
		}
	}
	return overrides, nil
}
