package models

import "github.com/pkg/errors"

type (
	// ConfirmationKeyRequest asks for the signature of a mobile confirmation.
	// When Time is missing the service uses its own clock.
	ConfirmationKeyRequest struct {
		IdentitySecret string `json:"identitySecret"`
		Time           *int64 `json:"time,omitempty"`
		Tag            string `json:"tag,omitempty"`
	}

	ConfirmationKeyResponse struct {
		Key  string `json:"key"`
		Time int64  `json:"time"`
		Tag  string `json:"tag,omitempty"`
	}
)

func (r *ConfirmationKeyRequest) Validate() error {
	if r.IdentitySecret == "" {
		return errors.New("identitySecret is required")
	}
	if r.Time != nil && *r.Time < 0 {
		return errors.Errorf("time %d is before the epoch", *r.Time)
	}
	return nil
}
