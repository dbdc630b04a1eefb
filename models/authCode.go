package models

import "github.com/pkg/errors"

type (
	// AuthCodeRequest asks for the Steam Guard code of a shared secret.
	// Offset overrides the offset the service keeps when it is set.
	AuthCodeRequest struct {
		Secret string `json:"secret"`
		Offset *int64 `json:"offset,omitempty"`
	}

	AuthCodeResponse struct {
		Code      string `json:"code"`
		Step      uint64 `json:"step"`
		Timestamp int64  `json:"timestamp"`
		ExpiresIn int64  `json:"expiresIn"`
	}
)

func (r *AuthCodeRequest) Validate() error {
	if r.Secret == "" {
		return errors.New("secret is required")
	}
	return nil
}
