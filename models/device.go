package models

import (
	"regexp"

	"github.com/pkg/errors"
)

var steamIDPattern = regexp.MustCompile(`^[0-9]+$`)

type (
	DeviceIDRequest struct {
		SteamID string `json:"steamId"`
	}

	DeviceIDResponse struct {
		DeviceID string `json:"deviceId"`
	}
)

func (r *DeviceIDRequest) Validate() error {
	if r.SteamID == "" {
		return errors.New("steamId is required")
	}
	if !steamIDPattern.MatchString(r.SteamID) {
		return errors.Errorf("steamId %q is not a 64-bit SteamID", r.SteamID)
	}
	return nil
}
