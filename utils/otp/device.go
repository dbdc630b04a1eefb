package otp

import (
	"crypto/sha1"

	"github.com/google/uuid"
)

// DeviceID derives the device identifier the Steam mobile app reports for a SteamID.
// It is the first 16 bytes of the SHA-1 of the id laid out like a UUID, no
// version or variant bits are set.
func DeviceID(steamID string) string {
	sum := sha1.Sum([]byte(steamID))
	return "android:" + uuid.Must(uuid.FromBytes(sum[:16])).String()
}
