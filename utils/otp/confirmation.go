package otp

import (
	"encoding/base64"
	"encoding/binary"

	"github.com/pkg/errors"
)

// Conventional tags for mobile confirmation requests
const (
	TagConf    = "conf"
	TagDetails = "details"
	TagAllow   = "allow"
	TagCancel  = "cancel"
)

// maxTagLength caps the number of tag bytes that are signed
const maxTagLength = 32

// ConfirmationKey signs a mobile confirmation request with the identity secret.
//
// The signed message is the timestamp as a 64-bit big-endian integer followed
// by at most 32 bytes of tag. An empty tag is the same as no tag.
func ConfirmationKey(identitySecret Secret, timestamp int64, tag string) (string, error) {
	if timestamp < 0 {
		return "", errors.Wrapf(ErrTimeBeforeEpoch, "timestamp %d", timestamp)
	}
	key, err := Normalize(identitySecret)
	if err != nil {
		return "", err
	}

	tagBytes := []byte(tag)
	if len(tagBytes) > maxTagLength {
		tagBytes = tagBytes[:maxTagLength]
	}

	buf := make([]byte, 8+len(tagBytes))
	binary.BigEndian.PutUint64(buf, uint64(timestamp))
	copy(buf[8:], tagBytes)

	return base64.StdEncoding.EncodeToString(HMACSHA1(key, buf)), nil
}
