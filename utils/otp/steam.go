package otp

import "github.com/pkg/errors"

// ErrTimeBeforeEpoch is returned for timestamps Steam can't represent
var ErrTimeBeforeEpoch = errors.New("time before the unix epoch")

// steamAlphabet is the set of characters used by Steam Guard codes
const steamAlphabet = "23456789BCDFGHJKMNPQRTVWXY"

// AuthCodeLength is the number of characters in a Steam Guard code
const AuthCodeLength = 5

// AuthCode is a Steam Guard code along with the window that produced it
type AuthCode struct {
	Code      string
	Step      uint64
	Timestamp int64
	ExpiresIn int64 // seconds left in the window
}

// GenerateAuthCode generates the Steam Guard code for the current time,
// shifted by offset seconds.
func GenerateAuthCode(secret Secret, offset int64) (string, error) {
	return AuthCodeAt(secret, Time(offset))
}

// AuthCodeAt generates the Steam Guard code for the window containing timestamp
func AuthCodeAt(secret Secret, timestamp int64) (string, error) {
	code, err := NewAuthCode(secret, timestamp)
	if err != nil {
		return "", err
	}
	return code.Code, nil
}

// NewAuthCode generates the Steam Guard code for timestamp and reports when it expires
func NewAuthCode(secret Secret, timestamp int64) (AuthCode, error) {
	if timestamp < 0 {
		return AuthCode{}, errors.Wrapf(ErrTimeBeforeEpoch, "timestamp %d", timestamp)
	}
	key, err := Normalize(secret)
	if err != nil {
		return AuthCode{}, err
	}

	step := uint64(timestamp / TimeStep)
	fullCode := truncate(HMACSHA1(key, counterToBytes(step)))

	return AuthCode{
		Code:      encodeSteam(fullCode),
		Step:      step,
		Timestamp: timestamp,
		ExpiresIn: TimeStep - timestamp%TimeStep,
	}, nil
}

// encodeSteam writes the least significant digit first. Steam's servers
// expect this order, so it must not be reversed.
func encodeSteam(v uint32) string {
	base := uint32(len(steamAlphabet))
	code := make([]byte, AuthCodeLength)
	for i := range code {
		code[i] = steamAlphabet[v%base]
		v /= base
	}
	return string(code)
}
