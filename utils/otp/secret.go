package otp

import (
	"encoding/base64"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidSecretFormat is returned when a secret cannot be decoded into key bytes
var ErrInvalidSecretFormat = errors.New("invalid secret format")

var hexSecretPattern = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

type (
	// Secret is a key handed in by a caller in one of the accepted encodings.
	// The set of implementations is closed: HexText, Base64Text and RawBytes.
	Secret interface {
		bytes() ([]byte, error)
	}

	// HexText is a secret written as hexadecimal text
	HexText string

	// Base64Text is a secret written as standard base64 text
	Base64Text string

	// RawBytes is a secret that is already decoded
	RawBytes []byte
)

// ParseSecret picks the encoding of a textual secret.
//
// Exactly 40 hexadecimal characters are read as hex, anything else as base64.
func ParseSecret(s string) Secret {
	if hexSecretPattern.MatchString(s) {
		return HexText(s)
	}
	return Base64Text(s)
}

// Normalize decodes a secret into the bytes used as HMAC key
func Normalize(s Secret) ([]byte, error) {
	if s == nil {
		return nil, errors.Wrap(ErrInvalidSecretFormat, "missing secret")
	}
	return s.bytes()
}

func (h HexText) bytes() ([]byte, error) {
	b, err := hex.DecodeString(string(h))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSecretFormat, "decoding hex: %s", err)
	}
	return b, nil
}

// bytes decodes leniently, like a browser atob: whitespace is dropped and
// the trailing padding is optional.
func (b Base64Text) bytes() ([]byte, error) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\f', '\r':
			return -1
		}
		return r
	}, string(b))
	s = strings.TrimRight(s, "=")
	out, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSecretFormat, "decoding base64: %s", err)
	}
	return out, nil
}

func (r RawBytes) bytes() ([]byte, error) {
	return []byte(r), nil
}
