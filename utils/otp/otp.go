package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/binary"
	"time"
)

const (
	fourBitMask      = 0xf
	thirtyOneBitMask = 0x7fffffff

	// TimeStep is the width in seconds of one Steam Guard code window
	TimeStep = 30
)

// clock is the local time source for code generation and for measuring the
// offset against Steam
var clock = time.Now

// Now returns the local time
func Now() time.Time {
	return clock()
}

// SetClock replaces the local time source and returns a function restoring
// the previous one. It is not safe to call while codes are being generated.
func SetClock(now func() time.Time) (restore func()) {
	prev := clock
	clock = now
	return func() { clock = prev }
}

// Time returns the current Unix time in seconds shifted by offset.
//
// The offset is usually the one measured against Steam's servers with the
// steamtime client.
func Time(offset int64) int64 {
	return Now().Unix() + offset
}

// HMACSHA1 return the hash of a given message with a given key
func HMACSHA1(key []byte, message []byte) []byte {
	mac := hmac.New(sha1.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}

// counterToBytes writes a step counter the way Steam expects it: four zero
// bytes followed by the step as a 32-bit big-endian integer.
func counterToBytes(step uint64) []byte {
	t := make([]byte, 8)
	binary.BigEndian.PutUint32(t[4:], uint32(step))
	return t
}

// truncate applies RFC4226 dynamic truncation
func truncate(hs []byte) uint32 {
	offset := hs[len(hs)-1] & fourBitMask
	return binary.BigEndian.Uint32(hs[offset:offset+4]) & thirtyOneBitMask
}
