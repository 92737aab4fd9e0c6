// Package gameid generates prefixed, time-sortable identifiers for
// tables, hands, and players: a UUIDv7 encoded as 26 characters of
// Crockford base32, with a short type prefix ("tbl_01h455vb4pex5vsknk084sn02q").
package gameid

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// Base32 alphabet used by TypeID (Crockford's base32)
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Entity prefixes.
const (
	PrefixTable  = "tbl"
	PrefixHand   = "hnd"
	PrefixPlayer = "plr"
)

// NewTableID returns a fresh table identifier.
func NewTableID() string { return New(PrefixTable) }

// NewHandID returns a fresh hand identifier.
func NewHandID() string { return New(PrefixHand) }

// NewPlayerID returns a fresh player identifier.
func NewPlayerID() string { return New(PrefixPlayer) }

// New returns a fresh identifier with the given prefix. IDs generated
// later sort lexicographically after earlier ones within a prefix.
func New(prefix string) string {
	uuid := newUUIDv7()
	return prefix + "_" + encodeBase32(uuid)
}

// newUUIDv7 creates a 128-bit UUIDv7: a 48-bit millisecond timestamp
// followed by random bits, with version and variant bits set.
func newUUIDv7() [16]byte {
	var uuid [16]byte

	now := time.Now().UnixMilli()
	uuid[0] = byte(now >> 40)
	uuid[1] = byte(now >> 32)
	uuid[2] = byte(now >> 24)
	uuid[3] = byte(now >> 16)
	uuid[4] = byte(now >> 8)
	uuid[5] = byte(now)

	if _, err := rand.Read(uuid[6:]); err != nil {
		panic("gameid: reading entropy source: " + err.Error())
	}

	// Version 7, variant 10.
	uuid[6] = (uuid[6] & 0x0f) | 0x70
	uuid[8] = (uuid[8] & 0x3f) | 0x80

	return uuid
}

// encodeBase32 encodes a 128-bit UUID as a 26-character base32 string.
func encodeBase32(data [16]byte) string {
	result := make([]byte, 26)

	// Walk the 128 bits five at a time, most significant first.
	for i := 0; i < 26; i++ {
		bitOffset := i * 5
		byteIndex := bitOffset / 8
		bitIndex := bitOffset % 8

		var value uint8
		if byteIndex < 16 {
			if bitIndex <= 3 {
				value = (data[byteIndex] >> (3 - bitIndex)) & 0x1f
			} else {
				value = (data[byteIndex] << (bitIndex - 3)) & 0x1f
				if byteIndex+1 < 16 {
					value |= data[byteIndex+1] >> (11 - bitIndex)
				}
			}
		}

		result[i] = alphabet[value]
	}

	return string(result)
}

// Validate checks that an identifier carries the expected prefix and a
// well-formed base32 body.
func Validate(id, prefix string) error {
	body, ok := strings.CutPrefix(id, prefix+"_")
	if !ok {
		return fmt.Errorf("id %q missing prefix %q", id, prefix)
	}

	if len(body) != 26 {
		return fmt.Errorf("id body must be exactly 26 characters, got %d", len(body))
	}

	// The first character covers the high bits of the 48-bit
	// timestamp and never exceeds '7' for a well-formed id.
	if body[0] > '7' {
		return fmt.Errorf("id first character must be 0-7, got %c", body[0])
	}

	for i := 0; i < len(body); i++ {
		if !strings.ContainsRune(alphabet, rune(body[i])) {
			return fmt.Errorf("invalid character %c at position %d", body[i], i)
		}
	}

	return nil
}
