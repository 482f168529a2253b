// ABOUTME: Principal identifiers derived from ed25519 public keys
// ABOUTME: Encodes and validates the checksummed, dash-grouped text form

package principal

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

// selfAuthenticating marks principals derived directly from a public key.
const selfAuthenticating = 0x02

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// ErrInvalid is returned when a principal text fails to decode or its checksum does not match.
var ErrInvalid = errors.New("invalid principal")

// FromPublicKey derives the principal text for an ed25519 public key.
func FromPublicKey(pub ed25519.PublicKey) string {
	sum := sha256.Sum224(pub)
	raw := append(sum[:], selfAuthenticating)
	return Encode(raw)
}

// Encode renders raw principal bytes as checksummed, lowercase, dash-grouped base32.
func Encode(raw []byte) string {
	buf := make([]byte, 4+len(raw))
	binary.BigEndian.PutUint32(buf, crc32.ChecksumIEEE(raw))
	copy(buf[4:], raw)

	text := strings.ToLower(encoding.EncodeToString(buf))

	var b strings.Builder
	for i := 0; i < len(text); i += 5 {
		if i > 0 {
			b.WriteByte('-')
		}
		end := min(i+5, len(text))
		b.WriteString(text[i:end])
	}
	return b.String()
}

// Decode parses principal text back to raw bytes, verifying the checksum.
func Decode(text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalid)
	}
	compact := strings.ToUpper(strings.ReplaceAll(text, "-", ""))
	buf, err := encoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(buf) < 5 {
		return nil, fmt.Errorf("%w: too short", ErrInvalid)
	}
	raw := buf[4:]
	if binary.BigEndian.Uint32(buf[:4]) != crc32.ChecksumIEEE(raw) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalid)
	}
	if Encode(raw) != text {
		return nil, fmt.Errorf("%w: non-canonical form", ErrInvalid)
	}
	return raw, nil
}

// Validate reports whether text is a well-formed principal.
func Validate(text string) error {
	_, err := Decode(text)
	return err
}

const challengeDomain = "crocheting-app-login\x00"

// ChallengeMessage is the byte string a client signs to answer a login challenge.
func ChallengeMessage(nonce []byte) []byte {
	msg := make([]byte, 0, len(challengeDomain)+len(nonce))
	msg = append(msg, challengeDomain...)
	return append(msg, nonce...)
}
