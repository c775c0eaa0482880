package ticket

import (
	"encoding/hex"
	"strconv"

	"golang.org/x/crypto/blake2b"

	"github.com/edumeal/edumeal-api/internal/pkg/clock"
)

// Signer computes the security hash stored with each ticket.
type Signer struct {
	key []byte
}

// NewSigner creates a signer. An empty key yields an unkeyed digest.
func NewSigner(key string) *Signer {
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256([]byte(key))
		return &Signer{key: sum[:]}
	}
	return &Signer{key: []byte(key)}
}

// Sign returns hex(BLAKE2b-256_key(ticketId|studentId|date)).
func (s *Signer) Sign(ticketID string, studentID int, date clock.Date) string {
	h, err := blake2b.New256(s.key)
	if err != nil {
		// Key length is bounded in NewSigner.
		panic(err)
	}
	h.Write([]byte(ticketID))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.Itoa(studentID)))
	h.Write([]byte{'|'})
	h.Write([]byte(date.String()))
	return hex.EncodeToString(h.Sum(nil))
}
