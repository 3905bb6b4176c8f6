package chat

import (
	"crypto/rand"
	"math/big"
)

// CodeLength is the length of a room code.
const CodeLength = 5

// codeCharset drops 0/O/1/I so codes stay easy to read aloud and retype.
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewCode returns a random uppercase room code. Uniqueness against live
// rooms is the store's job; the generator only supplies candidates.
func NewCode() string {
	result := make([]byte, CodeLength)
	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		result[i] = codeCharset[n.Int64()]
	}
	return string(result)
}
