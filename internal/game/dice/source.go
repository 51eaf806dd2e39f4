package dice

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// cryptoSource draws uniform values from crypto/rand, rejection-sampling to
// avoid modulo bias.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by the operating system's CSPRNG.
//
// Postcondition: Every value returned by Intn is uniformly distributed in
// [0, n).
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Intn returns a uniform random int in [0, n).
//
// Precondition: n > 0; panics otherwise. Panics if the CSPRNG fails, since
// no roll is better than a biased one.
func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("dice: Intn(%d), n must be > 0", n))
	}
	span := uint64(n)
	// Largest multiple of span representable in 64 bits; values at or
	// above it would bias the low residues.
	limit := (^uint64(0) / span) * span
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			panic("dice: reading crypto/rand: " + err.Error())
		}
		v := binary.BigEndian.Uint64(buf[:])
		if v < limit {
			return int(v % span)
		}
	}
}
