package random

import (
	"math/rand"
	"time"

	"github.com/nspcc-dev/dot-go/pkg/util"
)

// String returns a random string with the n as its length.
func String(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(Int('a', 'z'))
	}

	return string(b)
}

// Bytes returns a random byte slice of the specified length.
func Bytes(n int) []byte {
	b := make([]byte, n)
	Fill(b)
	return b
}

// Fill fills buffer with random bytes.
func Fill(buf []byte) {
	// stdlib rand reads are always successful
	_, _ = rand.Read(buf)
}

// Int returns a random integer in [minI,maxI).
func Int(minI, maxI int) int {
	return minI + rand.Intn(maxI-minI)
}

// Uint256 returns a random Uint256.
func Uint256() util.Uint256 {
	var u util.Uint256
	Fill(u[:])
	return u
}

func init() {
	rand.Seed(time.Now().UTC().UnixNano())
}
