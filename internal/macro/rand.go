package macro

import (
	crand "crypto/rand"
	"encoding/binary"
	"sync"
)

// The probability roll uses a xorshift64 generator seeded once per process
// from the OS entropy source. A fixed compile-time seed would make trigger
// probabilities reproducible across every session, which is a defect.

var (
	randMu    sync.Mutex
	randState uint64
)

func seedOnce() {
	if randState != 0 {
		return
	}
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err == nil {
		randState = binary.LittleEndian.Uint64(buf[:])
	}
	if randState == 0 {
		// crypto/rand failed or returned zero; any non-zero constant keeps
		// xorshift running rather than sticking at zero.
		randState = 0x9e3779b97f4a7c15
	}
}

func randUint64() uint64 {
	randMu.Lock()
	defer randMu.Unlock()
	seedOnce()
	x := randState
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	randState = x
	return x
}

// RandInt returns a uniform value in [0, n). n must be positive.
func RandInt(n int) int {
	if n <= 0 {
		return 0
	}
	return int(randUint64() % uint64(n))
}

// roll returns true with probability percent/100.
func roll(percent int) bool {
	if percent >= 100 {
		return true
	}
	if percent <= 0 {
		return false
	}
	return int(randUint64()%100) < percent
}
