// Package cos provides low-level identifier generation and validation shared
// across netcore's components (session tokens, forwarder backend-session
// IDs, cluster node IDs).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/teris-io/shortid"
)

// alphabet for generated IDs, same shape as shortid.DEFAULT_ABC but reordered
// so that index 0x3f stays in-bounds for GenTie's bit masking.
const uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

const (
	// LenShortID is the length of IDs generated by the underlying shortid lib.
	LenShortID = 9
	tooLongID  = 32
)

var (
	sid     *shortid.Shortid
	sidOnce sync.Once
	rtie    uint32
)

// InitIDGen seeds the ID generator; call it once at process start. If it is
// never called, the first GenUUID call seeds from the wall clock (lazyInit).
func InitIDGen(seed uint64) {
	sid = shortid.MustNew(4 /*worker*/, uuidABC, seed)
}

// lazyInit seeds the generator from the wall clock if the process never
// called InitIDGen (e.g. a test or library caller minting IDs without a
// process-level main). A real InitIDGen call always wins a race against
// this, since both assign the same package-level sid.
func lazyInit() {
	sidOnce.Do(func() {
		if sid == nil {
			sid = shortid.MustNew(4, uuidABC, uint64(time.Now().UnixNano()))
		}
	})
}

// GenUUID returns a short, URL-safe identifier that starts with a letter and
// never ends in '-' or '_'.
func GenUUID() string {
	lazyInit()
	id := sid.MustGenerate()
	h, t := "", ""
	if !isAlpha(id[0]) {
		tie := atomic.AddUint32(&rtie, 1)
		h = string(rune('A' + tie%26))
	}
	if c := id[len(id)-1]; c == '-' || c == '_' {
		tie := atomic.AddUint32(&rtie, 1)
		t = string(rune('a' + tie%26))
	}
	return h + id + t
}

// GenTie returns a fast 3-character tie-breaker, e.g. to disambiguate two
// forwarder backend sessions established in the same tick.
func GenTie() string {
	tie := atomic.AddUint32(&rtie, 1)
	b0 := uuidABC[tie&0x3f]
	b1 := uuidABC[(^tie)&0x3f]
	b2 := uuidABC[(tie>>2)&0x3f]
	return string([]byte{b0, b1, b2})
}

// seed for the stable (non-keyed) hash used by HashTag.
const hashSeed = 0x9e3779b9

// HashTag returns a short, stable, hashed tag for an arbitrary string (e.g. a
// node's listen address), used where a human never needs to read the ID back.
func HashTag(s string) string {
	h := xxhash.ChecksumString64S(s, hashSeed)
	b := make([]byte, 8)
	for i := range b {
		b[i] = uuidABC[h&0x3f]
		h >>= 6
	}
	return string(b)
}

// IsValidUUID reports whether uuid looks like one of our generated IDs.
func IsValidUUID(uuid string) bool {
	return len(uuid) >= LenShortID && IsAlphaNice(uuid)
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsAlphaNice reports whether s is alphanumeric (plus '-'/'_' in the
// interior, never leading/trailing) and no longer than tooLongID.
func IsAlphaNice(s string) bool {
	l := len(s)
	if l == 0 || l > tooLongID {
		return false
	}
	for i := 0; i < l; i++ {
		c := s[i]
		if isAlpha(c) || (c >= '0' && c <= '9') {
			continue
		}
		if c != '-' && c != '_' {
			return false
		}
		if i == 0 || i == l-1 {
			return false
		}
	}
	return true
}
