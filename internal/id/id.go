package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// Monotonic keeps ids minted within the same millisecond strictly increasing.
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a trade record id: the UTC date of t followed by a ULID carrying
// t's millisecond instant, e.g. "2024-01-15-01HMA3...".
// Ids sort lexicographically by creation time.
func New(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	t = t.UTC()
	u, err := ulid.New(ulid.Timestamp(t), mono)
	if err != nil {
		// Only possible if entropy fails or the clock goes backwards past the monotonic window.
		panic(err)
	}
	return t.Format("2006-01-02") + "-" + u.String()
}

// Time extracts the creation instant from an id produced by New.
func Time(s string) (time.Time, bool) {
	if len(s) != len("2006-01-02-")+ulid.EncodedSize {
		return time.Time{}, false
	}
	u, err := ulid.ParseStrict(s[len("2006-01-02-"):])
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(u.Time()).UTC(), true
}
