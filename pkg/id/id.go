// Package id mints trade identifiers. IDs are ULIDs, so they sort by the
// time they are stamped with; the engine stamps them with the bar time.
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

// Generator mints monotonically increasing ULIDs.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

// NewGenerator seeds entropy from crypto/rand. A seed of 0 falls back to the
// wall clock.
func NewGenerator() *Generator {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)}
}

// At mints an ID stamped with t.
func (g *Generator) At(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t.UTC()), g.entropy)
	if err != nil {
		// Only reachable if entropy fails or the monotonic counter overflows.
		panic(err)
	}
	return id.String()
}

func (g *Generator) New() string { return g.At(time.Now()) }

var std = NewGenerator()

// New mints an ID stamped with the current time.
func New() string { return std.New() }

// Time extracts the timestamp encoded in id.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()).UTC(), nil
}
