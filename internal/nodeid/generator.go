package nodeid

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces task and pipeline identifiers.
type Generator interface {
	// TaskID returns an identifier for a new task. The name may be empty.
	TaskID(name string) string
	// PipelineID returns the next pipeline sequence number, starting at 1.
	PipelineID() uint64
}

// counter is the shared pipeline sequence.
type counter struct {
	next atomic.Uint64
}

func (c *counter) PipelineID() uint64 {
	return c.next.Add(1)
}

// Random generates a UUIDv4 for every task.
type Random struct {
	counter
}

// NewRandom creates a generator that never derives ids from names.
func NewRandom() *Random {
	return &Random{}
}

// TaskID implements Generator.
func (r *Random) TaskID(string) string {
	return uuid.NewString()
}

// Stable derives task ids from task names when one is given.
type Stable struct {
	counter
}

// NewStable creates a generator producing name-derived task ids.
func NewStable() *Stable {
	return &Stable{}
}

// TaskID implements Generator.
func (s *Stable) TaskID(name string) string {
	if name == "" {
		return uuid.NewString()
	}
	return FromName(name)
}

// FromName returns the UUIDv5 of name in the OID namespace.
func FromName(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
