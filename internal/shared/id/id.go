// Package id provides centralized ID generation for the backend.
//
// Two families of identifiers live here:
//   - ULIDs with a type prefix (req_*, pty_*) for values minted by the
//     server at runtime. They are k-sortable and readable in logs.
//   - UUIDv4 strings for workspace entities (projects, features). The
//     persisted workspace document has always used UUIDs and the UI keys
//     on them, so they stay that way.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// RequestID identifies an API request
type RequestID string

// PtyID identifies a live pseudo-terminal session
type PtyID string

// ProjectID identifies a workspace project
type ProjectID string

// FeatureID identifies a feature within a project
type FeatureID string

const (
	RequestPrefix = "req"
	PtyPrefix     = "pty"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewPtyID generates an ID for a PTY session when the caller did not pick one
func NewPtyID() PtyID {
	return PtyID(Default().GenerateWithPrefix(PtyPrefix))
}

// NewProjectID generates a new project ID
func NewProjectID() ProjectID {
	return ProjectID(uuid.NewString())
}

// NewFeatureID generates a new feature ID
func NewFeatureID() FeatureID {
	return FeatureID(uuid.NewString())
}

func (id RequestID) String() string { return string(id) }
func (id PtyID) String() string     { return string(id) }
func (id ProjectID) String() string { return string(id) }
func (id FeatureID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// IsUUID checks if an ID string is a valid UUID
func IsUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
