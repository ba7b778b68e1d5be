package kernel

import (
	"fmt"

	"freightdispatch/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrUUIDIsNotConstructed = errs.NewValueIsRequiredError("UUID")

// UUID identifies chains, orders, organizations and route profiles. The nil
// UUID is never a valid identifier: constructors that take external input
// reject it, and Validate reports it.
type UUID struct {
	id uuid.UUID
}

// NewUUID returns a random version 4 identifier.
func NewUUID() UUID {
	return UUID{id: uuid.New()}
}

// NameBasedUUID returns the version 5 identifier of name within namespace.
// The same pair always yields the same value.
func NameBasedUUID(namespace UUID, name string) UUID {
	return UUID{id: uuid.NewSHA1(namespace.id, []byte(name))}
}

// UUIDFromString accepts every textual form google/uuid parses. A nil UUID
// parses but does not Validate; callers that need a real identifier check.
func UUIDFromString(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, errs.NewValueIsInvalidErrorWithCause("UUID", err)
	}
	return UUID{id: id}, nil
}

// MustUUIDFromString is UUIDFromString for package-level constants. It
// panics on malformed input.
func MustUUIDFromString(s string) UUID {
	u, err := UUIDFromString(s)
	if err != nil {
		panic(err)
	}
	return u
}

// UUIDFromBytes decodes the 16-byte column form used by the postgres
// adapters.
func UUIDFromBytes(b []byte) (UUID, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return UUID{}, errs.NewValueIsInvalidErrorWithCause("UUID", err)
	}
	return fromGoogle(id)
}

func fromGoogle(id uuid.UUID) (UUID, error) {
	u := UUID{id: id}
	if err := u.Validate(); err != nil {
		return UUID{}, err
	}
	return u, nil
}

func (u UUID) String() string {
	return u.id.String()
}

// Bytes exposes the google/uuid value for DTO mapping.
func (u UUID) Bytes() uuid.UUID {
	return u.id
}

func (u UUID) IsEqual(other UUID) bool {
	return u.id == other.id
}

func (u UUID) IsZero() bool {
	return u.id == uuid.Nil
}

func (u UUID) Validate() error {
	if u.IsZero() {
		return fmt.Errorf("%w: nil identifier", ErrUUIDIsNotConstructed)
	}
	return nil
}
