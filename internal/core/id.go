package core

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// tempIDPrefix marks identifiers minted locally for optimistically
// created categories. They are replaced wholesale by server-issued
// IDs on the next authoritative fetch.
const tempIDPrefix = "tmp_"

// NewID returns a new server-grade category identifier.
func NewID() string {
	return ulid.Make().String()
}

// NewTempID returns a placeholder identifier for a category that has
// not been confirmed by the backend yet.
func NewTempID() string {
	return tempIDPrefix + ulid.Make().String()
}

// IsTempID reports whether id was minted by NewTempID.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}
