package types

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex inst_01HZX3K6N6T0Q5E4B7Y8W9V2C1
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_INSTALLMENT = "inst"
	UUID_PREFIX_SIGNAL      = "sig"
	UUID_PREFIX_ALERT       = "alert"
	UUID_PREFIX_CLIENT      = "client"
)
