package client

import (
	"strings"
	"time"
)

// ClientRecord is the part of a client record the billing engine reads.
// Client records are owned by the CRUD layer; installments only reference
// them by name.
type ClientRecord struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NormalizeName folds a client name into the key used for matching
// installments to client records.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NameSet is the set of existing client names, keyed by NormalizeName
type NameSet map[string]struct{}

// NewNameSet builds the name set of the given records
func NewNameSet(records []*ClientRecord) NameSet {
	set := make(NameSet, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		key := NormalizeName(r.Name)
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}
	return set
}

// Has reports whether a client with the given name exists
func (s NameSet) Has(name string) bool {
	_, ok := s[NormalizeName(name)]
	return ok
}
