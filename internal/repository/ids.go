package repository

import "github.com/google/uuid"

// validID reports whether id can be compared against a UUID column. Postgres rejects
// malformed literals outright, so lookups treat them as absent rows instead.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
