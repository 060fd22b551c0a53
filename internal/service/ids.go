package service

import (
	"github.com/google/uuid"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
)

// canonicalID parses raw as a UUID and returns its lower-case hyphenated
// form. Every id is canonicalised before it is compared or reaches SQL, so
// two spellings of one UUID never address different rows.
func canonicalID(raw, what string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperr.InvalidArgument("invalid " + what + " id")
	}
	return id.String(), nil
}
