package service

import (
	"context"
	"crypto/subtle"

	"github.com/AnTengye/projectbrief/model"
)

// Authorize compares the supplied admin token with the configured secret in
// constant time. An empty secret never authorizes.
func Authorize(supplied, configured string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(configured)) == 1
}

// AdminGate guards the submissions listing behind a shared secret.
type AdminGate struct {
	secret  string
	records RecordStore
}

func NewAdminGate(secret string, records RecordStore) *AdminGate {
	return &AdminGate{secret: secret, records: records}
}

// List returns every row, newest first. ok is false when token is not the
// admin secret, in which case the store is not read.
func (g *AdminGate) List(ctx context.Context, token string) (rows []model.PersistedRow, ok bool, err error) {
	if !Authorize(token, g.secret) {
		return nil, false, nil
	}
	rows, err = g.records.SelectAll(ctx)
	if err != nil {
		return nil, true, err
	}
	SortBySubmissionDate(rows, true)
	return rows, true, nil
}
