package bot

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned for senders outside the allow-list.
var ErrUnauthorized = errors.New("unauthorized sender")

// Authorizer gates every update at the transport boundary. Nothing behind it
// checks identity again.
type Authorizer struct {
	owners map[int64]struct{}
}

// NewAuthorizer allows exactly ids. An empty list denies everyone.
func NewAuthorizer(ids []int64) *Authorizer {
	a := &Authorizer{owners: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		a.owners[id] = struct{}{}
	}
	return a
}

func (a *Authorizer) Check(senderID int64) error {
	if _, ok := a.owners[senderID]; ok {
		return nil
	}
	return fmt.Errorf("%w: %d", ErrUnauthorized, senderID)
}
