package repository

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"foodshare/pkg/errors"
)

// storeError converts a Firestore failure into the application taxonomy: a missing
// document becomes NotFound(resource), anything else a remote-operation failure.
func storeError(resource, message string, err error) error {
	if status.Code(err) == codes.NotFound {
		return errors.NotFound(resource, err)
	}
	return errors.RemoteFailed(message, err)
}
