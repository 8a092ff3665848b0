package storage

import (
	"errors"
	"fmt"

	"github.com/mcoot/triviastake/internal/model"
)

// Sentinel errors a backend may return as part of normal operation
var domainErrors = []error{
	model.ErrIdentityNotFound,
	model.ErrOAuthStateInvalid,
	model.ErrSessionNotFound,
	model.ErrSessionEnded,
	model.ErrAlreadyJoined,
	model.ErrCapacityExceeded,
	model.ErrAlreadySubmitted,
	model.ErrRewardAlreadyClaimed,
	model.ErrRewardClaimNotFound,
	model.ErrStorageFailure,
}

// WrapError tags backend failures with model.ErrStorageFailure and passes
// domain sentinels through unchanged
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", model.ErrStorageFailure, err)
}
