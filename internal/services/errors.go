package services

import (
	"errors"
	"fmt"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/common"
)

// expected outcomes pass through untouched; anything else is a storage
// failure, fatal for the request but safe for the caller to retry since
// nothing was durably applied.
var expectedErrors = []error{
	common.ErrNotFound,
	common.ErrValidation,
	common.ErrKeyMissing,
	common.ErrInsufficientCredits,
	common.ErrDecryptionFailed,
}

func asStorageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, e := range expectedErrors {
		if errors.Is(err, e) {
			return err
		}
	}
	if errors.Is(err, common.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", common.ErrStorage, op, err)
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, fmt.Sprintf(format, args...))
}
