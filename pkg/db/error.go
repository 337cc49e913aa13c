package db

import (
	"errors"

	"gorm.io/gorm"
)

// IsNotFoundErr reports whether err is gorm's record-not-found.
func IsNotFoundErr(err error) bool {
	return err != nil && errors.Is(err, gorm.ErrRecordNotFound)
}
