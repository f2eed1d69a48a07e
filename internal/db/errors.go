package db

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("unique constraint violated")
	ErrForeignKey   = errors.New("foreign key constraint violated")
	ErrInvalidField = errors.New("invalid field")
	ErrCacheMiss    = errors.New("cache miss")
)

// MySQL server error numbers
const (
	erDupEntry         = 1062
	erRowIsReferenced  = 1451
	erNoReferencedRow  = 1452
	erRowIsReferenced2 = 1217
	erNoReferencedRow2 = 1216
)

// translate maps driver and gorm errors onto the package sentinels, keeping the cause in the chain.
func translate(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrForeignKey), errors.Is(err, ErrInvalidField):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w. %w", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w. %w", ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w. %w", ErrForeignKey, err)
	case errors.Is(err, gorm.ErrMissingWhereClause):
		return fmt.Errorf("%w. %w", ErrInvalidField, err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case erDupEntry:
			return fmt.Errorf("%w. %w", ErrDuplicate, err)
		case erRowIsReferenced, erNoReferencedRow, erRowIsReferenced2, erNoReferencedRow2:
			return fmt.Errorf("%w. %w", ErrForeignKey, err)
		}
	}
	return err
}
