package repositories

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique key.
	ErrDuplicate = errors.New("duplicate record")
)

const mysqlDuplicateEntry = 1062

// isDuplicateKey recognises unique violations across the supported engines.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
