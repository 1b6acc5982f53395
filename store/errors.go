package store

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mmdatafocus/ledger_backend/utils"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

func translateError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NotFound(what)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.Conflict("duplicate %s", what)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return utils.Conflict("duplicate %s", what)
	}
	// sqlite builds without an error translator
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return utils.Conflict("duplicate %s", what)
	}
	return err
}
