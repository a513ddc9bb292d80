package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"hospital-scheduling-server/internal/models"
	"hospital-scheduling-server/internal/scheduling"
)

const (
	mysqlDuplicateEntry   = 1062
	postgresUniqueViolate = "23505"
)

// translateWriteError maps a unique-index violation on the visit slot keys
// to the matching double-booking error. Other errors pass through.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	index, ok := duplicateIndex(err)
	if !ok {
		return err
	}
	switch {
	case strings.Contains(index, models.DoctorSlotIndex):
		return scheduling.ErrDoctorDoubleBooked
	case strings.Contains(index, models.RoomSlotIndex):
		return scheduling.ErrRoomDoubleBooked
	default:
		return fmt.Errorf("%w: %w", scheduling.ErrConflict, err)
	}
}

// duplicateIndex reports whether err is a unique violation and, if so, the
// text naming the violated index.
func duplicateIndex(err error) (string, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return myErr.Message, true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == postgresUniqueViolate {
		return pgErr.ConstraintName, true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return err.Error(), true
	}
	return "", false
}

// IsDuplicate reports whether err is a unique-constraint violation.
func IsDuplicate(err error) bool {
	_, ok := duplicateIndex(err)
	return ok
}
