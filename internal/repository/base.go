// Package repository implements the data access layer for the forum.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolation = "23505"

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key")
}

// idPair is one row of a relation table projected as owner -> item.
type idPair struct {
	Owner uint
	Item  uint
}

// groupIDs loads (ownerCol, itemCol) pairs from table for the given owners and
// groups them by owner. Every owner gets a non-nil slice.
func groupIDs(ctx context.Context, db *gorm.DB, table, ownerCol, itemCol string, owners []uint) (map[uint][]uint, error) {
	out := make(map[uint][]uint, len(owners))
	for _, id := range owners {
		out[id] = []uint{}
	}
	if len(owners) == 0 {
		return out, nil
	}

	var rows []idPair
	err := db.WithContext(ctx).
		Table(table).
		Select(fmt.Sprintf("%s AS owner, %s AS item", ownerCol, itemCol)).
		Where(fmt.Sprintf("%s IN ?", ownerCol), owners).
		Order(itemCol).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.Owner] = append(out[row.Owner], row.Item)
	}
	return out, nil
}

// toggleRow deletes row if present, otherwise inserts it. It reports whether
// this call inserted the row; losing an insert race to a concurrent toggle
// reports false so only one caller acts on the new row.
func toggleRow(ctx context.Context, db *gorm.DB, row any, query string, args ...any) (bool, error) {
	added := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where(query, args...).Delete(row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
		if res.Error != nil {
			return res.Error
		}
		added = res.RowsAffected == 1
		return nil
	})
	return added, err
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
