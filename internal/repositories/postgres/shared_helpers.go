package postgres

import (
	"errors"
	"strings"

	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"gorm.io/gorm"
)

// pickDB returns the transaction DB if provided, otherwise the default DB
func pickDB(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

// likeEscaper escapes LIKE metacharacters so user text matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// lowerContains is a case-insensitive contains condition on column, used with
// containsPattern. ILIKE is avoided so sqlite can run it too.
func lowerContains(column string) string {
	return "LOWER(" + column + `) LIKE ? ESCAPE '\'`
}

// containsPattern builds the escaped LIKE pattern for lowerContains.
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(query))) + "%"
}

// paginate applies limit/offset when set
func paginate(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// translateError maps driver errors onto repository sentinels.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repositories.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repositories.ErrDuplicate
	}
	return err
}

// nonNil keeps JSON arrays from being stored as null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
