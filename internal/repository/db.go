package repository

import (
	"strings"

	"gorm.io/gorm"
)

// conn returns tx when the caller is inside a transaction, db otherwise.
func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchScope matches term case-insensitively as a substring of any of cols.
// LOWER(...) LIKE keeps the query portable between postgres and sqlite.
func searchScope(term string, cols ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" || len(cols) == 0 {
			return db
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		conds := make([]string, len(cols))
		args := make([]interface{}, len(cols))
		for i, c := range cols {
			conds[i] = "LOWER(" + c + `) LIKE ? ESCAPE '\'`
			args[i] = pattern
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}

// paginate applies LIMIT/OFFSET for 1-based pages.
func paginate(page, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page < 1 {
			page = 1
		}
		if limit <= 0 {
			return db
		}
		return db.Offset((page - 1) * limit).Limit(limit)
	}
}
