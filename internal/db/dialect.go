package db

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Dialect identifiers supported by the database layer.
const (
	// DialectPostgres is the PostgreSQL dialect name.
	DialectPostgres = "postgres"
	// DialectSQLite is the SQLite dialect name.
	DialectSQLite = "sqlite"
)

// DialectName returns the active database dialect name.
func DialectName(conn *gorm.DB) string {
	if conn == nil || conn.Dialector == nil {
		return ""
	}
	return conn.Dialector.Name()
}

// IsSQLite reports whether the connection uses SQLite.
func IsSQLite(conn *gorm.DB) bool {
	return DialectName(conn) == DialectSQLite
}

// CaseInsensitiveLikeExpr returns a SQL expression for case-insensitive LIKE.
func CaseInsensitiveLikeExpr(conn *gorm.DB, column string) string {
	if IsSQLite(conn) {
		return fmt.Sprintf("LOWER(%s) LIKE ?", column)
	}
	return fmt.Sprintf("%s ILIKE ?", column)
}

// NormalizeLikePattern normalizes a LIKE pattern for the current dialect.
func NormalizeLikePattern(conn *gorm.DB, pattern string) string {
	if IsSQLite(conn) {
		return strings.ToLower(pattern)
	}
	return pattern
}

// MembershipContainsExpr returns a SQL expression that tests whether the
// membership JSON array in column holds an entry for a group id.
func MembershipContainsExpr(conn *gorm.DB, column string) string {
	if IsSQLite(conn) {
		return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE json_extract(value, '$.groupId') = ?)", column)
	}
	return fmt.Sprintf("%s @> ?", column)
}

// MembershipContainsValue returns the bind value for MembershipContainsExpr.
func MembershipContainsValue(conn *gorm.DB, groupID string) any {
	if IsSQLite(conn) {
		return groupID
	}
	probe, _ := json.Marshal([]map[string]string{{"groupId": groupID}})
	return datatypes.JSON(probe)
}

// MembershipAppendExpr returns a gorm expression that appends one entry to
// the membership JSON array in column.
func MembershipAppendExpr(conn *gorm.DB, column string, entry []byte) any {
	if IsSQLite(conn) {
		return gorm.Expr(fmt.Sprintf("json_insert(%s, '$[#]', json(?))", column), string(entry))
	}
	return gorm.Expr(fmt.Sprintf("%s || ?::jsonb", column), datatypes.JSON(entry))
}
