package store

import (
	"database/sql/driver"

	"golang.org/x/text/cases"
	"modernc.org/sqlite"
)

// SQLite's LOWER only folds ASCII, so search compares text folded by fold
// on both sides.
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("fold", 1, foldValue)
}

func fold(s string) string {
	// Casers carry state and are not safe to share
	return cases.Fold().String(s)
}

func foldValue(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return fold(v), nil
	case []byte:
		return fold(string(v)), nil
	default:
		return v, nil
	}
}
