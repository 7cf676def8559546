package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// upsertSuffix overwrites every column except the conflict key with the
// incoming row.
func upsertSuffix(conflict string, cols []string) string {
	sets := make([]string, 0, len(cols))
	for _, col := range cols {
		if col == conflict {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	return fmt.Sprintf("ON CONFLICT (%s)\nDO UPDATE SET\n    %s", conflict, strings.Join(sets, ",\n    "))
}
