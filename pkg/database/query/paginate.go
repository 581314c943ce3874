package query

import (
	"strconv"
	"strings"
)

// PaginateQuery appends id based cursor, ordering and limit clauses to a
// query whose WHERE condition is wrapped in brackets:
//
//	SELECT ... WHERE (vault_type = $1)
//
// becomes
//
//	SELECT ... WHERE (vault_type = $1) AND id > $2 ORDER BY id ASC LIMIT $3
func PaginateQuery(query string, args []interface{}, cursor Cursor, limit uint64, direction Ordering) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(query)

	if len(cursor) > 0 {
		args = append(args, cursor.ToUint64())
		if direction == Descending {
			sb.WriteString(" AND id < $")
		} else {
			sb.WriteString(" AND id > $")
		}
		sb.WriteString(strconv.Itoa(len(args)))
	}

	sb.WriteString(" ORDER BY id ")
	sb.WriteString(strings.ToUpper(direction.String()))

	if limit > 0 {
		args = append(args, limit)
		sb.WriteString(" LIMIT $")
		sb.WriteString(strconv.Itoa(len(args)))
	}

	return sb.String(), args
}
