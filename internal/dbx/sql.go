package dbx

import (
	"strconv"
	"strings"
)

// LikeContains builds a substring LIKE pattern from raw user input, escaping
// the wildcard characters so they match literally. Queries using the result
// must carry ESCAPE '\'.
func LikeContains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// Placeholders renders n consecutive Postgres placeholders starting at
// $from, e.g. Placeholders(3, 2) == "$2,$3,$4". Used for IN lists.
func Placeholders(n, from int) string {
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(from + i))
	}
	return b.String()
}
