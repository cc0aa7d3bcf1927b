package models

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Contains turns a search term into a LIKE pattern matching it literally
// anywhere. Use it with "LIKE ? ESCAPE '\'".
func Contains(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
