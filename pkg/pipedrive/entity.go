package pipedrive

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// irregularEntityNames overrides plurals that do not match the API paths.
var irregularEntityNames = map[string]string{
	"people":   "persons",
	"calllogs": "call_logs",
}

// EntityName maps a type name such as "person", "CallLog" or "call_log" to
// its REST collection name ("persons", "call_logs").
func EntityName(typeName string) string {
	plural := inflection.Plural(snakeCase(typeName))
	if name, ok := irregularEntityNames[plural]; ok {
		return name
	}
	return plural
}

func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(strings.TrimSpace(s))
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && runes[i-1] != '_' && !unicode.IsUpper(runes[i-1]) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
