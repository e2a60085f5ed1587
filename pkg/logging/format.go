package logging

import (
	"fmt"
	"strings"
)

// Format replaces {name} placeholders in format with the matching values from
// params. Unknown placeholders are kept as written; {{ and }} produce literal
// braces.
func Format(format string, params map[string]any) string {
	var sb strings.Builder

	for i := 0; i < len(format); i++ {
		c := format[i]

		switch {
		case c == '{' && i+1 < len(format) && format[i+1] == '{':
			sb.WriteByte('{')
			i++
		case c == '}' && i+1 < len(format) && format[i+1] == '}':
			sb.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(format[i:], '}')
			if end == -1 {
				sb.WriteString(format[i:])
				return sb.String()
			}

			name := format[i+1 : i+end]
			if v, ok := params[name]; ok {
				fmt.Fprint(&sb, v)
			} else {
				sb.WriteString(format[i : i+end+1])
			}

			i += end
		default:
			sb.WriteByte(c)
		}
	}

	return sb.String()
}
