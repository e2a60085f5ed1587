package shell

import "strings"

// JoinCommandLine joins args into a single command line using the quoting
// rules of the Microsoft C runtime:
//
//   - arguments are separated by a space
//   - an argument containing a space or tab, or an empty one, is quoted
//   - a double quote is escaped with a backslash
//   - backslashes are literal unless they precede a double quote, in which
//     case they are doubled
func JoinCommandLine(args []string) string {
	var sb strings.Builder

	for i, arg := range args {
		if i > 0 {
			sb.WriteByte(' ')
		}

		needQuote := arg == "" || strings.ContainsAny(arg, " \t")
		if needQuote {
			sb.WriteByte('"')
		}

		backslashes := 0
		for _, c := range arg {
			switch c {
			case '\\':
				backslashes++
			case '"':
				sb.WriteString(strings.Repeat(`\`, backslashes*2))
				sb.WriteString(`\"`)
				backslashes = 0
			default:
				sb.WriteString(strings.Repeat(`\`, backslashes))
				backslashes = 0
				sb.WriteRune(c)
			}
		}

		sb.WriteString(strings.Repeat(`\`, backslashes))
		if needQuote {
			// trailing backslashes are doubled so the closing quote survives
			sb.WriteString(strings.Repeat(`\`, backslashes))
			sb.WriteByte('"')
		}
	}

	return sb.String()
}
