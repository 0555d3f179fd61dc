package loader

// StripLenient converts a lenient JSON document into strict JSON: // and
// /* */ comments are removed, single-quoted strings become double-quoted,
// and trailing commas before a closing bracket are dropped. String contents
// are left untouched.
func StripLenient(data []byte) []byte {
	cleaned := make([]byte, 0, len(data))

	const (
		stateCode = iota
		stateDoubleString
		stateSingleString
		stateLineComment
		stateBlockComment
	)

	state := stateCode
	escaped := false

	for i := 0; i < len(data); i++ {
		c := data[i]

		switch state {
		case stateCode:
			switch {
			case c == '"':
				state = stateDoubleString
				cleaned = append(cleaned, c)
			case c == '\'':
				state = stateSingleString
				cleaned = append(cleaned, '"')
			case c == '/' && i+1 < len(data) && data[i+1] == '/':
				state = stateLineComment
				i++
			case c == '/' && i+1 < len(data) && data[i+1] == '*':
				state = stateBlockComment
				i++
			default:
				cleaned = append(cleaned, c)
			}

		case stateDoubleString:
			cleaned = append(cleaned, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				state = stateCode
			}

		case stateSingleString:
			switch {
			case escaped:
				escaped = false
				// \' needs no escape once the string is double-quoted.
				if c != '\'' {
					cleaned = append(cleaned, '\\')
				}
				cleaned = append(cleaned, c)
			case c == '\\':
				escaped = true
			case c == '\'':
				state = stateCode
				cleaned = append(cleaned, '"')
			case c == '"':
				cleaned = append(cleaned, '\\', '"')
			default:
				cleaned = append(cleaned, c)
			}

		case stateLineComment:
			if c == '\n' {
				state = stateCode
				cleaned = append(cleaned, c)
			}

		case stateBlockComment:
			if c == '*' && i+1 < len(data) && data[i+1] == '/' {
				state = stateCode
				i++
			}
		}
	}

	return stripTrailingCommas(cleaned)
}

func stripTrailingCommas(data []byte) []byte {
	out := make([]byte, 0, len(data))

	inString := false
	escaped := false

	for i := 0; i < len(data); i++ {
		c := data[i]

		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}

		if c == ',' {
			j := i + 1
			for j < len(data) && (data[j] == ' ' || data[j] == '\t' || data[j] == '\n' || data[j] == '\r') {
				j++
			}
			if j < len(data) && (data[j] == ']' || data[j] == '}') {
				continue
			}
		}

		out = append(out, c)
	}

	return out
}
