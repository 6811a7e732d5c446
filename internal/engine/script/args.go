package script

import "strings"

// SplitArgs breaks a command line into arguments. Spaces inside <tags> or
// inside an argument that opens with a quote do not split, and the
// surrounding quotes are removed
func SplitArgs(line string) []string {
	var res []string
	var sb strings.Builder
	var quote byte
	depth := 0
	started := false

	flush := func() {
		if started {
			res = append(res, sb.String())
		}
		sb.Reset()
		started = false
	}

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case quote != 0:
			if ch == quote && depth == 0 && endsArg(line, i+1) {
				quote = 0
				continue
			}
			trackTag(line, i, &depth)
			sb.WriteByte(ch)
		case depth == 0 && !started && (ch == '"' || ch == '\''):
			quote = ch
			started = true
		case depth == 0 && (ch == ' ' || ch == '\t'):
			flush()
		default:
			trackTag(line, i, &depth)
			sb.WriteByte(ch)
			started = true
		}
	}
	flush()
	return res
}

func endsArg(line string, i int) bool {
	return i >= len(line) || line[i] == ' ' || line[i] == '\t'
}

// trackTag updates tag nesting depth. A < only opens a tag when it is
// followed by something other than whitespace or = and a closing > exists
func trackTag(line string, i int, depth *int) {
	switch line[i] {
	case '<':
		if i+1 >= len(line) {
			return
		}
		next := line[i+1]
		if next == ' ' || next == '\t' || next == '=' {
			return
		}
		if strings.IndexByte(line[i+1:], '>') < 0 {
			return
		}
		*depth++
	case '>':
		if *depth > 0 {
			*depth--
		}
	}
}

// SplitPrefix breaks a prefix:value argument apart. Arguments without a
// prefix, or whose colon sits inside a tag, return an empty prefix
func SplitPrefix(arg string) (string, string) {
	idx := strings.IndexByte(arg, ':')
	if idx <= 0 {
		return "", arg
	}
	prefix := arg[:idx]
	if strings.ContainsAny(prefix, "<[ ") {
		return "", arg
	}
	return strings.ToLower(prefix), arg[idx+1:]
}
