package analyzer

import "strings"

// JoinPath concatenates path segments: slashes are collapsed, the result
// starts with "/" and has no trailing "/" unless it is the root
func JoinPath(parts ...string) string {
	var b strings.Builder
	for _, part := range parts {
		for _, segment := range strings.Split(part, "/") {
			if segment = strings.TrimSpace(segment); segment == "" {
				continue
			}
			b.WriteByte('/')
			b.WriteString(segment)
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// PathKeys returns the variables declared by a path pattern in order of
// appearance. Supported forms: {id}, {id:regex}, :id and *name (a bare *
// yields "*").
func PathKeys(pattern string) []string {
	var keys []string
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			depth, end := 1, i+1
			for ; end < len(pattern) && depth > 0; end++ {
				switch pattern[end] {
				case '{':
					depth++
				case '}':
					depth--
				}
			}
			if depth != 0 {
				return keys
			}
			body := pattern[i+1 : end-1]
			if colon := strings.IndexByte(body, ':'); colon >= 0 {
				body = body[:colon]
			}
			if body = strings.TrimSpace(body); body != "" {
				keys = append(keys, body)
			}
			i = end - 1
		case ':', '*':
			if i > 0 && pattern[i-1] != '/' {
				continue
			}
			end := strings.IndexByte(pattern[i:], '/')
			if end < 0 {
				end = len(pattern) - i
			}
			name := pattern[i+1 : i+end]
			switch {
			case name != "":
				keys = append(keys, name)
			case pattern[i] == '*':
				keys = append(keys, "*")
			}
			i += end - 1
		}
	}
	return keys
}
