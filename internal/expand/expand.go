// Package expand implements the one-pass variable expansion shared by the
// engine (for unquoted script arguments) and the "cmpenv" built-in (for
// file contents): $NAME, ${NAME}, ${/}, ${:} and the $$ escape.
package expand

import "os"

// Expand substitutes $NAME / ${NAME} references in s against env, plus the
// host path separator (${/}) and path-list separator (${:}), and unescapes
// $$ to a literal $. Expansion is non-recursive: the result of one
// substitution is never rescanned.
func Expand(s string, env map[string]string) string {
	var out []byte
	i, n := 0, len(s)
	for i < n {
		if s[i] != '$' {
			out = append(out, s[i])
			i++
			continue
		}
		if i+1 < n && s[i+1] == '$' {
			out = append(out, '$')
			i += 2
			continue
		}
		if i+1 < n && s[i+1] == '{' {
			end := indexByte(s, '}', i+2)
			if end < 0 {
				out = append(out, s[i])
				i++
				continue
			}
			name := s[i+2 : end]
			out = append(out, []byte(lookup(name, env))...)
			i = end + 1
			continue
		}
		j := i + 1
		for j < n && isIdentByte(s[j]) {
			j++
		}
		if j == i+1 {
			out = append(out, s[i])
			i++
			continue
		}
		out = append(out, []byte(lookup(s[i+1:j], env))...)
		i = j
	}
	return string(out)
}

func lookup(name string, env map[string]string) string {
	switch name {
	case "/":
		return string(os.PathSeparator)
	case ":":
		return string(os.PathListSeparator)
	}
	return env[name]
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func indexByte(s string, c byte, from int) int {
	for i := from; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}
