package jsast

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// DecodeString returns the value of a quoted JavaScript string literal,
// including its surrounding quotes, with escape sequences resolved.
func DecodeString(literal string) (string, error) {
	if len(literal) < 2 {
		return "", fmt.Errorf("string literal %q is too short", literal)
	}
	quote := literal[0]
	if (quote != '"' && quote != '\'') || literal[len(literal)-1] != quote {
		return "", fmt.Errorf("string literal %q is not quoted", literal)
	}

	body := literal[1 : len(literal)-1]
	if !strings.Contains(body, `\`) {
		return body, nil
	}

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("string literal %q ends with a dangling backslash", literal)
		}
		e := body[i]
		i++
		switch e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '\n':
			// line continuation
		case '\r':
			if i < len(body) && body[i] == '\n' {
				i++
			}
		case 'x':
			if i+2 > len(body) {
				return "", fmt.Errorf("string literal %q has a truncated \\x escape", literal)
			}
			v, err := strconv.ParseUint(body[i:i+2], 16, 8)
			if err != nil {
				return "", fmt.Errorf("string literal %q has an invalid \\x escape: %w", literal, err)
			}
			b.WriteRune(rune(v))
			i += 2
		case 'u':
			r, n, err := decodeUnicodeEscape(body[i:])
			if err != nil {
				return "", fmt.Errorf("string literal %q: %w", literal, err)
			}
			i += n
			if utf16.IsSurrogate(r) {
				// surrogate pair spelled as two \u escapes
				if i+1 < len(body) && body[i] == '\\' && body[i+1] == 'u' {
					if low, m, lerr := decodeUnicodeEscape(body[i+2:]); lerr == nil {
						if pair := utf16.DecodeRune(r, low); pair != utf8.RuneError {
							b.WriteRune(pair)
							i += 2 + m
							continue
						}
					}
				}
				r = utf8.RuneError
			}
			b.WriteRune(r)
		case '0', '1', '2', '3', '4', '5', '6', '7':
			// legacy octal escapes, \0 included
			j := i - 1
			end := j + 1
			for end < len(body) && end < j+3 && body[end] >= '0' && body[end] <= '7' {
				end++
			}
			v, _ := strconv.ParseUint(body[j:end], 8, 16)
			if v > 0xFF {
				end--
				v, _ = strconv.ParseUint(body[j:end], 8, 16)
			}
			b.WriteRune(rune(v))
			i = end
		default:
			// identity escape: \" \' \\ and any other character
			b.WriteByte(e)
		}
	}
	return b.String(), nil
}

// decodeUnicodeEscape decodes the part of a \u escape after the "u", either
// four hex digits or a braced code point. It returns the rune and the number
// of bytes consumed.
func decodeUnicodeEscape(s string) (rune, int, error) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 2 {
			return 0, 0, fmt.Errorf("invalid \\u{...} escape")
		}
		v, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil || v > utf8.MaxRune {
			return 0, 0, fmt.Errorf("invalid \\u{%s} escape", s[1:end])
		}
		return rune(v), end + 1, nil
	}
	if len(s) < 4 {
		return 0, 0, fmt.Errorf("truncated \\u escape")
	}
	v, err := strconv.ParseUint(s[:4], 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid \\u%s escape", s[:4])
	}
	return rune(v), 4, nil
}
