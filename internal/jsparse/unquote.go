package jsparse

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

var errBadString = errors.New("invalid string literal")

// unquote returns the cooked value of a single- or double-quoted
// JavaScript string literal.
func unquote(raw string) (string, error) {
	if len(raw) < 2 {
		return "", errBadString
	}
	q := raw[0]
	if (q != '"' && q != '\'') || raw[len(raw)-1] != q {
		return "", errBadString
	}
	body := raw[1 : len(raw)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}

	var b strings.Builder
	b.Grow(len(body))
	var pending rune = -1 // high surrogate awaiting its pair
	flush := func() {
		if pending >= 0 {
			b.WriteRune(utf8.RuneError)
			pending = -1
		}
	}
	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' {
			flush()
			r, size := utf8.DecodeRuneInString(body[i:])
			b.WriteRune(r)
			i += size
			continue
		}
		i++
		if i >= len(body) {
			return "", errBadString
		}
		c = body[i]
		i++
		switch c {
		case 'n':
			flush()
			b.WriteByte('\n')
		case 't':
			flush()
			b.WriteByte('\t')
		case 'r':
			flush()
			b.WriteByte('\r')
		case 'b':
			flush()
			b.WriteByte('\b')
		case 'f':
			flush()
			b.WriteByte('\f')
		case 'v':
			flush()
			b.WriteByte('\v')
		case '0':
			flush()
			b.WriteByte(0)
		case '\r':
			// Line continuation, CRLF or CR.
			if i < len(body) && body[i] == '\n' {
				i++
			}
		case '\n':
		case 'x':
			if i+2 > len(body) {
				return "", errBadString
			}
			v, err := strconv.ParseUint(body[i:i+2], 16, 8)
			if err != nil {
				return "", errBadString
			}
			flush()
			b.WriteRune(rune(v))
			i += 2
		case 'u':
			var hex string
			if i < len(body) && body[i] == '{' {
				end := strings.IndexByte(body[i:], '}')
				if end < 0 {
					return "", errBadString
				}
				hex = body[i+1 : i+end]
				i += end + 1
			} else {
				if i+4 > len(body) {
					return "", errBadString
				}
				hex = body[i : i+4]
				i += 4
			}
			v, err := strconv.ParseUint(hex, 16, 32)
			if err != nil || v > utf8.MaxRune {
				return "", errBadString
			}
			r := rune(v)
			switch {
			case utf16.IsSurrogate(r) && r < 0xdc00:
				flush()
				pending = r
			case utf16.IsSurrogate(r) && pending >= 0:
				b.WriteRune(utf16.DecodeRune(pending, r))
				pending = -1
			default:
				flush()
				b.WriteRune(r)
			}
		default:
			// Identity escape: \" \' \\ and any other character.
			flush()
			r, size := utf8.DecodeRuneInString(body[i-1:])
			b.WriteRune(r)
			i += size - 1
		}
	}
	flush()
	return b.String(), nil
}
