package secrets

import (
	"fmt"

	"github.com/tidwall/gjson"
)

const hexDigits = "0123456789abcdef"

type member struct {
	key   string
	value gjson.Result
}

// appendCanonical writes v to buf in compact form.
//
// A key that repeats within one object keeps the position of its first
// occurrence and the value of its last, which is what .NET configuration and
// most JSON decoders read. Every dropped occurrence is reported in dups by its
// dotted path. Keys and strings are re-escaped by appendString; numbers and
// literals are copied as written.
func appendCanonical(buf []byte, v gjson.Result, path string, dups *[]string) []byte {
	switch {
	case v.IsObject():
		var members []member
		index := make(map[string]int)
		v.ForEach(func(key, value gjson.Result) bool {
			if i, ok := index[key.Str]; ok {
				members[i].value = value
				*dups = append(*dups, joinPath(path, key.Str))
				return true
			}
			index[key.Str] = len(members)
			members = append(members, member{key: key.Str, value: value})
			return true
		})

		buf = append(buf, '{')
		for i, m := range members {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendString(buf, m.key)
			buf = append(buf, ':')
			buf = appendCanonical(buf, m.value, joinPath(path, m.key), dups)
		}
		return append(buf, '}')

	case v.IsArray():
		buf = append(buf, '[')
		i := 0
		v.ForEach(func(_, value gjson.Result) bool {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendCanonical(buf, value, fmt.Sprintf("%s[%d]", path, i), dups)
			i++
			return true
		})
		return append(buf, ']')

	case v.Type == gjson.String:
		return appendString(buf, v.Str)

	default:
		return append(buf, v.Raw...)
	}
}

// appendString quotes s, escaping only the quote, the backslash and control
// characters. Everything else, including non-ASCII text and '/', is literal.
func appendString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		case '\b':
			buf = append(buf, '\\', 'b')
		case '\f':
			buf = append(buf, '\\', 'f')
		default:
			if c < 0x20 {
				buf = append(buf, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
				continue
			}
			buf = append(buf, c)
		}
	}
	return append(buf, '"')
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
