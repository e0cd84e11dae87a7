package twitchirc

import (
	"strings"
)

var tagDecodeSlashMap = map[rune]rune{
	':':  ';',
	's':  ' ',
	'\\': '\\',
	'r':  '\r',
	'n':  '\n',
}

var tagEncodeReplacer = func() *strings.Replacer {
	pairs := make([]string, 0, len(tagDecodeSlashMap)*2)
	for escaped, raw := range tagDecodeSlashMap {
		pairs = append(pairs, string(raw), "\\"+string(escaped))
	}
	return strings.NewReplacer(pairs...)
}()

// Tags are the IRCv3 tags of a line. A missing key means the feature is absent.
type Tags map[string]string

// Has reports whether key was sent, even with an empty value.
func (t Tags) Has(key string) bool {
	_, ok := t[key]
	return ok
}

// ParseTags parses "@k=v;k2=v2", the leading @ is optional.
// A tag without = maps to the empty string. Later duplicates win.
func ParseTags(line string) Tags {
	ret := Tags{}

	line = strings.TrimPrefix(line, "@")
	if line == "" {
		return ret
	}

	for tag := range strings.SplitSeq(line, ";") {
		if tag == "" {
			continue
		}

		key, value, found := strings.Cut(tag, "=")
		if !found {
			ret[key] = ""
			continue
		}

		ret[key] = unescapeTagValue(value)
	}

	return ret
}

func unescapeTagValue(v string) string {
	if !strings.ContainsRune(v, '\\') {
		return v
	}

	var b strings.Builder
	b.Grow(len(v))

	escaped := false
	for _, c := range v {
		if !escaped {
			if c == '\\' {
				escaped = true
				continue
			}
			b.WriteRune(c)
			continue
		}

		escaped = false
		if replacement, ok := tagDecodeSlashMap[c]; ok {
			b.WriteRune(replacement)
		} else {
			b.WriteRune(c)
		}
	}

	// a trailing lone backslash is dropped

	return b.String()
}

// escapeTagValue is the inverse of unescapeTagValue.
func escapeTagValue(v string) string {
	return tagEncodeReplacer.Replace(v)
}
