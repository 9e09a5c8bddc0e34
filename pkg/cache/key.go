package cache

import (
	"net/url"
	"sort"
	"strings"
)

// FieldKey identifies one display field of one related resource.
type FieldKey struct {
	Locator string
	Field   string
}

// String generates a deterministic redis key.
// Scheme and host are lower-cased, trailing slashes dropped and query
// parameters sorted, so ".../planets/1/" and ".../planets/1" share an entry.
//
// Example:
//
//	swapi:name:https://swapi.dev/api/planets/1
func (k FieldKey) String() string {
	prefix := "swapi:" + k.Field + ":"
	u, err := url.Parse(k.Locator)
	if err != nil {
		return prefix + k.Locator
	}

	var b strings.Builder
	b.WriteString(prefix)
	if u.Scheme != "" {
		b.WriteString(strings.ToLower(u.Scheme))
		b.WriteString("://")
	}
	b.WriteString(strings.ToLower(u.Host))
	b.WriteString(strings.TrimRight(u.Path, "/"))

	query := u.Query()
	if len(query) > 0 {
		keys := make([]string, 0, len(query))
		for key := range query {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for i, key := range keys {
			if i == 0 {
				b.WriteByte('?')
			} else {
				b.WriteByte('&')
			}
			b.WriteString(key)
			b.WriteByte('=')
			b.WriteString(query.Get(key))
		}
	}

	return b.String()
}
