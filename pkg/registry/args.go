package registry

// Args holds parsed command arguments keyed by destination name. Unset
// options without a default are absent.
type Args map[string]any

// StringOK returns the string stored under key and whether it was set.
func (a Args) StringOK(key string) (string, bool) {
	s, ok := a[key].(string)
	return s, ok
}

// String returns the string stored under key, or "".
func (a Args) String(key string) string {
	s, _ := a.StringOK(key)
	return s
}

// Bool returns the bool stored under key, or false.
func (a Args) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// Strings returns the values of an append argument (or a single string as a
// one element slice).
func (a Args) Strings(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case string:
		return []string{v}
	default:
		return nil
	}
}

// Without returns a copy of a without the given keys.
func (a Args) Without(keys ...string) Args {
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}

	for _, k := range keys {
		delete(out, k)
	}

	return out
}
