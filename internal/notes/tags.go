package notes

import "example.com/notes-api/internal/stringsx"

// MaxTagNameLen is the storage limit for a normalized tag name.
const MaxTagNameLen = 100

// NormalizeTagName trims surrounding whitespace and lowercases raw.
// An empty result means "no tag" and must never be stored.
func NormalizeTagName(raw string) string {
	return stringsx.Normalize(raw)
}

// NormalizeTagNames normalizes every entry, drops empties and duplicates, and
// keeps the first-seen order of what remains.
func NormalizeTagNames(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		if stringsx.IsEmpty(r) {
			continue
		}
		name := NormalizeTagName(r)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// TagName normalizes raw and rejects names that cannot be stored.
// Every write path goes through it before a Tag is created.
func TagName(raw string) (string, error) {
	if stringsx.IsEmpty(raw) {
		return "", invalid("name", "tag name cannot be empty or whitespace-only")
	}
	name := NormalizeTagName(raw)
	if stringsx.Len(name) > MaxTagNameLen {
		return "", invalid("name", "tag name cannot exceed %d characters", MaxTagNameLen)
	}
	return name, nil
}
