package notes

import (
	"fmt"
	"sort"
	"strings"

	"example.com/notes-api/internal/stringsx"
)

// Filter narrows a note listing.
//
// BodyText and TitleText are case-insensitive substring matches combined with
// OR: a note passes when it matches either of the supplied ones. Tags matches
// notes carrying at least one of the names. The text and tag predicates, when
// both present, combine with AND. Blank values are treated as absent.
type Filter struct {
	BodyText  string
	TitleText string
	Tags      []string
}

// Normalize trims the text terms and canonicalizes the tag names.
func (f Filter) Normalize() Filter {
	return Filter{
		BodyText:  strings.TrimSpace(f.BodyText),
		TitleText: strings.TrimSpace(f.TitleText),
		Tags:      NormalizeTagNames(f.Tags),
	}
}

func (f Filter) hasText() bool {
	return f.BodyText != "" || f.TitleText != ""
}

// Match reports whether n passes f. f must be normalized.
func (f Filter) Match(n Note) bool {
	if f.hasText() {
		ok := (f.BodyText != "" && stringsx.ContainsFold(n.Content, f.BodyText)) ||
			(f.TitleText != "" && stringsx.ContainsFold(n.Title, f.TitleText))
		if !ok {
			return false
		}
	}
	if len(f.Tags) > 0 && !hasAnyTag(n.Tags, f.Tags) {
		return false
	}
	return true
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// Search applies f to notes and returns the matches in listing order.
// The input slice is not modified.
func Search(notes []Note, f Filter) []Note {
	f = f.Normalize()
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		if f.Match(n) {
			out = append(out, n)
		}
	}
	SortNotes(out)
	return out
}

// SortNotes orders notes most recently updated first, ties broken by
// descending id.
func SortNotes(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID > b.ID
	})
}

// orderBy must stay in step with SortNotes.
const orderBy = "n.updated_at DESC, n.id DESC"

// where renders f as a SQL condition over notes aliased n, appending bind
// values to args. It returns "TRUE" when f imposes nothing.
func (f Filter) where(args *[]any) string {
	bind := func(v any) string {
		*args = append(*args, v)
		return fmt.Sprintf("$%d", len(*args))
	}

	var conds []string

	var text []string
	if f.BodyText != "" {
		text = append(text, fmt.Sprintf(`lower(n.content) LIKE lower(%s) ESCAPE '\'`, bind(likeContains(f.BodyText))))
	}
	if f.TitleText != "" {
		text = append(text, fmt.Sprintf(`lower(n.title) LIKE lower(%s) ESCAPE '\'`, bind(likeContains(f.TitleText))))
	}
	if len(text) > 0 {
		conds = append(conds, "("+strings.Join(text, " OR ")+")")
	}

	if len(f.Tags) > 0 {
		conds = append(conds, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM note_tags nt
			JOIN tags t ON t.id = nt.tag_id
			WHERE nt.note_id = n.id AND t.name = ANY(%s)
		)`, bind(f.Tags)))
	}

	if len(conds) == 0 {
		return "TRUE"
	}
	return strings.Join(conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeContains builds a LIKE pattern matching s literally anywhere. Case is
// folded in SQL so both sides go through the same lower().
func likeContains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
