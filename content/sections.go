package content

import (
	"fmt"
	"regexp"
	"strings"
)

// Section is a node in the hierarchical document tree built from normalized
// prose. Children always have a level strictly greater than their parent and
// appear in document order. The ID is derived from the title and unique
// within a sibling list (colliding sibling titles get a -2, -3 suffix), but
// not across the whole tree.
type Section struct {
	ID         string     `json:"id"`
	Level      int        `json:"level"`
	Title      string     `json:"title"`
	BodyText   string     `json:"body_text"`
	Children   []*Section `json:"children,omitempty"`
	SourceLine int        `json:"source_line"`
}

// Heading depth is capped at 4; deeper markers are body text.
var headingPattern = regexp.MustCompile(`^(#{1,4})\s+(.+?)\s*$`)

// BuildSections parses normalized prose into a section tree and lifts inline
// figure notation out of the text first, so placeholder tokens land in body
// text instead of raw pseudo-JSON. Lines before the first heading are
// front-matter and are dropped. O(n) in input lines, no backtracking.
func BuildSections(text string) ([]*Section, []FigureReference) {
	figures, rewritten := ExtractFigures(text)

	var roots []*Section
	var stack []*Section

	for i, line := range strings.Split(rewritten, "\n") {
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			section := &Section{
				Level:      len(m[1]),
				Title:      m[2],
				SourceLine: i + 1,
			}

			// Pop until the stack top can own the new heading.
			for len(stack) > 0 && stack[len(stack)-1].Level >= section.Level {
				stack = stack[:len(stack)-1]
			}

			if len(stack) == 0 {
				section.ID = uniqueSlug(section.Title, roots)
				roots = append(roots, section)
			} else {
				parent := stack[len(stack)-1]
				section.ID = uniqueSlug(section.Title, parent.Children)
				parent.Children = append(parent.Children, section)
			}
			stack = append(stack, section)
			continue
		}

		if len(stack) == 0 {
			continue // front-matter before the first heading
		}

		current := stack[len(stack)-1]
		if current.BodyText == "" && strings.TrimSpace(line) == "" {
			continue // blank padding between a heading and its body
		}
		current.BodyText += line + "\n"
	}

	return roots, figures
}

// slugify derives a section id from its title: lowercased, with runs of
// non-alphanumeric characters collapsed to single separators.
func slugify(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	slug := b.String()
	if slug == "" {
		slug = "section"
	}
	return slug
}

// uniqueSlug disambiguates colliding sibling ids deterministically
func uniqueSlug(title string, siblings []*Section) string {
	base := slugify(title)
	slug := base
	for n := 2; slugTaken(slug, siblings); n++ {
		slug = fmt.Sprintf("%s-%d", base, n)
	}
	return slug
}

func slugTaken(slug string, siblings []*Section) bool {
	for _, s := range siblings {
		if s.ID == slug {
			return true
		}
	}
	return false
}
