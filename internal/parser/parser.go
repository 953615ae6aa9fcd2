// Package parser extracts frontmatter, wikilinks, tags, title and dates from
// Markdown content.
package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/sowilo/internal/models"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[([^\[\]]*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#(\p{L}[\p{L}\p{N}_/-]*)`)
	fenceRe    = regexp.MustCompile("^\\s*(```|~~~)")
)

// Accepted layouts for frontmatter dates given as strings.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Frontmatter keys mapped onto typed fields; everything else goes to Extra.
var knownKeys = map[string]struct{}{
	"title": {}, "tags": {}, "tag": {}, "aliases": {}, "alias": {},
	"created": {}, "date": {}, "updated": {}, "modified": {},
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter *models.Frontmatter // nil when the file has no metadata block
	Body        string
	Links       []string
	Tags        []string
	Title       string
}

// Parse extracts frontmatter, body, wikilinks and tags from raw Markdown bytes.
// A metadata block that is not valid YAML is an error.
func Parse(data []byte) (*Result, error) {
	raw, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	var fm *models.Frontmatter
	if raw != nil {
		fm = decodeFrontmatter(raw)
	}

	prose := stripCodeFences(body)

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Links:       extractLinks(body),
		Tags:        extractTags(prose, fm),
		Title:       deriveTitle(fm, prose),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- lines)
// from the Markdown body. If no closed block is found the entire content is
// body. The returned map is non-nil whenever a block was present.
func splitFrontmatter(data []byte) (map[string]any, string, error) {
	text := strings.TrimLeft(string(data), "\n\r")
	first, rest, ok := strings.Cut(text, "\n")
	if !ok || strings.TrimRight(first, " \t\r") != "---" {
		return nil, string(data), nil
	}

	var block []string
	lines := strings.SplitAfter(rest, "\n")
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t\r\n")
		if trimmed == "---" || trimmed == "..." {
			body := strings.TrimLeft(strings.Join(lines[i+1:], ""), "\n\r")
			fm := make(map[string]any)
			if err := yaml.Unmarshal([]byte(strings.Join(block, "")), &fm); err != nil {
				return nil, "", fmt.Errorf("frontmatter: %w", err)
			}
			if fm == nil {
				fm = make(map[string]any)
			}
			return fm, body, nil
		}
		block = append(block, line)
	}

	// No closing delimiter: treat everything as body.
	return nil, string(data), nil
}

func decodeFrontmatter(raw map[string]any) *models.Frontmatter {
	fm := &models.Frontmatter{Raw: raw}
	if s, ok := raw["title"].(string); ok {
		fm.Title = strings.TrimSpace(s)
	}
	fm.Tags = append(stringList(raw["tags"]), stringList(raw["tag"])...)
	fm.Aliases = append(stringList(raw["aliases"]), stringList(raw["alias"])...)
	fm.Created = firstDate(raw, "created", "date")
	fm.Updated = firstDate(raw, "updated", "modified")

	for k, v := range raw {
		if _, known := knownKeys[k]; known {
			continue
		}
		if fm.Extra == nil {
			fm.Extra = make(map[string]any)
		}
		fm.Extra[k] = v
	}
	return fm
}

// stringList normalises a scalar or a sequence into a list of strings. A
// single string is split on commas and whitespace.
func stringList(v any) []string {
	var out []string
	add := func(s string) {
		s = strings.TrimPrefix(strings.TrimSpace(s), "#")
		if s != "" {
			out = append(out, s)
		}
	}
	switch x := v.(type) {
	case nil:
	case string:
		for _, f := range strings.FieldsFunc(x, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		}) {
			add(f)
		}
	case []any:
		for _, item := range x {
			switch s := item.(type) {
			case string:
				add(s)
			case nil:
			default:
				add(fmt.Sprint(s))
			}
		}
	default:
		add(fmt.Sprint(x))
	}
	return out
}

func firstDate(raw map[string]any, keys ...string) *time.Time {
	for _, k := range keys {
		if t, ok := parseDate(raw[k]); ok {
			return &t
		}
	}
	return nil
}

func parseDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// stripCodeFences blanks out fenced code blocks so that '#' inside code is
// not read as a tag or heading. Line count is preserved.
func stripCodeFences(body string) string {
	if !strings.Contains(body, "```") && !strings.Contains(body, "~~~") {
		return body
	}
	lines := strings.Split(body, "\n")
	inFence := false
	for i, line := range lines {
		if fenceRe.MatchString(line) {
			inFence = !inFence
			lines[i] = ""
			continue
		}
		if inFence {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

// extractLinks returns deduplicated wikilink targets, normalising aliases.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		// [[Target|Alias]] → Target.
		target, _, _ := strings.Cut(m[1], "|")
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// extractTags collects frontmatter tags followed by inline #tags, dropping
// case-only duplicates. The first spelling seen wins.
func extractTags(body string, fm *models.Frontmatter) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}

	if fm != nil {
		for _, t := range fm.Tags {
			add(t)
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle returns the frontmatter title if present, otherwise the first
// H1 heading, otherwise models.UntitledNote.
func deriveTitle(fm *models.Frontmatter, body string) string {
	if fm != nil && fm.Title != "" {
		return fm.Title
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			if title := strings.TrimSpace(trimmed[2:]); title != "" {
				return title
			}
		}
	}
	return models.UntitledNote
}
