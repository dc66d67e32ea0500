package markdown

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatter holds the YAML header fields the importer understands.
type frontmatter struct {
	Title string `yaml:"title"`
}

// splitFrontmatter separates a leading YAML block delimited by --- lines
// from the Markdown body. Without a closing delimiter, or when the YAML is
// invalid, the whole input is body.
func splitFrontmatter(data []byte) (frontmatter, []byte) {
	const delim = "---"
	var fm frontmatter

	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, data
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return fm, data
	}

	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return frontmatter{}, data
	}

	body := rest[idx+1+len(delim):]
	return fm, bytes.TrimLeft(body, "\n\r")
}

// hasHeading1 reports whether body contains an ATX level one heading.
func hasHeading1(body []byte) bool {
	for _, line := range strings.Split(string(body), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "# ") {
			return true
		}
	}
	return false
}

// withTitle strips front matter and, when it names a title the body lacks,
// prepends that title as a level one heading.
func withTitle(src []byte) []byte {
	fm, body := splitFrontmatter(src)
	title := strings.TrimSpace(fm.Title)
	if title == "" || hasHeading1(body) {
		return body
	}
	out := make([]byte, 0, len(body)+len(title)+4)
	out = append(out, "# "...)
	out = append(out, title...)
	out = append(out, "\n\n"...)
	return append(out, body...)
}
