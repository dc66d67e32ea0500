package resize

import (
	"strconv"
	"strings"

	"github.com/starford/blockpress/internal/block"
)

type declaration struct {
	prop, value string
}

func parseStyle(style string) []declaration {
	var decls []declaration
	for _, part := range strings.Split(style, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		if prop == "" {
			continue
		}
		decls = append(decls, declaration{prop: prop, value: strings.TrimSpace(value)})
	}
	return decls
}

func formatStyle(decls []declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.prop+": "+d.value+";")
	}
	return strings.Join(parts, " ")
}

func pxValue(v string) (float64, bool) {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

// CurrentSize reads the pixel width and height from the node's inline style.
func CurrentSize(n *block.Node) (Size, bool) {
	style, _ := n.Attr("style")
	var s Size
	var okW, okH bool
	for _, d := range parseStyle(style) {
		switch d.prop {
		case "width":
			s.W, okW = pxValue(d.value)
		case "height":
			s.H, okH = pxValue(d.value)
		}
	}
	return s, okW && okH
}

// SetSize writes s into the node's inline style, replacing any width and
// height declarations and keeping the others in place.
func SetSize(n *block.Node, s Size) {
	style, _ := n.Attr("style")
	decls := parseStyle(style)
	var hasW, hasH bool
	for i := range decls {
		switch decls[i].prop {
		case "width":
			decls[i].value, hasW = block.FormatPx(s.W), true
		case "height":
			decls[i].value, hasH = block.FormatPx(s.H), true
		}
	}
	if !hasW {
		decls = append(decls, declaration{prop: "width", value: block.FormatPx(s.W)})
	}
	if !hasH {
		decls = append(decls, declaration{prop: "height", value: block.FormatPx(s.H)})
	}
	n.SetAttr("style", formatStyle(decls))
}
