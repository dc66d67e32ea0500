package block

import (
	"fmt"
	"strconv"
	"strings"
)

// Options parameterize a template build. Zero values select the defaults.
type Options struct {
	Source string
	Text   string
	Rows   int
	Cols   int
}

// Option configures a single Create call.
type Option func(*Options)

// WithSource overrides the URL used by media and embed templates.
func WithSource(src string) Option {
	return func(o *Options) { o.Source = src }
}

// WithText overrides the placeholder text of text-bearing templates.
func WithText(text string) Option {
	return func(o *Options) { o.Text = text }
}

// WithTableSize makes the table template rows×cols of blank cells.
func WithTableSize(rows, cols int) Option {
	return func(o *Options) {
		o.Rows = rows
		o.Cols = cols
	}
}

// BuildFunc constructs the unmarked template node for a block type.
type BuildFunc func(o Options) *Node

// Spec is one catalog entry: the tag, its display name, its category and
// the template it builds.
type Spec struct {
	Type     Type      `json:"type"`
	Name     string    `json:"name"`
	Category Category  `json:"category"`
	Build    BuildFunc `json:"-"`
}

// Group is a catalog category with its entries in catalog order.
type Group struct {
	Category Category `json:"category"`
	Blocks   []Spec   `json:"blocks"`
}

// Registry maps block types to their catalog entries.
type Registry struct {
	order []Type
	specs map[Type]Spec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[Type]Spec)}
}

// Register adds or replaces a catalog entry. Adding a block type is one
// Register call.
func (r *Registry) Register(s Spec) {
	if _, ok := r.specs[s.Type]; !ok {
		r.order = append(r.order, s.Type)
	}
	r.specs[s.Type] = s
}

// Lookup returns the entry for t.
func (r *Registry) Lookup(t Type) (Spec, bool) {
	s, ok := r.specs[t]
	return s, ok
}

// Catalog returns every entry in registration order.
func (r *Registry) Catalog() []Spec {
	out := make([]Spec, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.specs[t])
	}
	return out
}

// Groups returns the catalog grouped by category. Empty categories are
// omitted.
func (r *Registry) Groups() []Group {
	var out []Group
	for _, c := range Categories {
		g := Group{Category: c}
		for _, t := range r.order {
			if s := r.specs[t]; s.Category == c {
				g.Blocks = append(g.Blocks, s)
			}
		}
		if len(g.Blocks) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// TypeForElement maps a bare element name to the block type whose template
// produces that element directly, e.g. "h2" → h2. It is used to classify
// imported markup that carries no data-block-type attribute.
func (r *Registry) TypeForElement(tag string) (Type, bool) {
	switch tag {
	case "p", "h1", "h2", "h3", "ul", "ol", "blockquote", "pre", "table", "hr":
		t := Type(tag)
		_, ok := r.specs[t]
		return t, ok
	case "img":
		_, ok := r.specs[TypeImage]
		return TypeImage, ok
	}
	return "", false
}

// DefaultRegistry returns the built-in catalog.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, s := range builtins() {
		r.Register(s)
	}
	return r
}

const (
	placeholderImage    = "https://via.placeholder.com/150"
	placeholderFeatured = "https://via.placeholder.com/600x200"
	sampleAudio         = "https://www.w3schools.com/html/horse.mp3"
	sampleVideo         = "https://www.w3schools.com/html/mov_bbb.mp4"
	defaultYouTubeID    = "dQw4w9WgXcQ"
	youTubeEmbedBase    = "https://www.youtube.com/embed/"
	defaultVimeo        = "https://player.vimeo.com/video/76979871"
	defaultMaps         = "https://www.google.com/maps/embed?pb=!1m18!1m12!1m3"
	defaultGist         = "https://gist.github.com/username/gistid.js"
)

func builtins() []Spec {
	return []Spec{
		textSpec(TypeParagraph, "Paragraph", CategoryContent, "p", ""),
		textSpec(TypeHeading1, "Heading (H1)", CategoryContent, "h1", ""),
		textSpec(TypeHeading2, "Heading (H2)", CategoryContent, "h2", ""),
		textSpec(TypeHeading3, "Heading (H3)", CategoryContent, "h3", ""),
		{Type: TypeList, Name: "Unordered list", Category: CategoryContent, Build: listTemplate("ul")},
		{Type: TypeOrdered, Name: "Ordered list", Category: CategoryContent, Build: listTemplate("ol")},
		textSpec(TypeQuote, "Quote", CategoryContent, "blockquote", "Sample quote"),
		textSpec(TypeCode, "Code", CategoryContent, "pre", "Sample code"),

		{Type: TypeImage, Name: "Image", Category: CategoryMedia, Build: func(o Options) *Node {
			return NewElement("img",
				Attr{Key: "src", Val: or(o.Source, placeholderImage)},
				Attr{Key: "alt", Val: or(o.Text, "Selected image")},
			)
		}},
		{Type: TypeGallery, Name: "Gallery", Category: CategoryMedia, Build: func(o Options) *Node {
			n := NewElement("div", Attr{Key: "class", Val: "gallery"})
			for i := 0; i < 3; i++ {
				n.Append(NewElement("img",
					Attr{Key: "src", Val: or(o.Source, placeholderImage)},
					Attr{Key: "alt", Val: "Gallery image"},
					Attr{Key: "class", Val: "gallery-image"},
				))
			}
			return n
		}},
		{Type: TypeAudio, Name: "Audio", Category: CategoryMedia, Build: mediaTemplate("audio", sampleAudio)},
		{Type: TypeVideo, Name: "Video", Category: CategoryMedia, Build: mediaTemplate("video", sampleVideo)},
		{Type: TypeFile, Name: "File", Category: CategoryMedia, Build: func(o Options) *Node {
			return NewElement("a", Attr{Key: "href", Val: or(o.Source, "#")}).
				Append(NewText(or(o.Text, "Download sample file")))
		}},

		textSpec(TypeButton, "Button", CategoryEmbed, "button", "Sample button"),
		{Type: TypeTable, Name: "Table", Category: CategoryEmbed, Build: tableTemplate},
		{Type: TypeSeparator, Name: "Separator", Category: CategoryEmbed, Build: func(Options) *Node {
			return NewElement("hr")
		}},
		classSpec(TypeShortcode, "Shortcode", CategoryEmbed, "div", "shortcode", "[shortcode]"),
		classSpec(TypeRawHTML, "Custom HTML", CategoryEmbed, "div", "custom-html", "<p>Custom HTML</p>"),
		classSpec(TypeWidget, "Widget", CategoryEmbed, "div", "widget", "Widget: dynamic content"),

		{Type: TypeYouTube, Name: "YouTube", Category: CategoryThirdParty, Build: func(o Options) *Node {
			return iframe(YouTubeEmbedURL(o.Source), 560, 315,
				"accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture")
		}},
		{Type: TypeVimeo, Name: "Vimeo", Category: CategoryThirdParty, Build: func(o Options) *Node {
			return iframe(or(o.Source, defaultVimeo), 640, 360, "autoplay; fullscreen; picture-in-picture")
		}},
		classSpec(TypeTwitter, "Twitter", CategoryThirdParty, "blockquote", "twitter-tweet", "Tweet embed placeholder"),
		classSpec(TypeFacebook, "Facebook", CategoryThirdParty, "div", "fb-post", "Facebook embed placeholder"),
		classSpec(TypeInstagram, "Instagram", CategoryThirdParty, "div", "instagram-media", "Instagram embed placeholder"),
		{Type: TypeMaps, Name: "Google Maps", Category: CategoryThirdParty, Build: func(o Options) *Node {
			return NewElement("iframe",
				Attr{Key: "src", Val: or(o.Source, defaultMaps)},
				Attr{Key: "width", Val: "600"},
				Attr{Key: "height", Val: "450"},
				Attr{Key: "style", Val: "border: 0;"},
				Attr{Key: "allowfullscreen", Val: ""},
				Attr{Key: "loading", Val: "lazy"},
			)
		}},
		{Type: TypeGist, Name: "GitHub Gist", Category: CategoryThirdParty, Build: func(o Options) *Node {
			return NewElement("script", Attr{Key: "src", Val: or(o.Source, defaultGist)})
		}},

		classSpec(TypeGroup, "Group", CategoryLayout, "div", "group", "Block group"),
		classSpec(TypeColumn, "Column", CategoryLayout, "div", "column", "Column"),
		classSpec(TypeRow, "Row", CategoryLayout, "div", "row", "Row"),
		classSpec(TypeContainer, "Container box", CategoryLayout, "div", "container-box", "Container box"),
		classSpec(TypeGrid, "Grid", CategoryLayout, "div", "grid", "Grid"),

		textSpec(TypeSiteHeader, "Site header", CategoryTheme, "header", "Site header"),
		{Type: TypeFeaturedImage, Name: "Featured image", Category: CategoryTheme, Build: func(o Options) *Node {
			return NewElement("img",
				Attr{Key: "src", Val: or(o.Source, placeholderFeatured)},
				Attr{Key: "alt", Val: or(o.Text, "Featured image")},
			)
		}},
		textSpec(TypePublicationDate, "Publication date", CategoryTheme, "time", "Publication date"),
		textSpec(TypeAuthor, "Author", CategoryTheme, "span", "Author"),
		textSpec(TypeNavigation, "Navigation", CategoryTheme, "nav", "Navigation"),
	}
}

// textSpec builds a single element holding placeholder text. An empty
// placeholder defaults to "New <TAG>".
func textSpec(t Type, name string, c Category, tag, placeholder string) Spec {
	if placeholder == "" {
		placeholder = "New " + strings.ToUpper(string(t))
	}
	return Spec{Type: t, Name: name, Category: c, Build: func(o Options) *Node {
		return NewElement(tag).Append(NewText(or(o.Text, placeholder)))
	}}
}

func classSpec(t Type, name string, c Category, tag, class, placeholder string) Spec {
	return Spec{Type: t, Name: name, Category: c, Build: func(o Options) *Node {
		return NewElement(tag, Attr{Key: "class", Val: class}).Append(NewText(or(o.Text, placeholder)))
	}}
}

func listTemplate(tag string) BuildFunc {
	return func(o Options) *Node {
		item := NewElement("li").Append(NewText(or(o.Text, "New "+strings.ToUpper(tag))))
		return NewElement(tag).Append(item)
	}
}

func mediaTemplate(tag, sample string) BuildFunc {
	return func(o Options) *Node {
		return NewElement(tag, Attr{Key: "controls", Val: ""}).
			Append(NewElement("source", Attr{Key: "src", Val: or(o.Source, sample)}))
	}
}

func iframe(src string, width, height int, allow string) *Node {
	return NewElement("iframe",
		Attr{Key: "src", Val: src},
		Attr{Key: "width", Val: strconv.Itoa(width)},
		Attr{Key: "height", Val: strconv.Itoa(height)},
		Attr{Key: "allow", Val: allow},
		Attr{Key: "allowfullscreen", Val: ""},
	)
}

// tableTemplate yields the 1×2 sample table, or a rows×cols table of blank
// cells when a size is given.
func tableTemplate(o Options) *Node {
	tbody := NewElement("tbody")
	if o.Rows > 0 && o.Cols > 0 {
		for r := 0; r < o.Rows; r++ {
			tbody.Append(BlankRow(o.Cols))
		}
	} else {
		tbody.Append(NewElement("tr").Append(
			NewElement("td").Append(NewText("Cell 1")),
			NewElement("td").Append(NewText("Cell 2")),
		))
	}
	return NewElement("table", Attr{Key: "border", Val: "1"}).Append(tbody)
}

// BlankCell returns a td holding a non-breaking space.
func BlankCell() *Node {
	return NewElement("td").Append(NewText(Blank))
}

// BlankRow returns a tr with n blank cells.
func BlankRow(n int) *Node {
	row := NewElement("tr")
	for i := 0; i < n; i++ {
		row.Append(BlankCell())
	}
	return row
}

// YouTubeEmbedURL turns a bare video id into an embed URL. Values that
// already look like URLs are returned unchanged; empty selects the sample.
func YouTubeEmbedURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		ref = defaultYouTubeID
	}
	if strings.Contains(ref, "http") {
		return ref
	}
	return youTubeEmbedBase + ref
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

// String implements fmt.Stringer for log output.
func (s Spec) String() string {
	return fmt.Sprintf("%s (%s, %s)", s.Type, s.Name, s.Category)
}
