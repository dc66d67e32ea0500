// Package block defines the block catalog, the document node type and the
// factory that builds new blocks from per-type templates.
package block

// Type is the tag identifying a kind of block.
type Type string

// Content blocks.
const (
	TypeParagraph Type = "p"
	TypeHeading1  Type = "h1"
	TypeHeading2  Type = "h2"
	TypeHeading3  Type = "h3"
	TypeList      Type = "ul"
	TypeOrdered   Type = "ol"
	TypeQuote     Type = "blockquote"
	TypeCode      Type = "pre"
)

// Media blocks.
const (
	TypeImage   Type = "img"
	TypeGallery Type = "gallery"
	TypeAudio   Type = "audio"
	TypeVideo   Type = "video"
	TypeFile    Type = "file"
)

// Embed blocks.
const (
	TypeButton    Type = "button"
	TypeTable     Type = "table"
	TypeSeparator Type = "hr"
	TypeShortcode Type = "shortcode"
	TypeRawHTML   Type = "html"
	TypeWidget    Type = "widget"
)

// Third-party embeds.
const (
	TypeYouTube   Type = "youtube"
	TypeVimeo     Type = "vimeo"
	TypeTwitter   Type = "twitter"
	TypeFacebook  Type = "facebook"
	TypeInstagram Type = "instagram"
	TypeMaps      Type = "maps"
	TypeGist      Type = "gist"
)

// Layout blocks.
const (
	TypeGroup     Type = "group"
	TypeColumn    Type = "column"
	TypeRow       Type = "row"
	TypeContainer Type = "container"
	TypeGrid      Type = "grid"
)

// Theme blocks.
const (
	TypeSiteHeader      Type = "site-header"
	TypeFeaturedImage   Type = "featured-image"
	TypePublicationDate Type = "publication-date"
	TypeAuthor          Type = "author"
	TypeNavigation      Type = "navigation"
)

// Category groups block types in the catalog. It has no effect on behavior.
type Category string

const (
	CategoryContent    Category = "content"
	CategoryMedia      Category = "media"
	CategoryEmbed      Category = "embed"
	CategoryThirdParty Category = "third-party"
	CategoryLayout     Category = "layout"
	CategoryTheme      Category = "theme"
)

// Categories lists every category in catalog order.
var Categories = []Category{
	CategoryContent,
	CategoryMedia,
	CategoryEmbed,
	CategoryThirdParty,
	CategoryLayout,
	CategoryTheme,
}

// ClassName returns the per-type marker class, e.g. "block-table".
func (t Type) ClassName() string {
	return ClassPrefix + string(t)
}
