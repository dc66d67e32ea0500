package block

import (
	"fmt"
	"log/slog"
)

// DefaultImageWidth caps the initial display width of a picked image.
const DefaultImageWidth = 300

// Factory builds marked block nodes from a Registry.
type Factory struct {
	registry   *Registry
	imageWidth float64
	logger     *slog.Logger
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithRegistry replaces the built-in catalog.
func WithRegistry(r *Registry) FactoryOption {
	return func(f *Factory) { f.registry = r }
}

// WithDefaultImageWidth sets the width cap applied to picked images.
func WithDefaultImageWidth(w float64) FactoryOption {
	return func(f *Factory) {
		if w > 0 {
			f.imageWidth = w
		}
	}
}

// WithLogger sets the logger used for degrade-not-fail events.
func WithLogger(l *slog.Logger) FactoryOption {
	return func(f *Factory) { f.logger = l }
}

// NewFactory returns a Factory over the default registry.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		registry:   DefaultRegistry(),
		imageWidth: DefaultImageWidth,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Registry returns the catalog the factory builds from.
func (f *Factory) Registry() *Registry {
	return f.registry
}

// Create builds a new block of type t. Unknown types never fail: they yield
// a placeholder whose text names the requested tag.
func (f *Factory) Create(t Type, opts ...Option) *Node {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	spec, ok := f.registry.Lookup(t)
	if !ok {
		f.logger.Debug("unknown block type", slog.String("type", string(t)))
		return f.Mark(NewElement("div").Append(NewText(UnknownText(t))), t)
	}
	return f.Mark(spec.Build(o), t)
}

// Mark stamps n with the data-block-type attribute and the two marker
// classes used for deletion targeting and type-directed styling.
func (f *Factory) Mark(n *Node, t Type) *Node {
	n.SetAttr(TypeAttr, string(t))
	n.AddClass(t.ClassName(), MemberClass)
	return n
}

// Adopt marks an untyped element when its element name maps to a catalog
// entry. Typed or unrecognized nodes are returned untouched.
func (f *Factory) Adopt(n *Node) *Node {
	if !n.IsElement() || n.Type() != "" {
		return n
	}
	if t, ok := f.registry.TypeForElement(n.Tag); ok {
		f.Mark(n, t)
	}
	return n
}

// UnknownText is the visible text of the placeholder for an unregistered tag.
func UnknownText(t Type) string {
	return fmt.Sprintf("unknown block: %s", t)
}
