package internal

import (
	"fmt"
	"io"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	logOut io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogOutput sends structured logs to w. The HTTP server logs to
// stdout and the MCP server to stderr unless overridden.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}

// newApplication applies opts over the given default log output.
func newApplication(defaultOut io.Writer, opts ...Option) (*application, error) {
	app := &application{logOut: defaultOut}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}
