// Package sqlite exposes the SQLite snapshot catalog while keeping its
// implementation internal.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/modelkit/internal/sqlite"
	"github.com/mesh-intelligence/modelkit/pkg/types"
)

// Option configures a catalog.
type Option = sqlite.Option

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return sqlite.WithLogger(l)
}

// NewCatalog creates a new SQLite snapshot catalog.
// The catalog is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	catalog := sqlite.NewCatalog()
//	err := catalog.Attach(types.Config{
//	    DataDir: ".modelkit",
//	    Format:  types.FormatJSON,
//	}, store)
//	defer catalog.Detach()
func NewCatalog(opts ...Option) types.Catalog {
	return sqlite.NewBackend(opts...)
}
