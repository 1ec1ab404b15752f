package cli

import (
	"github.com/mesh-intelligence/modelkit/internal/filestore"
	"github.com/mesh-intelligence/modelkit/pkg/sqlite"
	"github.com/mesh-intelligence/modelkit/pkg/types"
)

// session is the store and attached catalog used by one command. The caller
// must defer Close.
type session struct {
	config  types.Config
	store   *filestore.Store
	catalog types.Catalog
}

// openSession resolves the data directory and format, then attaches the
// catalog, rebuilding it from the snapshots on disk.
func (a *app) openSession() (*session, error) {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return nil, sysErr(err)
	}
	cfg := types.Config{DataDir: dataDir, Format: a.formatName()}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	catalog := sqlite.NewCatalog(sqlite.WithLogger(a.logger))
	store, err := filestore.New(cfg, filestore.WithLogger(a.logger), filestore.WithRecorder(catalog))
	if err != nil {
		return nil, err
	}
	if err := catalog.Attach(cfg, store); err != nil {
		return nil, sysErr(err)
	}
	return &session{config: cfg, store: store, catalog: catalog}, nil
}

func (s *session) Close() error {
	return s.catalog.Detach()
}
