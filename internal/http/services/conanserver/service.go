// Package conanserver is the HTTP service implementing the Conan
// repository protocol. It composes the blob
// store (pkg/blobstore), the path model (pkg/conanpath), the INI reader
// (pkg/iniconf) and the revisions API (pkg/revisions) behind a
// table-driven router, the same layering reva's internal/http/services
// packages use to compose a storage driver and permission checker behind
// a thin HTTP front.
package conanserver

import (
	"net/http"

	"github.com/cs3conan/conan-server/pkg/auth"
	"github.com/cs3conan/conan-server/pkg/blobstore"
	"github.com/cs3conan/conan-server/pkg/conanpath"
	"github.com/cs3conan/conan-server/pkg/revisions"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Config is the component config block for this service, decoded with
// mapstructure from the generic config map the CLI entry point loads,
// matching reva's user/manager/kapi parseConfig(m map[string]interface{})
// pattern.
type Config struct {
	// Prefix is stripped from every request path before route matching,
	// e.g. "/api" if the service is mounted below a reverse proxy path.
	Prefix string `mapstructure:"prefix"`
}

func parseConfig(m map[string]interface{}) (*Config, error) {
	c := &Config{}
	if err := mapstructure.Decode(m, c); err != nil {
		return nil, errors.Wrap(err, "conanserver: error decoding config")
	}
	return c, nil
}

// Service holds the collaborators every handler closes over: the blob
// store, the auth checker, and a base logger. It carries no per-request
// state — handlers are stateless.
type Service struct {
	conf    *Config
	store   blobstore.Store
	checker auth.Checker
	log     zerolog.Logger
	routes  []route
}

// New builds the service from a config map and its collaborators,
// mirroring reva's convention of a constructor taking a config map plus
// already-built dependencies rather than reading global state.
func New(m map[string]interface{}, store blobstore.Store, checker auth.Checker, log zerolog.Logger) (*Service, error) {
	conf, err := parseConfig(m)
	if err != nil {
		return nil, err
	}
	if checker == nil {
		checker = auth.AllowAll{}
	}
	s := &Service{conf: conf, store: store, checker: checker, log: log}
	s.routes = buildRoutes()
	return s, nil
}

// revisionsAPI builds a revisions.API bound to coord, sharing this
// service's blob store.
func (s *Service) revisionsAPI(coord conanpath.Coordinate) *revisions.API {
	return revisions.New(s.store, coord)
}

// Handler returns the http.Handler for this service, with ambient
// middleware applied (see router.go).
func (s *Service) Handler() http.Handler {
	return s.router()
}
