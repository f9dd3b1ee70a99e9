// Command conan-server runs the Conan repository protocol HTTP service.
// It loads a TOML config file the way reva's
// revad entry point loads its own, selects a blobstore.Store backend by
// name, and exposes two subcommands: "serve" runs the HTTP listener,
// "reindex" rebuilds the revision index for one coordinate without
// starting a server, grounded on cpp-sbom-builder's cmd/root.go cobra
// layout (single rootCmd, flag-bound subcommands, RunE returning error).
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cs3conan/conan-server/internal/http/services/conanserver"
	"github.com/cs3conan/conan-server/pkg/auth"
	"github.com/cs3conan/conan-server/pkg/blobstore"
	_ "github.com/cs3conan/conan-server/pkg/blobstore/fsblob"
	_ "github.com/cs3conan/conan-server/pkg/blobstore/memblob"
	_ "github.com/cs3conan/conan-server/pkg/blobstore/s3blob"
	"github.com/cs3conan/conan-server/pkg/conanpath"
	"github.com/cs3conan/conan-server/pkg/revisions"
)

// serverConfig is the "[server]" TOML table.
type serverConfig struct {
	Listen    string `mapstructure:"listen"`
	Prefix    string `mapstructure:"prefix"`
	AuthToken string `mapstructure:"auth_token"`
}

// fileConfig is the whole decoded TOML document: a server table and a
// storage table whose shape depends on the selected backend, mirroring
// reva's practice of passing each driver its own config sub-map rather
// than a single flat struct.
type fileConfig struct {
	Backend string                 `mapstructure:"backend"`
	Server  map[string]interface{} `mapstructure:"server"`
	Storage map[string]interface{} `mapstructure:"storage"`
}

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "conan-server",
	Short: "Conan repository protocol HTTP server",
	Long: `conan-server serves the Conan v1/v2 package repository protocol
(recipe and binary upload/download, revision indexing, search) over a
pluggable blob store backend (filesystem, S3, or in-memory).`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex <name>/<version>[/<user>/<channel>]",
	Short: "Rebuild the revision index for one coordinate",
	Args:  cobra.ExactArgs(1),
	RunE:  runReindex,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "conan-server.toml", "path to the TOML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reindexCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// loadConfig decodes flagConfig's TOML document, following reva's
// two-stage pattern (raw map first, then per-component mapstructure
// decode) so storage.* keeps whatever shape the selected backend wants.
func loadConfig() (*fileConfig, error) {
	var raw map[string]interface{}
	if _, err := toml.DecodeFile(flagConfig, &raw); err != nil {
		return nil, errors.Wrapf(err, "reading config %q", flagConfig)
	}
	var fc fileConfig
	if err := mapstructure.Decode(raw, &fc); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if fc.Backend == "" {
		fc.Backend = "fs"
	}
	return &fc, nil
}

func buildStore(fc *fileConfig) (blobstore.Store, error) {
	store, err := blobstore.New(fc.Backend, fc.Storage)
	if err != nil {
		return nil, errors.Wrapf(err, "building %q blobstore", fc.Backend)
	}
	return store, nil
}

func buildChecker(sc serverConfig) auth.Checker {
	if sc.AuthToken == "" {
		return auth.AllowAll{}
	}
	return auth.StaticToken{Token: sc.AuthToken}
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()

	fc, err := loadConfig()
	if err != nil {
		return err
	}
	var sc serverConfig
	if err := mapstructure.Decode(fc.Server, &sc); err != nil {
		return errors.Wrap(err, "decoding [server] table")
	}
	if sc.Listen == "" {
		sc.Listen = ":8080"
	}

	store, err := buildStore(fc)
	if err != nil {
		return err
	}

	svc, err := conanserver.New(
		map[string]interface{}{"prefix": sc.Prefix},
		store,
		buildChecker(sc),
		log,
	)
	if err != nil {
		return errors.Wrap(err, "building conanserver")
	}

	log.Info().Str("listen", sc.Listen).Str("backend", fc.Backend).Msg("starting conan-server")
	return http.ListenAndServe(sc.Listen, svc.Handler())
}

func runReindex(cmd *cobra.Command, args []string) error {
	log := newLogger()

	fc, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := buildStore(fc)
	if err != nil {
		return err
	}

	coord, err := conanpath.ParseCoordinate(args[0])
	if err != nil {
		return errors.Wrapf(err, "parsing coordinate %q", args[0])
	}

	api := revisions.New(store, coord)
	ctx := cmd.Context()
	if err := api.FullIndexUpdate(ctx); err != nil {
		log.Error().Err(err).Msg("reindex completed with failures")
		return err
	}
	log.Info().Str("coordinate", coord.String()).Msg("reindex complete")
	return nil
}
