package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada/internal/server"
	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/store/boltstore"
	"github.com/idilsaglam/tada/internal/store/jsonstore"
	"github.com/idilsaglam/tada/internal/ui"
)

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local items API backed by a JSON file or bbolt",
		Args:  exactArgs(0, "serve [--addr host:port] [--backend json|bolt] [--data path]"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.openRepository(a.v.GetString("backend"), a.v.GetString("data"))
			if err != nil {
				return err
			}
			defer repo.Close()

			srv, err := server.New(server.Config{
				Addr:   a.v.GetString("addr"),
				Token:  a.v.GetString("server-token"),
				Logger: a.log,
			}, repo)
			if err != nil {
				return err
			}
			ui.OK(fmt.Sprintf("serving items on http://%s", a.v.GetString("addr")))
			return srv.ListenAndServe(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.String("addr", "127.0.0.1:8080", "listen address")
	f.String("backend", "json", "storage backend: json|bolt")
	f.String("data", "", "data file (default ./tada.json or ./tada.db)")
	f.String("server-token", "", "require this bearer token on every request")
	_ = a.v.BindPFlags(f)
	return cmd
}

// openRepository picks the storage backend; data defaults to a file in the
// working directory named after the backend.
func (a *app) openRepository(backend, data string) (store.Repository, error) {
	switch backend {
	case "json", "":
		if data == "" {
			data = filepath.Join(".", "tada.json")
		}
		a.log.Info("opening store", "backend", "json", "path", data)
		return jsonstore.Open(data)
	case "bolt":
		if data == "" {
			data = filepath.Join(".", "tada.db")
		}
		a.log.Info("opening store", "backend", "bolt", "path", data)
		return boltstore.Open(data)
	}
	return nil, usagef("serve: unknown backend %q (want json or bolt)", backend)
}
