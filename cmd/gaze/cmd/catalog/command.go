// Package catalog provides the command that lists the module catalog.
package catalog

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/gaze/cmd/application"
	"github.com/agentstation/gaze/internal/catalogs"
	"github.com/agentstation/gaze/internal/cmd/emoji"
	"github.com/agentstation/gaze/internal/cmd/output"
	"github.com/agentstation/gaze/internal/cmd/remote"
	pkgcatalog "github.com/agentstation/gaze/pkg/catalog"
	"github.com/agentstation/gaze/pkg/constants"
)

// NewCommand creates the catalog command. cfg selects the backend read
// when --remote is not set.
func NewCommand(app application.Application, cfg catalogs.Config, rootMarker string) *cobra.Command {
	var useRemote bool

	cmd := &cobra.Command{
		Use:     "catalog [search]",
		Aliases: []string{"modules"},
		GroupID: "core",
		Short:   "List catalog modules and their raw ids",
		Long: `Catalog fetches the module catalog from the configured backend (sqlite,
http or file) and prints each module with the raw id the monitor derives from
its content URL. An optional search term filters by name or description,
ignoring case.

With --remote the catalog loaded by a running gaze server is listed instead.`,
		Example: `  gaze catalog
  gaze catalog chem -o wide
  GAZE_CATALOG_KIND=sqlite GAZE_CATALOG_DSN=/srv/oc4d/dev.db gaze catalog
  gaze catalog --remote history`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var term string
			if len(args) == 1 {
				term = args[0]
			}

			var (
				entries []pkgcatalog.Entry
				err     error
			)
			if useRemote {
				entries, err = fetchRemote(cmd.Context(), app.APIURL(), term)
			} else {
				entries, err = fetchLocal(cmd.Context(), cfg, rootMarker, term)
			}
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s No modules found\n", emoji.Info)
				return nil
			}

			format := output.DetectFormat(app.OutputFormat())
			return output.Write(cmd.OutOrStdout(), format, entries, func(wide bool) output.Data {
				return output.CatalogTable(entries, rootMarker, wide)
			})
		},
	}

	cmd.Flags().BoolVar(&useRemote, "remote", false, "List the catalog of a running server")
	return cmd
}

func fetchLocal(ctx context.Context, cfg catalogs.Config, rootMarker, term string) ([]pkgcatalog.Entry, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.CatalogFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	entries, err := catalogs.Fetch(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return pkgcatalog.NewIndex(entries, rootMarker).Search(term), nil
}

func fetchRemote(ctx context.Context, apiURL, term string) ([]pkgcatalog.Entry, error) {
	page, err := remote.New(apiURL).Catalog(ctx, term)
	if err != nil {
		return nil, err
	}
	return page.Modules, nil
}
