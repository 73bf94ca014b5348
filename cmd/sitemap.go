package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/facet/internal/config"
	"github.com/conneroisu/facet/internal/errors"
)

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Print the sitemap",
	Long: `Print one absolute URL per static page. Requires a base URL, either
from server.base_url or --base-url.

Examples:
  facet sitemap --base-url https://example.com > sitemap.txt`,
	PreRunE: bindFlags(map[string]string{"server.base_url": "base-url"}),
	RunE:    runSitemap,
}

func init() {
	rootCmd.AddCommand(sitemapCmd)

	sitemapCmd.Flags().String("base-url", "", "Absolute URL the site is published under")
}

func runSitemap(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Server.BaseURL == "" {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid, "sitemap requires server.base_url or --base-url")
	}
	a, err := buildApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(a.site.Sitemap())
	return err
}
