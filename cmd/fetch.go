package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xmin-city/xmin/internal/overpass"
)

var fetchJSON bool

var fetchCmd = &cobra.Command{
	Use:   "fetch [category...]",
	Short: "Fetch POIs for the configured area and print a summary",
	Long:  "One-shot POI fetch against the configured Overpass endpoint. With no arguments fetches every known category. Useful for smoke-testing category rules before starting the server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := loadRules(cfg)
		if err != nil {
			return err
		}

		cats := args
		if len(cats) == 0 {
			cats = rules.Categories()
		}
		for _, cat := range cats {
			if !rules.Has(cat) {
				return eris.Errorf("unknown category %q", cat)
			}
		}

		client := overpass.NewClient(cfg.Overpass.URL, rules, overpassBBox(cfg),
			overpass.WithQueryTimeout(cfg.Overpass.TimeoutSecs),
			overpass.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Overpass.TimeoutSecs+30) * time.Second}),
		)

		enc := json.NewEncoder(os.Stdout)
		for i, cat := range cats {
			pois, err := client.FetchCategory(cmd.Context(), cat)
			if err != nil {
				return eris.Wrapf(err, "fetch %s", cat)
			}
			if fetchJSON {
				if err := enc.Encode(map[string]any{"category": cat, "pois": pois}); err != nil {
					return eris.Wrap(err, "encode result")
				}
			} else {
				fmt.Printf("%s: %d pois\n", cat, len(pois))
			}

			if i < len(cats)-1 && cfg.Overpass.CooldownSecs > 0 {
				zap.L().Debug("cooling down between categories",
					zap.Int("seconds", cfg.Overpass.CooldownSecs),
				)
				time.Sleep(time.Duration(cfg.Overpass.CooldownSecs) * time.Second)
			}
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "print fetched pois as JSON lines")
	rootCmd.AddCommand(fetchCmd)
}
