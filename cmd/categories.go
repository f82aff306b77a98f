package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Print the active POI category rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := loadRules(cfg)
		if err != nil {
			return err
		}

		for _, cat := range rules.Categories() {
			fmt.Printf("%s\n", cat)
			for _, r := range rules.RulesFor(cat) {
				fmt.Printf("  %s = %s\n", r.Key, strings.Join(r.Values, ", "))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}
