package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"orderbot/internal/domain"
	"orderbot/internal/usecase"
)

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <template> [name=value ...]",
		Short: "Render a built-in template with placeholder values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, ok := usecase.DefaultCatalog().Get(domain.TemplateID(args[0]))
			if !ok {
				return fmt.Errorf("unknown template %q", args[0])
			}
			placeholders, err := parsePlaceholders(args[1:])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), usecase.Render(tpl, placeholders))
			return err
		},
	}
}

func parsePlaceholders(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("placeholder %q must be name=value", pair)
		}
		out[name] = value
	}
	return out, nil
}
