package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"orderbot/internal/domain"
)

func newProductsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Manage the product catalog",
	}
	cmd.AddCommand(newProductsPutCmd(opts))
	return cmd
}

func newProductsPutCmd(opts *options) *cobra.Command {
	var p domain.Product
	cmd := &cobra.Command{
		Use:   "put",
		Short: "Create or replace a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateProduct(p); err != nil {
				return err
			}
			bot, err := opts.build(cmd)
			if err != nil {
				return err
			}
			if err := bot.Store.PutProduct(cmd.Context(), p); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "stored %s (price %g, stock %d)\n", p.Name, p.Price, p.Stock)
			return err
		},
	}
	cmd.Flags().StringVar(&p.BusinessID, "business", "", "business id")
	cmd.Flags().StringVar(&p.ProductID, "id", "", "product id (derived from the name when empty)")
	cmd.Flags().StringVar(&p.Name, "name", "", "product name customers use")
	cmd.Flags().Float64Var(&p.Price, "price", 0, "unit price")
	cmd.Flags().IntVar(&p.Stock, "stock", 0, "units in stock")
	_ = cmd.MarkFlagRequired("business")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func validateProduct(p domain.Product) error {
	switch {
	case p.Price < 0:
		return errors.New("price must not be negative")
	case p.Stock < 0:
		return errors.New("stock must not be negative")
	}
	return nil
}
