package cmd

import (
	"errors"
	"fmt"

	"github.com/fulmenhq/recipeneat/pkg/recipe"
	"github.com/spf13/cobra"
)

func newValidateNameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-name NAME...",
		Short: "Check that names are usable as recipe names",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runValidateName,
	}
}

func runValidateName(cmd *cobra.Command, args []string) error {
	var errs []error
	for _, name := range args {
		if err := recipe.ValidateName(name); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", name); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}
