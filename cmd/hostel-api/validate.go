package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aanand-mishra/hostel-api/internal/catalog"
	"github.com/aanand-mishra/hostel-api/internal/registration"
	"github.com/aanand-mishra/hostel-api/internal/types"
	"github.com/spf13/cobra"
)

func validateCmd() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "validate [file.json]",
		Short: "Check a registration payload against the form rules",
		Long:  `Reads a tenant registration as JSON and reports every field that fails its rule. The room number is checked against the catalog given with --catalog, or the built-in catalog.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rooms, err := catalog.Load(catalogPath)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read registration: %w", err)
			}

			var input types.TenantRegistrationInput
			if err := json.Unmarshal(data, &input); err != nil {
				return fmt.Errorf("decode registration: %w", err)
			}

			err = registration.NewValidator(rooms).Validate(input)
			var fes registration.FieldErrors
			if errors.As(err, &fes) {
				for _, fe := range fes {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", fe.Field, fe.Message)
				}
				return fmt.Errorf("%d invalid field(s)", len(fes))
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "registration is valid")
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to a room catalog YAML file")
	return cmd
}
