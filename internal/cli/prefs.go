package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"financetrack/internal/core"
)

func newPrefsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change the stored preferences",
	}
	cmd.AddCommand(newPrefsShowCommand(), newPrefsSetCommand())
	return cmd
}

func newPrefsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored preferences as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, flush := setupLogger(cfg, cmd.ErrOrStderr())
			defer flush()

			prefs, _, cleanup, err := openPreferences(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			return printPreferences(cmd, prefs.Preferences())
		},
	}
}

func newPrefsSetCommand() *cobra.Command {
	var (
		currency      string
		dateFormat    string
		notifications bool
		emailAlerts   bool
		budgetAlerts  bool
	)

	cmd := &cobra.Command{
		Use:     "set",
		Short:   "Update one or more preferences",
		Example: "  financetrack prefs set --currency EUR --email-alerts=false",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var patch core.PreferencesPatch
			flags := cmd.Flags()
			if flags.Changed("currency") {
				c := strings.ToUpper(strings.TrimSpace(currency))
				patch.Currency = &c
			}
			if flags.Changed("date-format") {
				patch.DateFormat = &dateFormat
			}
			if flags.Changed("notifications") {
				patch.Notifications = &notifications
			}
			if flags.Changed("email-alerts") {
				patch.EmailAlerts = &emailAlerts
			}
			if flags.Changed("budget-alerts") {
				patch.BudgetAlerts = &budgetAlerts
			}
			if patch.IsEmpty() {
				return errors.New("nothing to set: pass at least one flag")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, flush := setupLogger(cfg, cmd.ErrOrStderr())
			defer flush()

			prefs, _, cleanup, err := openPreferences(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			updated, err := prefs.Update(cmd.Context(), patch)
			if err != nil {
				return fmt.Errorf("update preferences: %w", err)
			}
			return printPreferences(cmd, updated)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&currency, "currency", "", "Currency code (USD, EUR, GBP, INR, JPY)")
	flags.StringVar(&dateFormat, "date-format", "", "Date format, e.g. MM/dd/yyyy")
	flags.BoolVar(&notifications, "notifications", true, "Enable notifications")
	flags.BoolVar(&emailAlerts, "email-alerts", true, "Enable email alerts")
	flags.BoolVar(&budgetAlerts, "budget-alerts", true, "Enable budget alerts")
	return cmd
}

func printPreferences(cmd *cobra.Command, p core.Preferences) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}
