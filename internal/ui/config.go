package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/agenda/internal/config"
	"github.com/javiermolinar/agenda/internal/dateutil"
	"github.com/javiermolinar/agenda/internal/reschedule"
	"github.com/javiermolinar/agenda/internal/tui/theme"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  agenda config`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInteractive(cmd.InOrStdin(), cmd.OutOrStdout(), a.configPath)
		},
	}
}

func runConfigInteractive(in io.Reader, out io.Writer, configPath string) error {
	fmt.Fprintf(out, "Config file: %s\n\n", configPath)

	// Load existing config or create defaults
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	_, fileErr := os.Stat(configPath)
	if os.IsNotExist(fileErr) {
		fmt.Fprintln(out, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(out, "Created %s\n\n", configPath)
	}

	printConfig(out, cfg)

	reader := bufio.NewReader(in)
	if !promptYesNo(reader, out, "\nWould you like to edit the configuration?") {
		return nil
	}

	cfg.Reschedule.Mode = promptChecked(reader, out, "Mode ("+joinModes()+")", cfg.Reschedule.Mode, func(v string) error {
		_, err := reschedule.ParseMode(v)
		return err
	})
	cfg.Reschedule.Gap = promptChecked(reader, out, "Gap (minutes or duration)", cfg.Reschedule.Gap, func(v string) error {
		_, err := dateutil.ParseGap(v)
		return err
	})
	cfg.Reschedule.FitBlocks = promptBool(reader, out, "Fit blocks", cfg.Reschedule.FitBlocks)
	cfg.Storage.DBPath = promptValue(reader, out, "Database path", cfg.Storage.DBPath)
	cfg.UI.Theme = promptChecked(reader, out, "UI theme ("+strings.Join(theme.Available(), ", ")+")", cfg.UI.Theme, func(v string) error {
		if !theme.IsAvailable(v) {
			return fmt.Errorf("unknown theme %q", v)
		}
		return nil
	})
	event := promptChecked(reader, out, "Default event ID (0 for none)", strconv.FormatInt(cfg.UI.Event, 10), func(v string) error {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 0 {
			return fmt.Errorf("invalid event id %q", v)
		}
		return nil
	})
	cfg.UI.Event, _ = strconv.ParseInt(event, 10, 64)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.SaveTo(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(out, "\nConfiguration saved!")
	return nil
}

func printConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out, "──────────────────────")
	fmt.Fprintln(out, "[reschedule]")
	fmt.Fprintf(out, "  mode       = %s\n", cfg.Reschedule.Mode)
	fmt.Fprintf(out, "  gap        = %s\n", cfg.Reschedule.Gap)
	fmt.Fprintf(out, "  fit_blocks = %t\n", cfg.Reschedule.FitBlocks)
	fmt.Fprintln(out, "\n[storage]")
	fmt.Fprintf(out, "  db_path    = %s\n", cfg.Storage.DBPath)
	fmt.Fprintln(out, "\n[ui]")
	fmt.Fprintf(out, "  theme      = %s\n", cfg.UI.Theme)
	fmt.Fprintf(out, "  event      = %d\n", cfg.UI.Event)
	fmt.Fprintln(out, "\n[log]")
	fmt.Fprintf(out, "  debug      = %t\n", cfg.Log.Debug)
	fmt.Fprintf(out, "  path       = %s\n", cfg.Log.Path)
}

func promptYesNo(reader *bufio.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func promptValue(reader *bufio.Reader, out io.Writer, label, current string) string {
	if current == "" {
		fmt.Fprintf(out, "  %s: ", label)
	} else {
		fmt.Fprintf(out, "  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

// promptChecked asks until check accepts the value. An empty answer keeps current.
func promptChecked(reader *bufio.Reader, out io.Writer, label, current string, check func(string) error) string {
	for {
		value := promptValue(reader, out, label, current)
		err := check(value)
		if err == nil {
			return value
		}
		fmt.Fprintf(out, "  %v\n", err)
		if value == current {
			// current is invalid too and input is exhausted
			return current
		}
	}
}

func promptBool(reader *bufio.Reader, out io.Writer, label string, current bool) bool {
	def := "y/N"
	if current {
		def = "Y/n"
	}
	fmt.Fprintf(out, "  %s [%s]: ", label, def)
	input, _ := reader.ReadString('\n')
	switch strings.TrimSpace(strings.ToLower(input)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return current
	}
}
