package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/agenda/internal/debuglog"
	"github.com/javiermolinar/agenda/internal/fixture"
)

func (a *App) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file.yaml]",
		Short: "Import an event timetable from YAML",
		Long: `Create an event with its sessions, blocks and entries from a YAML file.

Times are local to the event timezone. Nested entries must lie within
their parent.

Example:
  agenda import summer-school.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolvePath(args[0])
			if err != nil {
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("file does not exist: %s", path)
				}
				return fmt.Errorf("checking file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("path is a directory: %s", path)
			}

			doc, err := fixture.Load(path)
			if err != nil {
				return err
			}
			if err := a.ensureStore(); err != nil {
				return err
			}
			event, err := fixture.Apply(cmd.Context(), a.store, doc)
			if err != nil {
				return fmt.Errorf("importing %s: %w", path, err)
			}
			debuglog.Event("IMPORTED", map[string]any{"event": event.ID, "path": path})

			fmt.Fprintf(cmd.OutOrStdout(), "Imported event %q with id %s\n", event.Title, formatStats(fmt.Sprint(event.ID)))
			return nil
		},
	}
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	return absPath, nil
}
