package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/zenstory/internal/cli/formatter"
	"github.com/alexanderramin/zenstory/internal/service"
)

func newSavedCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "saved",
		Aliases: []string{"stories"},
		Short:   "Manage saved stories",
	}

	cmd.AddCommand(
		newSavedListCmd(app),
		newSavedShowCmd(app),
		newSavedDeleteCmd(app),
		newSavedClearCmd(app),
		newSavedExportCmd(app),
	)

	return cmd
}

func newSavedListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved stories, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stories, err := app.Library.List(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatStoryList(stories, app.now(), app.width()))
			return nil
		},
	}
}

func newSavedShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <number>",
		Short: "Show a saved story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			s, err := app.Library.Get(cmd.Context(), n)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatStoryDetail(s, app.now(), app.width()))
			return nil
		},
	}
}

func newSavedDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <number>",
		Short: "Delete a saved story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			s, err := app.Library.Delete(cmd.Context(), n)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(service.StoryDeletedMessage(s.Location)))
			return nil
		},
	}
}

func newSavedClearCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved story",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirmed(app, yes, "Delete all saved stories?")
			if err != nil || !ok {
				return err
			}
			n, err := app.Library.DeleteAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(service.StoriesClearedMessage(n)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation")
	return cmd
}

func newSavedExportCmd(app *App) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <number>",
		Short: "Write a saved story as a printable HTML page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			page, err := app.Library.ExportHTML(cmd.Context(), n)
			if err != nil {
				return err
			}
			return writePage(cmd, outPath, page)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func parseIndex(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", arg)
	}
	return n, nil
}

// confirmed asks before a destructive action on a terminal. Without one,
// --yes is required.
func confirmed(app *App, yes bool, question string) (bool, error) {
	if yes {
		return true, nil
	}
	if !app.interactive() {
		return false, fmt.Errorf("refusing to delete without --yes")
	}
	var ok bool
	if err := confirmForm(question, &ok).Run(); err != nil {
		return false, err
	}
	return ok, nil
}

func writePage(cmd *cobra.Command, path, page string) error {
	if path == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), page)
		return err
	}
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatter.Success("✓ Wrote "+path))
	return nil
}
