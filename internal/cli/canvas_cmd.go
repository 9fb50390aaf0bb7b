package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/zenstory/internal/cli/formatter"
	"github.com/alexanderramin/zenstory/internal/service"
)

func newCanvasCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "canvas",
		Aliases: []string{"canvases"},
		Short:   "Manage printable Dream Canvas postcards",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List dream canvases, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				list, err := app.Canvases.List(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCanvasList(list, app.now(), app.width()))
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <number>",
			Short: "Delete a dream canvas",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				c, err := app.Canvases.Delete(cmd.Context(), n)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(service.CanvasDeletedMessage(c.Location)))
				return nil
			},
		},
		newCanvasClearCmd(app),
		newCanvasExportCmd(app),
	)

	return cmd
}

func newCanvasClearCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every dream canvas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirmed(app, yes, "Delete all dream canvases?")
			if err != nil || !ok {
				return err
			}
			n, err := app.Canvases.DeleteAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(service.CanvasesClearedMessage(n)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation")
	return cmd
}

func newCanvasExportCmd(app *App) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <number>",
		Short: "Write a dream canvas as a printable A4 HTML page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			page, err := app.Canvases.ExportHTML(cmd.Context(), n)
			if err != nil {
				return err
			}
			return writePage(cmd, outPath, page)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	return cmd
}
