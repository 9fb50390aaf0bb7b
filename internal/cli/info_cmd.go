package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/zenstory/internal/cli/formatter"
	"github.com/alexanderramin/zenstory/internal/service"
)

func newDictCmd(app *App) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:     "dict",
		Aliases: []string{"dictionary"},
		Short:   "Show the little sky dictionary",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := app.Catalog.Language(app.Catalog.NormalizeLanguage(lang))
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDictionary(l, app.width()))
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "en", "Language code")
	return cmd
}

func newAboutCmd(app *App) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "about",
		Short: "What zenstory is and when story time starts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := app.Catalog.Language(app.Catalog.NormalizeLanguage(lang))
			bed := formatter.Bedtime{}
			if app.Config != nil {
				bed = formatter.Bedtime{
					Hour:            app.Config.Bedtime.Hour,
					ReminderMinutes: app.Config.Bedtime.ReminderMinutes,
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatAbout(l, bed, app.width()))
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "en", "Language code")
	return cmd
}

func newShareCmd(app *App) *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "share <number>",
		Short: "Print share links for a saved story",
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

			platforms := service.Platforms
			if platform != "" {
				p := strings.ToLower(strings.TrimSpace(platform))
				if service.ShareLink("", p) == "" {
					return fmt.Errorf("unknown platform %q (want one of %s)", platform, strings.Join(service.Platforms, ", "))
				}
				platforms = []string{p}
			}

			out := cmd.OutOrStdout()
			if len(platforms) == 1 {
				fmt.Fprintln(out, service.ShareLink(s.ShareText, platforms[0]))
				return nil
			}
			for _, p := range platforms {
				fmt.Fprintf(out, "%s  %s\n", formatter.Bold(fmt.Sprintf("%-9s", p)), service.ShareLink(s.ShareText, p))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&platform, "platform", "p", "", "whatsapp, email, twitter or telegram (default all)")
	return cmd
}
