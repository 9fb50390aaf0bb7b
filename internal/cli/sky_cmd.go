package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/zenstory/internal/cli/formatter"
	"github.com/alexanderramin/zenstory/internal/geo"
	"github.com/alexanderramin/zenstory/internal/service"
)

func newSelectCmd(app *App) *cobra.Command {
	var lat, lon float64
	var date string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Pick the best celestial object for a position and date",
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := app.Selector.Select(cmd.Context(), lat, lon, strings.TrimSpace(date))
			if err != nil {
				return err
			}
			if asJSON {
				out, err := json.MarshalIndent(obj, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatObject(obj))
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim(fmt.Sprintf("   score %d", obj.Score)))
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in decimal degrees (-90 to 90)")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in decimal degrees (-180 to 180)")
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the object as JSON")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")

	return cmd
}

func newLocateCmd(app *App) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "locate [place]",
		Short: "Resolve a place name or coordinates; without one, locate by IP",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))

			var loc geo.Location
			if query != "" {
				found, ok := app.Resolver.Parse(query)
				if !ok {
					return fmt.Errorf("%w: %q", service.ErrLocationUnresolved, query)
				}
				loc = found
			} else {
				found, err := app.Locator.Locate(cmd.Context())
				if err != nil {
					return fmt.Errorf("%w: %v", service.ErrLocationUnresolved, err)
				}
				loc = found
			}

			out, err := formatter.FormatResolved(loc, app.Catalog.Language(app.Catalog.NormalizeLanguage(lang)), app.renderOptions())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "en", "Language for compass letters")
	return cmd
}

func newCitiesCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "cities [query]",
		Short: "Suggest known cities; without a query, list popular ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			cities := app.Resolver.Suggest(strings.Join(args, " "), limit)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCities(cities))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of cities")
	return cmd
}
