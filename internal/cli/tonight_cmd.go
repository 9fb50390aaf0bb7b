package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/zenstory/internal/cli/formatter"
	"github.com/alexanderramin/zenstory/internal/service"
)

func newTonightCmd(app *App) *cobra.Command {
	var location, lang, date string
	var interactive, save, canvas, quiet bool

	cmd := &cobra.Command{
		Use:   "tonight",
		Short: "Write tonight's bedtime story for a location",
		Long: `Finds the best celestial object above the location tonight and writes a
bedtime story about it. Without --location the position comes from your IP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lang = app.Catalog.NormalizeLanguage(lang)

			if interactive {
				if !app.interactive() {
					return errors.New("--interactive needs a terminal")
				}
				if err := tonightForm(app.Catalog, &location, &lang, &date).Run(); err != nil {
					return err
				}
			}

			req := service.TonightRequest{
				Location: strings.TrimSpace(location),
				Language: lang,
				Date:     strings.TrimSpace(date),
			}

			var res *service.TonightResult
			var err error
			if app.interactive() && !quiet {
				res, err = generateWithSpinner(ctx, app, req, cmd.ErrOrStderr())
			} else {
				res, err = app.Tonight.Generate(ctx, req, progressPrinter(cmd.ErrOrStderr(), quiet))
			}
			if err != nil {
				return storyFailure(app, cmd.ErrOrStderr(), lang, err)
			}

			out, err := formatter.FormatTonight(res, app.Catalog.Language(res.Language), app.renderOptions())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)

			in := service.SaveInput{
				StoryHTML:  res.StoryHTML,
				ImageURL:   res.Image.URL,
				ShareText:  res.ShareText,
				Location:   res.Location.Name,
				Language:   res.Language,
				ObjectName: res.Object.Name,
			}
			if save {
				_, total, err := app.Library.Save(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(service.SavedMessage(total)))
			}
			if canvas {
				_, total, err := app.Canvases.Create(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(service.CanvasCreatedMessage(total)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&location, "location", "l", "", "City name or \"lat, lon\"")
	cmd.Flags().StringVar(&lang, "lang", "en", "Story language (en, it, fr, es)")
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD (default tonight)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Ask for the location and language")
	cmd.Flags().BoolVar(&save, "save", false, "Save the story to favorites")
	cmd.Flags().BoolVar(&canvas, "canvas", false, "Create a printable Dream Canvas from the story")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the generation log")

	return cmd
}

func progressPrinter(w io.Writer, quiet bool) service.ProgressFunc {
	if quiet {
		return nil
	}
	return func(e service.ProgressEvent) {
		fmt.Fprintln(w, formatter.FormatProgress(e))
	}
}

// generateWithSpinner runs the generation in the background while a
// bubbletea spinner shows its progress. Cancelling the spinner cancels the
// generation.
func generateWithSpinner(ctx context.Context, app *App, req service.TonightRequest, out io.Writer) (*service.TonightResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(cancel), tea.WithOutput(out), tea.WithContext(ctx))
	go func() {
		res, err := app.Tonight.Generate(ctx, req, func(e service.ProgressEvent) {
			p.Send(progressMsg(e))
		})
		p.Send(generatedMsg{result: res, err: err})
	}()

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return nil, err
	}
	m, ok := final.(progressModel)
	if !ok || m.canceled || !m.done {
		return nil, context.Canceled
	}
	return m.result, m.err
}

// storyFailure prints the localized poetic message and returns err.
func storyFailure(app *App, w io.Writer, lang string, err error) error {
	msg := app.Renderer.ErrorMessage(lang, service.ErrorKey(err))
	if md, merr := formatter.Markdown(msg, app.renderOptions()); merr == nil {
		msg = md
	}
	fmt.Fprint(w, msg)
	return err
}
