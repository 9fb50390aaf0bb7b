package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/zenstory/internal/astro"
	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/config"
	"github.com/alexanderramin/zenstory/internal/geo"
	"github.com/alexanderramin/zenstory/internal/imagery"
	"github.com/alexanderramin/zenstory/internal/logging"
	"github.com/alexanderramin/zenstory/internal/mcp"
	"github.com/alexanderramin/zenstory/internal/render"
	"github.com/alexanderramin/zenstory/internal/repository"
	"github.com/alexanderramin/zenstory/internal/service"
	"github.com/alexanderramin/zenstory/internal/story"
	"github.com/alexanderramin/zenstory/internal/testutil"
)

type fakeTonight struct {
	result *service.TonightResult
	err    error
	got    service.TonightRequest
}

func (f *fakeTonight) Generate(_ context.Context, req service.TonightRequest, progress service.ProgressFunc) (*service.TonightResult, error) {
	f.got = req
	if progress != nil {
		progress(service.ProgressEvent{Time: time.Date(2026, 10, 17, 21, 0, 0, 0, time.UTC), Icon: "🔭", Message: "Selecting celestial object"})
	}
	return f.result, f.err
}

type fakeLocator struct {
	loc geo.Location
	err error
}

func (f fakeLocator) Locate(context.Context) (geo.Location, error) { return f.loc, f.err }

type fakeSelector struct {
	obj astro.CelestialObject
	err error
}

func (f fakeSelector) Select(context.Context, float64, float64, string) (astro.CelestialObject, error) {
	return f.obj, f.err
}

func tonightResult() *service.TonightResult {
	return &service.TonightResult{
		Location: geo.Location{Name: "Rome, Italy", Lat: 41.9, Lon: 12.5, Source: geo.SourceTable},
		Object:   astro.CelestialObject{Name: "Vega", Type: astro.TypeStar, Magnitude: 0.03, Constellation: "Lyra"},
		Story: story.Story{
			Title:  "The Lullaby of Vega",
			Story:  "Once upon a time a blue star sang softly.",
			Haiku:  "blue star hums\nthe lyre sleeps\nso do you",
			Source: story.SourceLLM,
		},
		Image:       imagery.Image{URL: "https://example.org/vega.jpg", Source: "skyview"},
		FunFacts:    []string{"Vega was once the pole star."},
		StoryHTML:   `<h1 class="story-title">The Lullaby of Vega</h1><p>Once upon a time.</p>`,
		ShareText:   "🌌 The Lullaby of Vega",
		Language:    "en",
		GeneratedAt: time.Date(2026, 10, 17, 21, 0, 0, 0, time.UTC),
	}
}

type appOption func(*App)

func withTonight(t service.TonightService) appOption { return func(a *App) { a.Tonight = t } }

func withLocator(l service.Locator) appOption { return func(a *App) { a.Locator = l } }

func withSelector(s service.ObjectSelector) appOption { return func(a *App) { a.Selector = s } }

// testApp wires an App over an in-memory DB with fakes for the network
// backed collaborators.
func testApp(t *testing.T, opts ...appOption) *App {
	t.Helper()
	c := catalog.Default()
	r, err := render.New(c)
	require.NoError(t, err)

	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)

	app := &App{
		Config:   config.Default(),
		Catalog:  c,
		Log:      logging.Nop(),
		Resolver: geo.NewResolver(c.Cities, c.Sky.PopularCities),
		Locator:  fakeLocator{loc: geo.Location{Name: "Paris, France", Lat: 48.85, Lon: 2.35}},
		Selector: fakeSelector{obj: astro.CelestialObject{Name: "Vega", Type: astro.TypeStar, Score: 80}},
		Renderer: r,
		Tonight:  &fakeTonight{result: tonightResult()},
		Library:  service.NewLibraryService(repository.NewSQLiteStoryRepo(database), uow, r, c),
		Canvases: service.NewCanvasService(repository.NewSQLiteCanvasRepo(database), uow, r, c),
		MCP:      mcp.NewServer(mcp.Deps{Catalog: c, Version: "test"}),
		Version:  "test",
		Now:      func() time.Time { return time.Now() },
	}
	for _, o := range opts {
		o(app)
	}
	return app
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func saveStory(t *testing.T, app *App, title, location string) {
	t.Helper()
	_, _, err := app.Library.Save(context.Background(), service.SaveInput{
		StoryHTML:  `<h1 class="story-title">` + title + `</h1><p>Once upon a time.</p>`,
		ImageURL:   "https://example.org/img.jpg",
		ShareText:  "🌌 " + title + " over " + location,
		Location:   location,
		Language:   "en",
		ObjectName: "Vega",
	})
	require.NoError(t, err)
}

// --- tonight ---

func TestTonight_PrintsStory(t *testing.T) {
	fake := &fakeTonight{result: tonightResult()}
	app := testApp(t, withTonight(fake))

	out, err := executeCmd(t, app, "tonight", "--location", "  Rome ", "--lang", "IT", "--date", "2026-10-17")
	require.NoError(t, err)

	assert.Equal(t, service.TonightRequest{Location: "Rome", Language: "it", Date: "2026-10-17"}, fake.got)
	assert.Contains(t, out, "Selecting celestial object")
	assert.Contains(t, out, "The Lullaby of Vega")
	assert.Contains(t, out, "blue star hums")
	assert.Contains(t, out, "Vega was once the pole star.")
	assert.Contains(t, out, "https://example.org/vega.jpg")
	assert.Contains(t, out, "written tonight")
}

func TestTonight_QuietHidesProgress(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "tonight", "-q", "-l", "Rome")
	require.NoError(t, err)
	assert.NotContains(t, out, "Selecting celestial object")
	assert.Contains(t, out, "The Lullaby of Vega")
}

func TestTonight_SaveAndCanvas(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "tonight", "-l", "Rome", "--save", "--canvas")
	require.NoError(t, err)
	assert.Contains(t, out, service.SavedMessage(1))
	assert.Contains(t, out, service.CanvasCreatedMessage(1))

	stories, err := app.Library.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "The Lullaby of Vega", stories[0].Title)
	assert.Equal(t, "Rome, Italy", stories[0].Location)
}

func TestTonight_FailurePrintsLocalizedMessage(t *testing.T) {
	fake := &fakeTonight{err: service.ErrLocationUnresolved}
	app := testApp(t, withTonight(fake))

	out, err := executeCmd(t, app, "tonight", "-l", "Atlantis", "-q")
	require.ErrorIs(t, err, service.ErrLocationUnresolved)

	lang := app.Catalog.Language("en")
	first := strings.Fields(lang.Errors["location_error"])[0]
	assert.Contains(t, out, first)
}

func TestTonight_InteractiveNeedsTerminal(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "tonight", "-i")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal")
}

// --- select / locate / cities ---

func TestSelect_JSON(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "select", "--lat", "41.9", "--lon", "12.5", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"object_name": "Vega"`)
	assert.Contains(t, out, `"score": 80`)
}

func TestSelect_Text(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "select", "--lat", "41.9", "--lon", "12.5")
	require.NoError(t, err)
	assert.Contains(t, out, "Vega")
	assert.Contains(t, out, "score 80")
}

func TestSelect_RequiresCoordinates(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "select", "--lat", "41.9")
	require.Error(t, err)
}

func TestSelect_PropagatesInvalidCoordinates(t *testing.T) {
	app := testApp(t, withSelector(fakeSelector{err: astro.ErrInvalidCoordinates}))

	_, err := executeCmd(t, app, "select", "--lat", "91", "--lon", "0")
	require.ErrorIs(t, err, astro.ErrInvalidCoordinates)
}

func TestLocate_ByName(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "locate", "rome")
	require.NoError(t, err)
	assert.Contains(t, out, "Rome, Italy")
	assert.Contains(t, out, "source: table")
}

func TestLocate_ByIP(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "locate")
	require.NoError(t, err)
	assert.Contains(t, out, "Paris, France")
}

func TestLocate_Unresolved(t *testing.T) {
	app := testApp(t, withLocator(fakeLocator{err: errors.New("offline")}))

	_, err := executeCmd(t, app, "locate")
	require.ErrorIs(t, err, service.ErrLocationUnresolved)

	_, err = executeCmd(t, app, "locate", "zzzzqqqq")
	require.ErrorIs(t, err, service.ErrLocationUnresolved)
}

func TestCities(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "cities", "Rome")
	require.NoError(t, err)
	assert.Contains(t, out, "Rome, Italy")

	out, err = executeCmd(t, app, "cities", "-n", "3")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
}

// --- saved ---

func TestSaved_ListShowDelete(t *testing.T) {
	app := testApp(t)
	saveStory(t, app, "First Tale", "Rome, Italy")
	saveStory(t, app, "Second Tale", "Paris, France")

	out, err := executeCmd(t, app, "saved", "list")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "Second Tale"), strings.Index(out, "First Tale"))

	out, err = executeCmd(t, app, "saved", "show", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "First Tale")
	assert.Contains(t, out, "Once upon a time.")

	out, err = executeCmd(t, app, "saved", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, service.StoryDeletedMessage("Paris, France"))

	stories, err := app.Library.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "First Tale", stories[0].Title)
}

func TestSaved_EmptyList(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "saved", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved stories yet")
}

func TestSaved_IndexErrors(t *testing.T) {
	app := testApp(t)
	saveStory(t, app, "Only Tale", "Rome, Italy")

	_, err := executeCmd(t, app, "saved", "show", "5")
	require.ErrorIs(t, err, service.ErrIndexOutOfRange)

	_, err = executeCmd(t, app, "saved", "delete", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a number")
}

func TestSaved_ClearNeedsConfirmation(t *testing.T) {
	app := testApp(t)
	saveStory(t, app, "A", "Rome, Italy")
	saveStory(t, app, "B", "Rome, Italy")

	_, err := executeCmd(t, app, "saved", "clear")
	require.Error(t, err)

	out, err := executeCmd(t, app, "saved", "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, service.StoriesClearedMessage(2))

	out, err = executeCmd(t, app, "saved", "clear", "-y")
	require.NoError(t, err)
	assert.Contains(t, out, service.StoriesClearedMessage(0))
}

func TestSaved_Export(t *testing.T) {
	app := testApp(t)
	saveStory(t, app, "Exported Tale", "Rome, Italy")

	out, err := executeCmd(t, app, "saved", "export", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "Exported Tale")

	path := filepath.Join(t.TempDir(), "story.html")
	out, err = executeCmd(t, app, "saved", "export", "1", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	page, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Exported Tale")
}

// --- canvas ---

func TestCanvas_Lifecycle(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "canvas", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No Dream Canvas created yet")

	_, err = executeCmd(t, app, "tonight", "-q", "-l", "Rome", "--canvas")
	require.NoError(t, err)

	out, err = executeCmd(t, app, "canvas", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "The Lullaby of Vega")

	out, err = executeCmd(t, app, "canvas", "export", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "The Lullaby of Vega")

	out, err = executeCmd(t, app, "canvas", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, service.CanvasDeletedMessage("Rome, Italy"))

	out, err = executeCmd(t, app, "canvas", "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, service.CanvasesClearedMessage(0))
}

// --- share ---

func TestShare_AllPlatforms(t *testing.T) {
	app := testApp(t)
	saveStory(t, app, "Shared Tale", "Rome, Italy")

	out, err := executeCmd(t, app, "share", "1")
	require.NoError(t, err)
	for _, p := range service.Platforms {
		assert.Contains(t, out, p)
	}
	assert.Contains(t, out, "https://wa.me/?text=")
	assert.Contains(t, out, "https://t.me/share/url?text=")
}

func TestShare_SinglePlatform(t *testing.T) {
	app := testApp(t)
	saveStory(t, app, "Shared Tale", "Rome, Italy")

	out, err := executeCmd(t, app, "share", "1", "--platform", "Email")
	require.NoError(t, err)
	assert.Equal(t, service.ShareLink("🌌 Shared Tale over Rome, Italy", "email")+"\n", out)

	_, err = executeCmd(t, app, "share", "1", "-p", "myspace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown platform")
}

// --- dict / about ---

func TestDict(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "dict", "--lang", "it")
	require.NoError(t, err)
	assert.Contains(t, out, "Dizionario Astronomico")
}

func TestAbout_ShowsBedtime(t *testing.T) {
	app := testApp(t)
	app.Config.Bedtime.Hour = 20
	app.Config.Bedtime.ReminderMinutes = 10

	out, err := executeCmd(t, app, "about")
	require.NoError(t, err)
	assert.Contains(t, out, "Our Mission")
	assert.Contains(t, out, "Story time at 20:00, with a reminder 10 minutes before.")
}

// --- mcp ---

func TestMCP_Stdio(t *testing.T) {
	app := testApp(t)

	root := NewRootCmd(app)
	var out bytes.Buffer
	root.SetIn(strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}` + "\n" +
			`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
			`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n"))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"mcp"})
	require.NoError(t, root.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"protocolVersion"`)
	assert.Contains(t, lines[1], "select_celestial")
	assert.Contains(t, lines[1], "get_story_prompt")
}

func TestChangedFlags(t *testing.T) {
	cmd := newTonightCmd(testApp(t))
	require.NoError(t, cmd.Flags().Parse([]string{"--lang", "fr", "-q"}))
	assert.Equal(t, []string{"lang=fr", "quiet=true"}, changedFlags(cmd.Flags()))
}

func TestValidateOptionalDate(t *testing.T) {
	assert.NoError(t, validateOptionalDate(""))
	assert.NoError(t, validateOptionalDate(" 2026-10-17 "))
	assert.Error(t, validateOptionalDate("17/10/2026"))
}
