package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/zenstory/internal/astro"
	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/cli"
	"github.com/alexanderramin/zenstory/internal/config"
	"github.com/alexanderramin/zenstory/internal/db"
	"github.com/alexanderramin/zenstory/internal/fetch"
	"github.com/alexanderramin/zenstory/internal/geo"
	"github.com/alexanderramin/zenstory/internal/imagery"
	"github.com/alexanderramin/zenstory/internal/llm"
	"github.com/alexanderramin/zenstory/internal/logging"
	"github.com/alexanderramin/zenstory/internal/mcp"
	"github.com/alexanderramin/zenstory/internal/render"
	"github.com/alexanderramin/zenstory/internal/repository"
	"github.com/alexanderramin/zenstory/internal/service"
	"github.com/alexanderramin/zenstory/internal/story"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	c, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	// Open database
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	storyRepo := repository.NewSQLiteStoryRepo(database)
	canvasRepo := repository.NewSQLiteCanvasRepo(database)
	shownRepo := repository.NewSQLiteShownObjectRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)

	// Upstream clients share one cache
	client := fetch.NewClient(cfg.HTTPTimeout(),
		fetch.WithRetryDelay(cfg.RetryDelay()),
		fetch.WithLogger(log.Logger))
	cache := fetch.NewCache(cfg.CacheTTL())

	llmCfg := cfg.LLMConfig()
	var observer llm.Observer = llm.NoopObserver{}
	if llmCfg.LogCalls {
		observer = llm.NewZapObserver(log.Logger)
	}
	llmClient, err := llm.New(ctx, llmCfg, observer)
	if err != nil {
		return fmt.Errorf("creating llm client: %w", err)
	}

	renderer, err := render.New(c)
	if err != nil {
		return err
	}

	resolver := geo.NewResolver(c.Cities, c.Sky.PopularCities)
	locator := geo.NewIPLocator(client, cfg.Endpoints.IPAPI)

	selector := astro.NewSelector(c,
		astro.NewPlanetsClient(client, cache, cfg.Endpoints.Planets),
		shownRepo,
		weights(cfg.Scoring),
		astro.WithLogger(log.Logger))
	facts := astro.NewFactsProvider(client, cache, cfg.Endpoints.Arcsecond, cfg.Keys.Arcsecond, c.Sky, log.Logger)
	writer := story.NewGenerator(llmClient, c,
		story.WithLogger(log.Logger),
		story.WithLLMFunFacts(cfg.FunFactsLLM))
	images := imagery.NewFetcher(client, cache, c, imagery.Endpoints{
		SkyView:   cfg.Endpoints.SkyView,
		SDSS:      cfg.Endpoints.SDSS,
		Hubble:    cfg.Endpoints.Hubble,
		Wikimedia: cfg.Endpoints.Wikimedia,
		APOD:      cfg.Endpoints.APOD,
		Fallback:  cfg.Endpoints.FallbackImage,
	}, cfg.Keys.NASA, log.Logger)

	// Wire services
	useCases := service.NewZapUseCaseObserver(log.Logger)
	app := &cli.App{
		Config:   cfg,
		Catalog:  c,
		Log:      log,
		Resolver: resolver,
		Locator:  locator,
		Selector: selector,
		Renderer: renderer,
		Cache:    cache,
		Tonight: service.NewTonightService(service.TonightDeps{
			Catalog:  c,
			Parser:   resolver,
			Locator:  locator,
			Selector: selector,
			Facts:    facts,
			Stories:  writer,
			Images:   images,
			Renderer: renderer,
			Log:      log.Logger,
		}, useCases),
		Library:  service.NewLibraryService(storyRepo, uow, renderer, c, useCases),
		Canvases: service.NewCanvasService(canvasRepo, uow, renderer, c, useCases),
		MCP: mcp.NewServer(mcp.Deps{
			Catalog:  c,
			Selector: selector,
			Facts:    facts,
			Prompts:  writer,
			Images:   images,
			Log:      log.Logger,
			Version:  version,
		}),
		Version: version,
	}

	// Detect interactive terminal for the spinner and confirmation forms.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}
	app.Width = func() int {
		n, _ := strconv.Atoi(os.Getenv("COLUMNS"))
		return n
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.ExecuteContext(ctx)
}

func weights(s config.Scoring) astro.Weights {
	return astro.Weights{
		SpecialEvent:   s.SpecialEvent,
		EphemerisStar:  s.EphemerisStar,
		PlanetBonus:    s.PlanetBonus,
		IconicBonus:    s.IconicBonus,
		Novelty:        s.Novelty,
		NoveltyWindow:  time.Duration(s.NoveltyWindowDays) * 24 * time.Hour,
		MinAltitude:    s.MinAltitude,
		EphemerisLimit: s.EphemerisLimit,
	}
}
