package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/glebovdev/bcradio-cli/internal/api"
	"github.com/glebovdev/bcradio-cli/internal/cache"
	"github.com/glebovdev/bcradio-cli/internal/config"
	"github.com/glebovdev/bcradio-cli/internal/player"
	"github.com/glebovdev/bcradio-cli/internal/radio"
	"github.com/glebovdev/bcradio-cli/internal/service"
	"github.com/glebovdev/bcradio-cli/internal/track"
	"github.com/glebovdev/bcradio-cli/internal/ui"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type options struct {
	genre      string
	subgenre   string
	debug      bool
	version    bool
	imageWidth int
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           config.AppName,
		Short:         config.AppTagline,
		Long:          config.AppDescription + "\n\n" + radio.HelpText,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.version {
				fmt.Printf("%s v%s\n", config.AppName, config.AppVersion)
				fmt.Println(config.AppDescription)
				return nil
			}
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.genre, "genre", "g", "", "start with this genre (slug or label)")
	flags.StringVarP(&opts.subgenre, "sub-genre", "s", "", "start with this subgenre of --genre")
	flags.BoolVar(&opts.debug, "debug", false, "write a debug log to the cache directory")
	flags.BoolVar(&opts.version, "version", false, "show version information")
	flags.IntVarP(&opts.imageWidth, "image-width", "i", 0, fmt.Sprintf("artwork width in cells (%d-%d)", config.MinImageWidth, config.MaxImageWidth))

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", config.AppName, err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)

		cacheDir, err := cache.GetCacheDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not get cache dir: %v\n", err)
			cacheDir = os.TempDir()
		}
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create log dir: %v\n", err)
		}
		logPath := filepath.Join(cacheDir, "debug.log")
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create log file: %v\n", err)
			logFile = os.Stderr
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: logFile, TimeFormat: "15:04:05"})
		fmt.Printf("Debug log: %s\n", logPath)
		log.Info().Msgf("Starting %s v%s (debug mode)", config.AppName, config.AppVersion)
		return
	}

	// The terminal belongs to the player: only errors, and only to /dev/null.
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	logFile, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0644)
	if err == nil {
		log.Logger = log.Output(logFile)
	}
}

func loadConfig(opts options) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.DefaultConfig()
	}

	if opts.genre != "" {
		cfg.Genre = opts.genre
		cfg.Subgenre = opts.subgenre
	}
	if opts.imageWidth != 0 {
		cfg.ImageWidth = config.ClampImageWidth(opts.imageWidth)
	}
	return cfg
}

type genreSource interface {
	Genres(ctx context.Context) ([]track.Element, []track.Element, error)
}

// resolveGenre maps a configured genre and subgenre, given by slug or label,
// to slugs. An unknown genre yields empty slugs so the player asks; an
// unknown subgenre falls back to the whole genre.
func resolveGenre(ctx context.Context, src genreSource, genre, subgenre string) (string, string, error) {
	if genre == "" {
		return "", "", nil
	}

	genres, subgenres, err := src.Genres(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to load genres: %w", err)
	}

	g, ok := track.FindElement(genres, genre)
	if !ok {
		log.Warn().Str("genre", genre).Msg("Unknown genre, asking instead")
		return "", "", nil
	}
	if subgenre == "" {
		return g.Slug, "", nil
	}

	sub, ok := track.FindElement(track.SubgenresOf(subgenres, g), subgenre)
	if !ok {
		log.Warn().Str("genre", g.Slug).Str("subgenre", subgenre).Msg("Unknown subgenre, playing the whole genre")
		return g.Slug, "", nil
	}
	return g.Slug, sub.Slug, nil
}

func run(parent context.Context, opts options) (err error) {
	setupLogging(opts.debug)
	cfg := loadConfig(opts)

	tty := ui.NewTTY(os.Stdin)
	if !tty.IsTerminal() {
		return errors.New("standard input is not a terminal")
	}
	defer func() {
		if rerr := tty.Restore(); rerr != nil {
			log.Error().Err(rerr).Msg("Failed to restore terminal")
		}
		if r := recover(); r != nil {
			log.Error().Msgf("Panic: %v", r)
			panic(r)
		}
	}()

	if parent == nil {
		parent = context.Background()
	}
	sigCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	client := api.NewClient()
	catalog := service.NewCatalogService(client)

	cfg.Genre, cfg.Subgenre, err = resolveGenre(ctx, catalog, cfg.Genre, cfg.Subgenre)
	if err != nil {
		return err
	}

	pc := radio.NewPlaybackContext()
	sink := player.NewSpeakerSink()
	defer sink.Stop()

	var engine *radio.Engine
	status := ui.NewStatusBar(os.Stdout, cfg.Theme, pc.Ticking, func() int { return engine.Volume() })
	engine = radio.NewEngine(radio.Deps{
		Context:  pc,
		Fetcher:  client,
		Catalog:  catalog,
		Decoder:  player.NewMP3Decoder(),
		Sink:     sink,
		Prompter: ui.NewUI(cfg),
		Display:  status,
	}, radio.Options{
		LowWaterMark: cfg.LowWaterMark,
		Volume:       cfg.Volume,
		Genre:        cfg.Genre,
		Subgenre:     cfg.Subgenre,
	})

	keys := ui.NewKeyReader(tty, pc, cancel)
	go func() {
		if err := keys.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Keyboard reader stopped")
			cancel()
		}
	}()
	go status.Run(ctx)

	log.Info().Str("genre", cfg.Genre).Str("subgenre", cfg.Subgenre).Int("volume", cfg.Volume).Msg("Starting playback")
	runErr := engine.Run(ctx)
	cancel()
	log.Debug().Stringer("state", engine.State()).Msg("Playback loop returned")

	saveConfig(cfg, engine)

	switch {
	case runErr == nil:
		log.Info().Msgf("%s stopped", config.AppName)
		return nil
	case errors.Is(runErr, context.Canceled):
		return radio.ErrInterrupted
	default:
		return runErr
	}
}

func saveConfig(cfg *config.Config, engine *radio.Engine) {
	cfg.Volume = engine.Volume()
	if genre := engine.Store().Genre(); genre != "" {
		cfg.Genre = genre
		cfg.Subgenre = engine.Store().Subgenre()
	}
	if err := cfg.Save(); err != nil {
		log.Error().Err(err).Msg("Failed to save config")
	}
}
