package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/seapea/draw"
	"github.com/seapea/draw/bitmap"
	"github.com/seapea/draw/config"
)

const shutdownTimeout = 5 * time.Second

var errNoImage = errors.New("no complete drawing has been received")

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}

	image.RegisterFormat("bmp", "BM", bitmap.Decode, bitmap.DecodeConfig)
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if file := c.String("config"); file != "" {
		var err error
		if cfg, err = config.Load(file); err != nil {
			return cfg, err
		}
	}

	if c.IsSet("db") {
		cfg.DB = c.String("db")
	}
	if c.IsSet("listen") {
		cfg.Listen = c.String("listen")
	}
	if c.IsSet("strict") {
		cfg.StrictOrdering = c.Bool("strict")
	}
	if c.IsSet("chunk-size") {
		cfg.ChunkSize = c.Int("chunk-size")
	}
	if c.Bool("verbose") {
		cfg.LogLevel = zerolog.LevelDebugValue
	}

	return cfg, cfg.Validate()
}

func newBridge(c *cli.Context) (*draw.Bridge, config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, cfg, err
	}

	level, err := cfg.Level()
	if err != nil {
		return nil, cfg, err
	}
	log.Logger = log.Logger.Level(level)

	b, err := draw.New(cfg.DB, draw.WithLogger(log.Logger), draw.WithStrictOrdering(cfg.StrictOrdering))
	if err != nil {
		return nil, cfg, err
	}
	return b, cfg, nil
}

// writeOutput writes b to the file named by the first argument, or to
// stdout if there is none or it is "-".
func writeOutput(c *cli.Context, b []byte) error {
	if c.NArg() < 1 || c.Args().First() == "-" {
		_, err := os.Stdout.Write(b)
		return err
	}

	f, err := os.Create(c.Args().First())
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func serve(c *cli.Context) error {
	b, cfg, err := newBridge(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := draw.NewLoop()
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: draw.Handler(b, loop),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return loop.Run(ctx)
	})

	g.Go(func() error {
		log.Info().Str("listen", cfg.Listen).Stringer("status", b.Status()).Msg("serving")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func encodeDrawing(b *draw.Bridge, asPNG bool) ([]byte, error) {
	if !asPNG {
		bmp, ok, err := b.Bitmap()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errNoImage
		}
		return bmp, nil
	}

	m, ok, err := b.Image()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNoImage
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func render(c *cli.Context) error {
	b, _, err := newBridge(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer b.Close()

	out, err := encodeDrawing(b, c.Bool("png"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	if err := writeOutput(c, out); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func importImage(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	b, cfg, err := newBridge(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer b.Close()

	f, err := os.Open(c.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer f.Close()

	m, format, err := image.Decode(f)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	log.Debug().Str("format", format).Stringer("bounds", m.Bounds()).Msg("decoded image")

	if err := b.Import(m, cfg.ChunkSize); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func clearImage(c *cli.Context) error {
	b, _, err := newBridge(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer b.Close()

	if err := b.Clear(); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func showURL(c *cli.Context) error {
	b, _, err := newBridge(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer b.Close()

	u, err := b.ConfigurationURL()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(os.Stdout, u)

	return nil
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)

	app := cli.NewApp()

	app.Name = "draw"
	app.Usage = "Phone side bridge for the Draw watch app"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			EnvVars: []string{"DRAW_CONFIG"},
			Usage:   "path to YAML configuration file",
		},
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"DRAW_DB"},
			Value:   config.DefaultDB,
			Usage:   "path to database",
		},
		&cli.BoolFlag{
			Name:    "strict",
			EnvVars: []string{"DRAW_STRICT"},
			Usage:   "reject chunks that do not follow a first chunk",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:  "serve",
			Usage: "Accept app messages and serve the settings page over HTTP",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "listen",
					EnvVars: []string{"DRAW_LISTEN"},
					Value:   config.DefaultListen,
					Usage:   "address to listen on",
				},
			},
			Action: serve,
		},
		{
			Name:      "render",
			Usage:     "Write the stored drawing as a BMP file",
			ArgsUsage: "[FILE]",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "png",
					Usage: "write PNG instead of BMP",
				},
			},
			Action: render,
		},
		{
			Name:      "import",
			Usage:     "Send an image through the bridge as the watch would",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "chunk-size",
					Value: config.DefaultChunkSize,
					Usage: "bytes of image data per message",
				},
			},
			Action: importImage,
		},
		{
			Name:   "clear",
			Usage:  "Discard the stored drawing",
			Action: clearImage,
		},
		{
			Name:   "url",
			Usage:  "Print the settings page as a data URL",
			Action: showURL,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("")
	}
}
