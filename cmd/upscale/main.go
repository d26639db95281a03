// Command upscale enlarges a 16-bit grayscale image by an integer factor
// with bilinear sampling, on the GPU when one is available.
//
// Usage:
//
//	upscale -scale 5 -output car_x5.png -sheet compare.png input_car.png
//	upscale -config upscale.toml -mode specialized -D SCALE=5
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/upscale"
	_ "github.com/gogpu/upscale/gpu" // enable GPU upscaling
	"github.com/gogpu/upscale/internal/imageio"
	"github.com/gogpu/upscale/internal/present"
)

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		reportError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, out io.Writer) error {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	upscale.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	mode, err := upscale.ParseKernelMode(cfg.Mode)
	if err != nil {
		return err
	}

	src, kind, err := imageio.Load(cfg.Input)
	if err != nil {
		return err
	}

	opts := []upscale.Option{
		upscale.WithKernelMode(mode),
		upscale.WithBuildOptions(cfg.BuildOptions...),
		upscale.WithWorkers(cfg.Workers),
	}
	if cfg.CPU {
		sb := upscale.NewSoftwareBackend(cfg.Workers)
		defer sb.Close()
		opts = append(opts, upscale.WithBackend(sb))
	}
	r := upscale.New(opts...)
	defer r.Close()

	start := time.Now()
	dst, err := r.Upscale(ctx, src, cfg.Scale)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := imageio.Save(dst, cfg.Output); err != nil {
		return err
	}
	if cfg.Sheet != "" {
		sheet, err := present.Compare(src, dst, cfg.Scale, present.Options{MaxWidth: cfg.MaxWidth})
		if err != nil {
			return err
		}
		if err := imageio.Save(upscale.GridFromImage(sheet), cfg.Sheet); err != nil {
			return err
		}
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(out, "%s (%s, %d×%d, %d samples)\n", cfg.Input, kind, src.Cols, src.Rows, len(src.Pix))
	p.Fprintf(out, "%s (%d×%d, %d samples), scale %d, %s kernel on %s in %v\n",
		cfg.Output, dst.Cols, dst.Rows, len(dst.Pix), cfg.Scale, mode, r.Backend().Name(), elapsed.Round(time.Microsecond))
	if cfg.Sheet != "" {
		p.Fprintf(out, "comparison sheet: %s\n", cfg.Sheet)
	}
	return nil
}

// reportError prints err, followed by the kernel build log when the kernel
// failed to compile.
func reportError(w io.Writer, err error) {
	var ce *upscale.CompileError
	if errors.As(err, &ce) {
		fmt.Fprintf(w, "upscale: kernel build failed on %s\n", ce.Device)
		fmt.Fprintln(w, "Build log:")
		fmt.Fprintln(w, ce.Log)
		return
	}
	fmt.Fprintf(w, "upscale: %v\n", err)
}
