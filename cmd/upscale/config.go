package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/upscale"
)

// Config is the full set of run settings. It can be read from a TOML file
// and overridden by command-line flags.
type Config struct {
	Input        string   `toml:"input"`
	Output       string   `toml:"output"`
	Sheet        string   `toml:"sheet"`
	Scale        int      `toml:"scale"`
	Mode         string   `toml:"mode"`
	BuildOptions []string `toml:"build_options"`
	Workers      int      `toml:"workers"`
	MaxWidth     int      `toml:"max_width"`
	CPU          bool     `toml:"cpu"`
	LogLevel     string   `toml:"log_level"`
}

func defaultConfig() Config {
	return Config{
		Input:        "input.png",
		Output:       "output.png",
		Scale:        5,
		Mode:         upscale.KernelDynamic.String(),
		BuildOptions: []string{"-Werror"},
		LogLevel:     "warn",
	}
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, " ") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// parseArgs builds the run configuration: defaults, then the file named by
// -config, then every flag given explicitly.
func parseArgs(args []string) (Config, error) {
	fs := flag.NewFlagSet("upscale", flag.ContinueOnError)

	def := defaultConfig()
	var (
		cfgPath  = fs.String("config", "", "TOML config file")
		input    = fs.String("input", def.Input, "source image (png, jpeg, tiff, bmp, webp)")
		output   = fs.String("output", def.Output, "upscaled image (png or tiff keep 16 bits)")
		sheet    = fs.String("sheet", def.Sheet, "optional side-by-side comparison PNG")
		scale    = fs.Int("scale", def.Scale, fmt.Sprintf("integer scale factor (1..%d)", upscale.MaxScale))
		mode     = fs.String("mode", def.Mode, "kernel mode: dynamic or specialized")
		workers  = fs.Int("workers", def.Workers, "software backend workers (0 = GOMAXPROCS)")
		maxWidth = fs.Int("max-width", def.MaxWidth, "reduce sheet panels wider than this (0 = 1:1)")
		cpu      = fs.Bool("cpu", def.CPU, "use the software backend even if a GPU is available")
		logLevel = fs.String("log-level", def.LogLevel, "log level: debug, info, warn, error")
		buildOps stringList
	)
	fs.Var(&buildOps, "D", "kernel define NAME=VALUE (repeatable)")
	werror := fs.Bool("Werror", true, "build kernels with -Werror")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		if err := fs.Set("input", fs.Arg(0)); err != nil {
			return Config{}, err
		}
	}

	cfg := def
	if *cfgPath != "" {
		if err := loadConfigFile(*cfgPath, &cfg); err != nil {
			return Config{}, err
		}
	}

	var overrideOpts bool
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input = *input
		case "output":
			cfg.Output = *output
		case "sheet":
			cfg.Sheet = *sheet
		case "scale":
			cfg.Scale = *scale
		case "mode":
			cfg.Mode = *mode
		case "workers":
			cfg.Workers = *workers
		case "max-width":
			cfg.MaxWidth = *maxWidth
		case "cpu":
			cfg.CPU = *cpu
		case "log-level":
			cfg.LogLevel = *logLevel
		case "D", "Werror":
			overrideOpts = true
		}
	})
	if overrideOpts {
		cfg.BuildOptions = nil
		if *werror {
			cfg.BuildOptions = append(cfg.BuildOptions, "-Werror")
		}
		for _, d := range buildOps {
			cfg.BuildOptions = append(cfg.BuildOptions, "-D"+d)
		}
	}

	return cfg, cfg.validate()
}

// loadConfigFile overlays the TOML file at path onto cfg. Unknown keys are
// an error.
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return fmt.Errorf("config: %s:%d:%d: %w", path, row, col, err)
		}
		return fmt.Errorf("config: %s: %w", path, err)
	}
	return nil
}

func (c Config) validate() error {
	if c.Input == "" {
		return errors.New("config: input is required")
	}
	if c.Output == "" {
		return errors.New("config: output is required")
	}
	if err := upscale.ValidateScale(c.Scale); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := upscale.ParseKernelMode(c.Mode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: log level %q: %w", s, err)
	}
	return l, nil
}
