// Command fizz parses a Docker-Compose-style YAML file and reports
// diagnostics, exiting non-zero on parse errors or malformed YAML.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/jkingston/fizz/compose"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("fizz", pflag.ContinueOnError)
	envFile := flags.String("env-file", "", "path to a .env file providing interpolation variables")
	strict := flags.Bool("strict", false, "warn on unrecognized restart policies and x- extension keys")
	quiet := flags.Bool("quiet", false, "suppress operational logging; diagnostics are still printed")

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: fizz [flags] <compose-file>")
		return 2
	}
	path := flags.Arg(0)

	logger := newLogger(*quiet)
	defer logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("failed to read input file", zap.String("path", path), zap.Error(err))
		return 1
	}

	env := map[string]string{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	if *envFile != "" {
		if err := loadEnvFile(*envFile, env); err != nil {
			logger.Error("failed to read env file", zap.String("path", *envFile), zap.Error(err))
			return 1
		}
	}

	opts := compose.Options{
		WarnOnExtensionKeys: *strict,
		StrictRestart:       *strict,
	}

	start := time.Now()
	file, diags, err := compose.ParseWithOptions(data, env, opts)
	elapsed := time.Since(start)

	if err != nil {
		logger.Error("yaml parse failed", zap.String("path", path), zap.Error(err))
		diags.WriteAll(path, os.Stderr)
		return 1
	}

	logger.Info("parsed compose file",
		zap.String("path", path),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", elapsed),
		zap.Int("diagnostics", diags.Count()),
		zap.Int("dropped_diagnostics", diags.DroppedCount()),
	)

	if err := diags.WriteAll(path, os.Stderr); err != nil {
		logger.Error("failed to write diagnostics", zap.Error(err))
		return 1
	}

	if file == nil {
		return 1
	}

	logger.Info("services discovered",
		zap.String("path", path),
		zap.Int("service_count", file.Services.Len()),
		zap.Int("volume_count", file.Volumes.Len()),
		zap.Int("network_count", file.Networks.Len()),
	)
	return 0
}

func newLogger(quiet bool) *zap.Logger {
	if quiet {
		return zap.NewNop()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// loadEnvFile parses a minimal "KEY=VALUE" per line .env file into dst,
// ignoring blank lines and lines starting with "#".
func loadEnvFile(path string, dst map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		dst[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return nil
}
