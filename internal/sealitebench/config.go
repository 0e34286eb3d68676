package sealitebench

import (
	"fmt"
	"log"
	"log/slog"

	"github.com/alexflint/go-arg"
	"github.com/sealite/sealite/internal/version"
)

// config represents the configuration for the benchmark.
type config struct {
	Dir      string `arg:"--dir,env:SEALITE_BENCH_DIR" help:"Directory for the benchmark databases, a temporary one if empty"`
	Quick    bool   `arg:"--quick" help:"Run a small workload, to smoke test a build"`
	LogLevel string `arg:"--log-level,env:SEALITE_LOG_LEVEL" help:"Log level of the JSON logs written to stderr (debug, info, warn, error)" default:"error"`
}

func (config) Version() string {
	return fmt.Sprintf("%s\n", version.BenchVersion())
}

// mustParseConfig parses the command line arguments or exits the program
// with an error.
func mustParseConfig(args []string) config {
	cfg := config{}

	parser, err := arg.NewParser(arg.Config{}, &cfg)
	if err != nil {
		log.Fatal(err)
	}
	parser.MustParse(args[1:])

	if _, err := cfg.slogLevel(); err != nil {
		parser.Fail(err.Error())
	}

	return cfg
}

func (c config) slogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q, valid values are: debug, info, warn, error", c.LogLevel)
	}
	return level, nil
}

func (c config) benchmarks() benchmarksConfig {
	if c.Quick {
		return getQuickConfig()
	}
	return getDefaultConfig()
}
