// Package config loads and validates the runner configuration.
//
// The configuration is either a JSON file with comments (extension .json,
// .jsonc or .hujson) or a TOML file (extension .toml). Without a file we
// use [Default], which runs the bundled tlsshim backends against each other.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tlsinterop/tlsinterop/internal/hujsonx"
	"github.com/tlsinterop/tlsinterop/internal/model"
	"github.com/tlsinterop/tlsinterop/internal/shellx"
)

// VariantEntry describes a server or client variant in the file.
type VariantEntry struct {
	// Name is the MANDATORY unique name of the variant.
	Name string `json:"name" toml:"name"`

	// Command is the MANDATORY command line prefix. The runner appends the
	// test case name and the port to it.
	Command string `json:"command" toml:"command"`

	// Env contains OPTIONAL KEY=VALUE environment entries.
	Env []string `json:"env" toml:"env"`
}

// File is the on-disk configuration. Durations use the syntax accepted
// by time.ParseDuration. Zero values select the defaults.
type File struct {
	EnabledTests []string       `json:"enabled_tests" toml:"enabled_tests"`
	Servers      []VariantEntry `json:"servers" toml:"servers"`
	Clients      []VariantEntry `json:"clients" toml:"clients"`
	PortStart    uint16         `json:"port_start" toml:"port_start"`
	PortEnd      uint16         `json:"port_end" toml:"port_end"`
	Timeout      string         `json:"timeout" toml:"timeout"`
	StartupDelay string         `json:"startup_delay" toml:"startup_delay"`
	Parallelism  int            `json:"parallelism" toml:"parallelism"`
	LogsDir      string         `json:"logs_dir" toml:"logs_dir"`
	ResultsFile  string         `json:"results_file" toml:"results_file"`
}

const (
	// DefaultPortStart is the first port assigned to scenarios.
	DefaultPortStart = 9001

	// DefaultPortEnd is the last port that may be assigned to scenarios.
	DefaultPortEnd = 9100

	// DefaultTimeout is the time budget of each scenario.
	DefaultTimeout = 7 * time.Minute

	// DefaultStartupDelay is the time we wait after starting the server.
	DefaultStartupDelay = time.Second

	// DefaultLogsDir is the directory containing the per-process logs.
	DefaultLogsDir = "interop_logs"
)

// Config is the validated configuration.
type Config struct {
	EnabledTests []model.TestCase
	Servers      []model.Variant
	Clients      []model.Variant
	PortStart    uint16
	PortEnd      uint16
	Timeout      time.Duration
	StartupDelay time.Duration
	Parallelism  int
	LogsDir      string
	ResultsFile  string
}

// Filters restricts the catalogue to the named entries. Empty slices
// mean no restriction.
type Filters struct {
	Tests   []string
	Servers []string
	Clients []string
}

var (
	// ErrUnknownTestCase is the error returned for test case names that do
	// not belong to the closed enumeration. It is the same error value
	// as [model.ErrUnknownTestCase].
	ErrUnknownTestCase = model.ErrUnknownTestCase

	// ErrUnknownVariant indicates a filter naming a variant that does not exist.
	ErrUnknownVariant = errors.New("unknown variant")

	// ErrDuplicateEntry indicates a test case or variant listed twice.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidVariant indicates a variant without name or command.
	ErrInvalidVariant = errors.New("invalid variant")

	// ErrInvalidValue indicates an out of range value.
	ErrInvalidValue = errors.New("invalid value")

	// ErrUnsupportedFormat indicates a file extension we cannot parse.
	ErrUnsupportedFormat = errors.New("unsupported configuration format")
)

// Load reads the configuration file at path.
func Load(path string) (*File, error) {
	var file File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", ".jsonc", ".hujson":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := hujsonx.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case ".toml":
		meta, err := toml.DecodeFile(path, &file)
		if err != nil {
			return nil, err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%s: %w: unknown keys %v", path, ErrInvalidValue, undecoded)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return &file, nil
}

// ShimPath returns the path of the tlsshim binary that lives next to
// the running executable.
func ShimPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	name := "tlsshim"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(exe), name), nil
}

// Default returns the configuration that runs the bundled backends
// implemented by the tlsshim binary at shimPath.
func Default(shimPath string) *File {
	quoted := strconv.Quote(shimPath)
	entry := func(role model.Role, backend string) VariantEntry {
		return VariantEntry{
			Name:    backend,
			Command: fmt.Sprintf("%s %s %s", quoted, role, backend),
		}
	}
	return &File{
		Servers: []VariantEntry{
			entry(model.RoleServer, "stdtls"),
			entry(model.RoleServer, "ootls"),
			entry(model.RoleServer, "mint"),
		},
		Clients: []VariantEntry{
			entry(model.RoleClient, "stdtls"),
			entry(model.RoleClient, "ootls"),
			entry(model.RoleClient, "utls"),
			entry(model.RoleClient, "mint"),
		},
	}
}

// DefaultParallelism returns half the number of CPUs, but at least one,
// since every scenario runs two processes.
func DefaultParallelism() int {
	return max(1, runtime.NumCPU()/2)
}

// Resolve validates the file, applies the defaults and the filters, and
// returns the resulting [Config].
func Resolve(file *File, filters *Filters) (*Config, error) {
	config := &Config{
		PortStart:   file.PortStart,
		PortEnd:     file.PortEnd,
		Parallelism: file.Parallelism,
		LogsDir:     file.LogsDir,
		ResultsFile: file.ResultsFile,
	}

	tests, err := parseTestCases(file.EnabledTests)
	if err != nil {
		return nil, err
	}
	if config.EnabledTests, err = filterTestCases(tests, filters.Tests); err != nil {
		return nil, err
	}
	if len(config.EnabledTests) <= 0 {
		return nil, fmt.Errorf("%w: --test selects none of the enabled test cases", ErrInvalidValue)
	}

	servers, err := parseVariants("server", file.Servers)
	if err != nil {
		return nil, err
	}
	if config.Servers, err = filterVariants("server", servers, filters.Servers); err != nil {
		return nil, err
	}
	clients, err := parseVariants("client", file.Clients)
	if err != nil {
		return nil, err
	}
	if config.Clients, err = filterVariants("client", clients, filters.Clients); err != nil {
		return nil, err
	}

	if len(config.Servers) <= 0 || len(config.Clients) <= 0 {
		return nil, fmt.Errorf("%w: need at least one server and one client", ErrInvalidValue)
	}

	if config.PortStart == 0 {
		config.PortStart = DefaultPortStart
	}
	if config.PortEnd == 0 {
		// keep the width of the default range
		config.PortEnd = uint16(min(int(config.PortStart)+DefaultPortEnd-DefaultPortStart, math.MaxUint16))
	}
	if config.PortStart > config.PortEnd {
		return nil, fmt.Errorf("%w: port_start %d > port_end %d", ErrInvalidValue, config.PortStart, config.PortEnd)
	}

	if config.Timeout, err = parseDuration("timeout", file.Timeout, DefaultTimeout); err != nil {
		return nil, err
	}
	if config.StartupDelay, err = parseDuration("startup_delay", file.StartupDelay, DefaultStartupDelay); err != nil {
		return nil, err
	}
	if config.Timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be positive", ErrInvalidValue)
	}

	switch {
	case config.Parallelism < 0:
		return nil, fmt.Errorf("%w: parallelism must be positive", ErrInvalidValue)
	case config.Parallelism == 0:
		config.Parallelism = DefaultParallelism()
	}

	if config.LogsDir == "" {
		config.LogsDir = DefaultLogsDir
	}
	if config.ResultsFile == "" {
		config.ResultsFile = filepath.Join(config.LogsDir, "results.json")
	}
	return config, nil
}

func parseTestCases(names []string) ([]model.TestCase, error) {
	if len(names) <= 0 {
		return model.AllTestCases(), nil
	}
	seen := make(map[model.TestCase]bool)
	var out []model.TestCase
	for _, name := range names {
		tc, err := model.ParseTestCase(name)
		if err != nil {
			return nil, fmt.Errorf("enabled_tests: %w", err)
		}
		if seen[tc] {
			return nil, fmt.Errorf("enabled_tests: %w: %q", ErrDuplicateEntry, name)
		}
		seen[tc] = true
		out = append(out, tc)
	}
	return out, nil
}

func filterTestCases(tests []model.TestCase, names []string) ([]model.TestCase, error) {
	if len(names) <= 0 {
		return tests, nil
	}
	wanted := make(map[model.TestCase]bool)
	for _, name := range names {
		tc, err := model.ParseTestCase(name)
		if err != nil {
			return nil, fmt.Errorf("--test: %w", err)
		}
		wanted[tc] = true
	}
	var out []model.TestCase
	for _, tc := range tests {
		if wanted[tc] {
			out = append(out, tc)
		}
	}
	return out, nil
}

func parseVariants(role string, entries []VariantEntry) ([]model.Variant, error) {
	seen := make(map[string]bool)
	var out []model.Variant
	for idx, entry := range entries {
		if entry.Name == "" {
			return nil, fmt.Errorf("%w: %s #%d has no name", ErrInvalidVariant, role, idx)
		}
		if seen[entry.Name] {
			return nil, fmt.Errorf("%w: %s %q", ErrDuplicateEntry, role, entry.Name)
		}
		seen[entry.Name] = true
		program, args, err := shellx.SplitCommandLine(entry.Command)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q: %s", ErrInvalidVariant, role, entry.Name, err.Error())
		}
		for _, env := range entry.Env {
			if !strings.Contains(env, "=") {
				return nil, fmt.Errorf("%w: %s %q: malformed env entry %q", ErrInvalidVariant, role, entry.Name, env)
			}
		}
		out = append(out, model.Variant{
			Name:    entry.Name,
			Index:   idx,
			Program: program,
			Args:    args,
			Env:     entry.Env,
		})
	}
	return out, nil
}

func filterVariants(role string, variants []model.Variant, names []string) ([]model.Variant, error) {
	if len(names) <= 0 {
		return variants, nil
	}
	wanted := make(map[string]bool)
	for _, name := range names {
		wanted[name] = true
	}
	var out []model.Variant
	for _, v := range variants {
		if wanted[v.Name] {
			out = append(out, v)
			delete(wanted, v.Name)
		}
	}
	for name := range wanted {
		return nil, fmt.Errorf("%w: %s %q", ErrUnknownVariant, role, name)
	}
	return out, nil
}

func parseDuration(field, value string, defaultValue time.Duration) (time.Duration, error) {
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %s", ErrInvalidValue, field, err.Error())
	}
	return d, nil
}
