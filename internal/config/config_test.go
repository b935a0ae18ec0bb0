package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tlsinterop/tlsinterop/internal/model"
)

func TestLoadAndResolve(t *testing.T) {
	t.Run("with a JSON file with comments", func(t *testing.T) {
		file, err := Load(filepath.Join("testdata", "interop.jsonc"))
		if err != nil {
			t.Fatal(err)
		}
		config, err := Resolve(file, &Filters{})
		if err != nil {
			t.Fatal(err)
		}
		expect := &Config{
			EnabledTests: []model.TestCase{model.Handshake, model.Greeting, model.MutualAuthRequestResponse},
			Servers: []model.Variant{{
				Name:    "stdtls",
				Index:   0,
				Program: "tlsshim",
				Args:    []string{"server", "stdtls"},
			}, {
				Name:    "mint",
				Index:   1,
				Program: "tlsshim",
				Args:    []string{"server", "mint"},
			}},
			Clients: []model.Variant{{
				Name:    "java",
				Index:   0,
				Program: "java",
				Args:    []string{"-cp", "/opt/interop dir", "SSLSocketClient"},
				Env:     []string{"JAVA_HOME=/opt/jdk"},
			}},
			PortStart:    9500,
			PortEnd:      9599,
			Timeout:      30 * time.Second,
			StartupDelay: DefaultStartupDelay,
			Parallelism:  DefaultParallelism(),
			LogsDir:      DefaultLogsDir,
			ResultsFile:  filepath.Join(DefaultLogsDir, "results.json"),
		}
		if diff := cmp.Diff(expect, config); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("with a TOML file", func(t *testing.T) {
		file, err := Load(filepath.Join("testdata", "interop.toml"))
		if err != nil {
			t.Fatal(err)
		}
		config, err := Resolve(file, &Filters{})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]model.TestCase{model.LargeDataDownload}, config.EnabledTests); diff != "" {
			t.Fatal(diff)
		}
		if config.Parallelism != 2 {
			t.Fatal("unexpected parallelism", config.Parallelism)
		}
		if config.StartupDelay != 250*time.Millisecond {
			t.Fatal("unexpected startup delay", config.StartupDelay)
		}
		if config.ResultsFile != filepath.Join("/tmp/interop", "results.json") {
			t.Fatal("unexpected results file", config.ResultsFile)
		}
		if diff := cmp.Diff([]string{"TLSINTEROP_LARGE_DATA_GB=1"}, config.Clients[0].Env); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("with an unknown test case", func(t *testing.T) {
		file, err := Load(filepath.Join("testdata", "unknowntest.jsonc"))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := Resolve(file, &Filters{}); !errors.Is(err, ErrUnknownTestCase) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("with an unknown TOML key", func(t *testing.T) {
		if _, err := Load(filepath.Join("testdata", "unknownkey.toml")); !errors.Is(err, ErrInvalidValue) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("with an unsupported extension", func(t *testing.T) {
		if _, err := Load("interop.yaml"); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("with a missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join("testdata", "nonexistent.json")); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestDefault(t *testing.T) {
	config, err := Resolve(Default("/opt/tls interop/tlsshim"), &Filters{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(model.AllTestCases(), config.EnabledTests); diff != "" {
		t.Fatal(diff)
	}
	var names []string
	for _, v := range config.Servers {
		names = append(names, v.Name)
		if v.Program != "/opt/tls interop/tlsshim" {
			t.Fatal("unexpected program", v.Program)
		}
		if v.Args[0] != "server" {
			t.Fatal("unexpected args", v.Args)
		}
	}
	for _, v := range config.Clients {
		names = append(names, v.Name)
		if v.Args[0] != "client" {
			t.Fatal("unexpected args", v.Args)
		}
	}
	if diff := cmp.Diff([]string{"stdtls", "ootls", "mint", "stdtls", "ootls", "utls", "mint"}, names); diff != "" {
		t.Fatal(diff)
	}
	if config.PortStart != DefaultPortStart || config.PortEnd != DefaultPortEnd {
		t.Fatal("unexpected port range", config.PortStart, config.PortEnd)
	}
	if config.Timeout != DefaultTimeout {
		t.Fatal("unexpected timeout", config.Timeout)
	}
	if config.Parallelism < 1 {
		t.Fatal("unexpected parallelism", config.Parallelism)
	}
}

func TestResolveFilters(t *testing.T) {
	file := Default("tlsshim")

	t.Run("we keep the declaration order index", func(t *testing.T) {
		config, err := Resolve(file, &Filters{
			Tests:   []string{"session_resumption", "handshake"},
			Servers: []string{"mint"},
			Clients: []string{"utls", "stdtls"},
		})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]model.TestCase{model.Handshake, model.SessionResumption}, config.EnabledTests); diff != "" {
			t.Fatal(diff)
		}
		if len(config.Servers) != 1 || config.Servers[0].Index != 2 {
			t.Fatal("unexpected servers", config.Servers)
		}
		if len(config.Clients) != 2 || config.Clients[0].Name != "stdtls" || config.Clients[1].Index != 2 {
			t.Fatal("unexpected clients", config.Clients)
		}
	})

	t.Run("with an unknown test filter", func(t *testing.T) {
		if _, err := Resolve(file, &Filters{Tests: []string{"zero_rtt"}}); !errors.Is(err, ErrUnknownTestCase) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("with a test filter matching no enabled test case", func(t *testing.T) {
		file := Default("tlsshim")
		file.EnabledTests = []string{"handshake", "greeting"}
		if _, err := Resolve(file, &Filters{Tests: []string{"session_resumption"}}); !errors.Is(err, ErrInvalidValue) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("with an unknown variant filter", func(t *testing.T) {
		if _, err := Resolve(file, &Filters{Clients: []string{"boringssl"}}); !errors.Is(err, ErrUnknownVariant) {
			t.Fatal("unexpected error", err)
		}
	})
}

func TestResolveValidation(t *testing.T) {
	server := VariantEntry{Name: "s", Command: "tlsshim server stdtls"}
	client := VariantEntry{Name: "c", Command: "tlsshim client stdtls"}

	type testcase struct {
		name   string
		file   *File
		expect error
	}

	cases := []testcase{{
		name: "duplicate test case",
		file: &File{
			EnabledTests: []string{"greeting", "greeting"},
			Servers:      []VariantEntry{server},
			Clients:      []VariantEntry{client},
		},
		expect: ErrDuplicateEntry,
	}, {
		name: "duplicate variant",
		file: &File{
			Servers: []VariantEntry{server, server},
			Clients: []VariantEntry{client},
		},
		expect: ErrDuplicateEntry,
	}, {
		name: "variant without name",
		file: &File{
			Servers: []VariantEntry{{Command: "tlsshim"}},
			Clients: []VariantEntry{client},
		},
		expect: ErrInvalidVariant,
	}, {
		name: "variant without command",
		file: &File{
			Servers: []VariantEntry{{Name: "s"}},
			Clients: []VariantEntry{client},
		},
		expect: ErrInvalidVariant,
	}, {
		name: "malformed env",
		file: &File{
			Servers: []VariantEntry{{Name: "s", Command: "x", Env: []string{"NOEQUALS"}}},
			Clients: []VariantEntry{client},
		},
		expect: ErrInvalidVariant,
	}, {
		name: "no clients",
		file: &File{
			Servers: []VariantEntry{server},
		},
		expect: ErrInvalidValue,
	}, {
		name: "inverted port range",
		file: &File{
			Servers:   []VariantEntry{server},
			Clients:   []VariantEntry{client},
			PortStart: 9100,
			PortEnd:   9001,
		},
		expect: ErrInvalidValue,
	}, {
		name: "bad timeout",
		file: &File{
			Servers: []VariantEntry{server},
			Clients: []VariantEntry{client},
			Timeout: "seven minutes",
		},
		expect: ErrInvalidValue,
	}, {
		name: "negative parallelism",
		file: &File{
			Servers:     []VariantEntry{server},
			Clients:     []VariantEntry{client},
			Parallelism: -1,
		},
		expect: ErrInvalidValue,
	}}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config, err := Resolve(tc.file, &Filters{})
			if !errors.Is(err, tc.expect) {
				t.Fatal("unexpected error", err)
			}
			if config != nil {
				t.Fatal("expected nil config")
			}
		})
	}
}
