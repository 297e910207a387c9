package config

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"dominicbreuker/gosock/pkg/log"
	"dominicbreuker/gosock/pkg/transport/tcp"
)

func TestShared_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *Shared
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     &Shared{Host: "localhost", Port: 8080},
			wantErr: false,
		},
		{
			name:    "valid config with timeout",
			cfg:     &Shared{Host: "localhost", Port: 8080, Timeout: 2 * time.Second},
			wantErr: false,
		},
		{
			name:    "invalid: port too low",
			cfg:     &Shared{Host: "localhost", Port: 0},
			wantErr: true,
		},
		{
			name:    "invalid: port too high",
			cfg:     &Shared{Host: "localhost", Port: 65536},
			wantErr: true,
		},
		{
			name:    "invalid: negative timeout",
			cfg:     &Shared{Host: "localhost", Port: 80, Timeout: -time.Second},
			wantErr: true,
		},
		{
			name:    "valid: port 1",
			cfg:     &Shared{Port: 1},
			wantErr: false,
		},
		{
			name:    "valid: port 65535",
			cfg:     &Shared{Port: 65535},
			wantErr: false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			errs := tc.cfg.Validate()
			if (len(errs) > 0) != tc.wantErr {
				t.Errorf("Shared.Validate() errors = %v, wantErr %v", errs, tc.wantErr)
			}
		})
	}
}

func TestListen_Validate(t *testing.T) {
	t.Parallel()

	if errs := (&Listen{Backlog: -1}).Validate(); len(errs) != 1 {
		t.Errorf("Listen{-1}.Validate() = %v, want 1 error", errs)
	}
	if errs := (&Listen{Backlog: 5}).Validate(); len(errs) != 0 {
		t.Errorf("Listen{5}.Validate() = %v, want none", errs)
	}
}

func TestListen_GetBacklog(t *testing.T) {
	t.Parallel()

	if got := (&Listen{}).GetBacklog(); got != DefaultBacklog {
		t.Errorf("GetBacklog() = %d, want %d", got, DefaultBacklog)
	}
	if got := (&Listen{Backlog: 3}).GetBacklog(); got != 3 {
		t.Errorf("GetBacklog() = %d, want 3", got)
	}
}

func TestGetProvider(t *testing.T) {
	t.Parallel()

	if p := GetProvider(nil); p != tcp.Default() {
		t.Errorf("GetProvider(nil) = %v, want default provider", p)
	}

	custom := &tcp.Provider{}
	if p := GetProvider(&Dependencies{Provider: custom}); p != custom {
		t.Errorf("GetProvider() did not return the injected provider")
	}
}

func TestGetResolver(t *testing.T) {
	t.Parallel()

	if _, ok := GetResolver(nil).(*tcp.Resolver); !ok {
		t.Errorf("GetResolver(nil) should return a *tcp.Resolver")
	}

	custom := &tcp.Resolver{Timeout: time.Second}
	if r := GetResolver(&Dependencies{Resolver: custom}); r != custom {
		t.Errorf("GetResolver() did not return the injected resolver")
	}
}

func TestGetLogger(t *testing.T) {
	t.Parallel()

	if l := GetLogger(nil); l != nil {
		t.Errorf("GetLogger(nil) = %v, want nil", l)
	}
	logger := log.NewLoggerTo(io.Discard, true)
	if l := GetLogger(&Dependencies{Logger: logger}); l != logger {
		t.Errorf("GetLogger() did not return the injected logger")
	}
}

func TestGetStdioFuncs(t *testing.T) {
	t.Parallel()

	if r := GetStdinFunc(nil)(); r != os.Stdin {
		t.Errorf("GetStdinFunc(nil)() should return os.Stdin")
	}
	if w := GetStdoutFunc(nil)(); w != os.Stdout {
		t.Errorf("GetStdoutFunc(nil)() should return os.Stdout")
	}

	in := strings.NewReader("input")
	out := &bytes.Buffer{}
	deps := &Dependencies{
		Stdin:  func() io.Reader { return in },
		Stdout: func() io.Writer { return out },
	}
	if r := GetStdinFunc(deps)(); r != in {
		t.Errorf("GetStdinFunc() did not return the injected reader")
	}
	if w := GetStdoutFunc(deps)(); w != out {
		t.Errorf("GetStdoutFunc() did not return the injected writer")
	}
}

func TestConnect_Validate(t *testing.T) {
	t.Parallel()

	if errs := (&Connect{Retries: -1}).Validate(); len(errs) != 1 {
		t.Errorf("Connect{-1}.Validate() = %v, want 1 error", errs)
	}
	if errs := (&Connect{Retries: 3}).Validate(); len(errs) != 0 {
		t.Errorf("Connect{3}.Validate() = %v, want none", errs)
	}
}

func TestConnect_GetRetryInterval(t *testing.T) {
	t.Parallel()

	if got := (&Connect{}).GetRetryInterval(); got != DefaultRetryInterval {
		t.Errorf("GetRetryInterval() = %v, want %v", got, DefaultRetryInterval)
	}
	if got := (&Connect{RetryInterval: time.Second}).GetRetryInterval(); got != time.Second {
		t.Errorf("GetRetryInterval() = %v, want 1s", got)
	}
}

func TestShared_GetDeps(t *testing.T) {
	t.Parallel()

	logger := log.NewLoggerTo(io.Discard, false)
	other := log.NewLoggerTo(io.Discard, true)
	resolver := &tcp.Resolver{}

	tests := []struct {
		name       string
		cfg        *Shared
		wantLogger *log.Logger
	}{
		{"no deps", &Shared{Logger: logger}, logger},
		{"deps without logger", &Shared{Logger: logger, Deps: &Dependencies{Resolver: resolver}}, logger},
		{"deps with logger", &Shared{Logger: logger, Deps: &Dependencies{Logger: other}}, other},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			deps := tc.cfg.GetDeps()
			if deps.Logger != tc.wantLogger {
				t.Errorf("GetDeps().Logger = %p, want %p", deps.Logger, tc.wantLogger)
			}
			if tc.cfg.Deps != nil && deps == tc.cfg.Deps {
				t.Error("GetDeps() returned the configured struct instead of a copy")
			}
			if tc.cfg.Deps != nil && tc.cfg.Deps.Resolver != deps.Resolver {
				t.Error("GetDeps() dropped the resolver")
			}
		})
	}
}
