package config

import (
	"testing"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfgs     []ValidatableConfig
		wantErrs int
	}{
		{
			name:     "no configs",
			cfgs:     []ValidatableConfig{},
			wantErrs: 0,
		},
		{
			name: "one valid config",
			cfgs: []ValidatableConfig{
				&Shared{Port: 8080},
			},
			wantErrs: 0,
		},
		{
			name: "one invalid config",
			cfgs: []ValidatableConfig{
				&Shared{Port: 0},
			},
			wantErrs: 1,
		},
		{
			name: "connect mode",
			cfgs: []ValidatableConfig{
				&Shared{Host: "localhost", Port: 80},
				&Connect{Retries: 3},
			},
			wantErrs: 0,
		},
		{
			name: "errors of every section are collected",
			cfgs: []ValidatableConfig{
				&Shared{Port: 0, Timeout: -1},
				&Connect{Retries: -1},
				&Listen{Backlog: -1},
			},
			wantErrs: 4,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			errs := Validate(tc.cfgs...)
			if len(errs) != tc.wantErrs {
				t.Errorf("Validate() returned %d errors, want %d: %v", len(errs), tc.wantErrs, errs)
			}
		})
	}
}

func TestValidatePort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		port    int
		wantErr bool
	}{
		{port: -1, wantErr: true},
		{port: 0, wantErr: true},
		{port: 1, wantErr: false},
		{port: 65535, wantErr: false},
		{port: 65536, wantErr: true},
	}

	for _, tc := range tests {
		if err := validatePort(tc.port); (err != nil) != tc.wantErr {
			t.Errorf("validatePort(%d) error = %v, wantErr %v", tc.port, err, tc.wantErr)
		}
	}
}
