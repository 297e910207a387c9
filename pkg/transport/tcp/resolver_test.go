package tcp

import (
	"testing"
)

func TestResolver_Literals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		host    string
		want    uint32
		wantErr bool
	}{
		{name: "empty is loopback", host: "", want: 0x7f000001},
		{name: "dotted quad", host: "10.1.2.3", want: 0x0a010203},
		{name: "wildcard", host: "0.0.0.0", want: 0},
		{name: "ipv4 mapped", host: "::ffff:192.168.0.1", want: 0xc0a80001},
		{name: "ipv6", host: "::1", wantErr: true},
	}

	r := NewResolver()
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.ResolveIPv4(tc.host)
			if tc.wantErr {
				if err == nil {
					t.Errorf("ResolveIPv4(%q) = %#x, want error", tc.host, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveIPv4(%q): %v", tc.host, err)
			}
			if got != tc.want {
				t.Errorf("ResolveIPv4(%q) = %#x, want %#x", tc.host, got, tc.want)
			}
		})
	}
}

func TestResolver_Localhost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping resolver lookup in short mode")
	}
	t.Parallel()

	got, err := NewResolver().ResolveIPv4("localhost")
	if err != nil {
		t.Fatalf("ResolveIPv4(localhost): %v", err)
	}
	if got>>24 != 127 {
		t.Errorf("ResolveIPv4(localhost) = %#x, want 127.x.x.x", got)
	}
}
