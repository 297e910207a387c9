package log

import (
	"bytes"
	"os"
	"testing"
)

func TestErrorMsg(t *testing.T) {
	// Capture stderr
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	ErrorMsg("test error: %s", "something")

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	output := buf.String()

	if output == "" {
		t.Error("ErrorMsg() produced no output")
	}
	if !bytes.Contains([]byte(output), []byte("test error")) {
		t.Errorf("ErrorMsg() output does not contain expected text: %q", output)
	}
}

func TestInfoMsg(t *testing.T) {
	// Capture stderr
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	InfoMsg("test info: %s", "something")

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	output := buf.String()

	if output == "" {
		t.Error("InfoMsg() produced no output")
	}
	if !bytes.Contains([]byte(output), []byte("test info")) {
		t.Errorf("InfoMsg() output does not contain expected text: %q", output)
	}
}

func TestLogger_Verbose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		verbose bool
		want    bool
	}{
		{name: "verbose enabled", verbose: true, want: true},
		{name: "verbose disabled", verbose: false, want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			l := NewLoggerTo(&buf, tc.verbose)

			l.VerboseMsg("binding %s", "127.0.0.1:0")
			got := bytes.Contains(buf.Bytes(), []byte("binding 127.0.0.1:0"))
			if got != tc.want {
				t.Errorf("VerboseMsg() output present = %v, want %v (%q)", got, tc.want, buf.String())
			}
			if l.Verbose() != tc.verbose {
				t.Errorf("Verbose() = %v, want %v", l.Verbose(), tc.verbose)
			}
		})
	}
}

func TestLogger_InfoAndError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewLoggerTo(&buf, false)
	l.InfoMsg("listening on %d\n", 8080)
	l.ErrorMsg("accept: %s\n", "boom")

	out := buf.String()
	if !bytes.Contains([]byte(out), []byte("listening on 8080")) {
		t.Errorf("InfoMsg() output missing: %q", out)
	}
	if !bytes.Contains([]byte(out), []byte("accept: boom")) {
		t.Errorf("ErrorMsg() output missing: %q", out)
	}
}

func TestLogger_Nil(t *testing.T) {
	t.Parallel()

	var l *Logger
	l.InfoMsg("ignored")
	l.ErrorMsg("ignored")
	l.VerboseMsg("ignored")
	if l.Verbose() {
		t.Error("nil Logger reports verbose")
	}
}
