package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chceswieta/kompilator/pkg/asm"
	"github.com/chceswieta/kompilator/pkg/vm"
)

const doubler = `DECLARE
  n
BEGIN
  READ n;
  n := n * 2;
  WRITE n;
END
`

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckUsage(t *testing.T) {
	tests := []struct {
		name    string
		inputs  []string
		out     string
		run     bool
		runBin  string
		watch   bool
		wantErr string
	}{
		{"compile one", []string{"a.imp"}, "", false, "", false, ""},
		{"compile many", []string{"a.imp", "b.imp"}, "", false, "", false, ""},
		{"run one", []string{"a.imp"}, "a.mr", true, "", false, ""},
		{"run listing", nil, "", false, "a.mr", false, ""},
		{"watch", []string{"a.imp", "b.imp"}, "", false, "", true, ""},
		{"nothing", nil, "", false, "", false, "nothing to do"},
		{"run and run-bin", []string{"a.imp"}, "", true, "a.mr", false, "not both"},
		{"out with many", []string{"a.imp", "b.imp"}, "x.mr", false, "", false, "-out"},
		{"run many", []string{"a.imp", "b.imp"}, "", true, "", false, "-run needs"},
		{"watch and run", []string{"a.imp"}, "", true, "", true, "-watch"},
		{"watch nothing", nil, "", false, "", true, "-watch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkUsage(tt.inputs, tt.out, tt.run, tt.runBin, tt.watch)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestOutputFor(t *testing.T) {
	if got := outputFor("dir/prog.imp", "", ".mr"); got != filepath.Join("dir", "prog.mr") && got != "dir/prog.mr" {
		t.Errorf("default output: got %q", got)
	}
	if got := outputFor("dir/prog.imp", "custom.txt", ".mr"); got != "custom.txt" {
		t.Errorf("explicit output: got %q", got)
	}
}

func TestCompileAll(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.imp", doubler)
	b := writeSource(t, dir, "b.imp", "BEGIN WRITE 7; END")

	results, err := compileAll(context.Background(), []string{a, b}, "", ".mr")
	if err != nil {
		t.Fatalf("compileAll: %v", err)
	}
	if len(results) != 2 || results[0].src != a || results[1].src != b {
		t.Fatalf("results out of order: %+v", results)
	}
	for _, r := range results {
		if _, err := os.Stat(r.out); err != nil {
			t.Errorf("listing for %s not written: %v", r.src, err)
		}
	}
}

func TestCompileAll_Error(t *testing.T) {
	dir := t.TempDir()
	good := writeSource(t, dir, "good.imp", "BEGIN WRITE 1; END")
	bad := writeSource(t, dir, "bad.imp", "BEGIN WRITE x; END")

	_, err := compileAll(context.Background(), []string{good, bad}, "", ".mr")
	if err == nil {
		t.Fatal("expected a compile error")
	}
	if !strings.Contains(err.Error(), "bad.imp") {
		t.Errorf("error should name the failing file: %v", err)
	}
}

func TestCompileAll_MissingFile(t *testing.T) {
	_, err := compileAll(context.Background(), []string{filepath.Join(t.TempDir(), "nope.imp")}, "", ".mr")
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
}

// The written listing must parse back and behave like the compiled program.
func TestListingRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "double.imp", doubler)
	r, err := compileFile(src, filepath.Join(dir, "double.mr"))
	if err != nil {
		t.Fatal(err)
	}

	listing, err := os.ReadFile(r.out)
	if err != nil {
		t.Fatal(err)
	}
	code, _, err := asm.Parse(string(listing))
	if err != nil {
		t.Fatalf("listing does not parse: %v\n%s", err, listing)
	}

	var out bytes.Buffer
	m := vm.New(code)
	m.Output = &out
	m.MaxSteps = 10_000
	m.PushInput(21)
	if err := m.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(m.Outputs) != 1 || m.Outputs[0] != 42 {
		t.Errorf("expected [42], got %v", m.Outputs)
	}
	if out.String() != "> 42\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestPromptInput(t *testing.T) {
	var prompt bytes.Buffer
	in := promptInput(bufio.NewReader(strings.NewReader("5\n\n oops\n 18446744073709551615 \n")), &prompt)

	for _, want := range []uint64{5, 18446744073709551615} {
		got, err := in()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}
	if _, err := in(); !errors.Is(err, vm.ErrNoInput) {
		t.Errorf("expected ErrNoInput at end of input, got %v", err)
	}
	if !strings.Contains(prompt.String(), `not a natural number: "oops"`) {
		t.Errorf("missing complaint about bad input in %q", prompt.String())
	}
}

func TestPromptInput_LastLineWithoutNewline(t *testing.T) {
	in := promptInput(bufio.NewReader(strings.NewReader("9")), &bytes.Buffer{})
	if v, err := in(); err != nil || v != 9 {
		t.Fatalf("expected 9, got %d (%v)", v, err)
	}
}
