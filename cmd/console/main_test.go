package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chceswieta/kompilator/pkg/compiler"
	"github.com/chceswieta/kompilator/pkg/vm"
	"github.com/peterh/liner"
)

type scriptedLines struct {
	lines   []string
	end     error
	prompts []string
	history []string
}

func (s *scriptedLines) Prompt(p string) (string, error) {
	s.prompts = append(s.prompts, p)
	if len(s.lines) == 0 {
		return "", s.end
	}
	l := s.lines[0]
	s.lines = s.lines[1:]
	return l, nil
}

func (s *scriptedLines) AppendHistory(item string) { s.history = append(s.history, item) }

func (s *scriptedLines) WriteHistory(w io.Writer) (int, error) {
	for i, h := range s.history {
		if _, err := io.WriteString(w, h+"\n"); err != nil {
			return i, err
		}
	}
	return len(s.history), nil
}

func TestNumberInput(t *testing.T) {
	ln := &scriptedLines{lines: []string{"", "abc", " 12 ", "7"}, end: io.EOF}
	var out bytes.Buffer
	in := numberInput(ln, &out)

	for _, want := range []uint64{12, 7} {
		v, err := in()
		if err != nil || v != want {
			t.Fatalf("expected %d, got %d (%v)", want, v, err)
		}
	}
	if _, err := in(); !errors.Is(err, errQuit) {
		t.Errorf("end of input should quit, got %v", err)
	}
	if strings.Join(ln.history, ",") != "12,7" {
		t.Errorf("history: %v", ln.history)
	}
	if !strings.Contains(out.String(), `"abc"`) {
		t.Errorf("expected a complaint about abc, got %q", out.String())
	}
	for _, p := range ln.prompts {
		if p != promptGet {
			t.Errorf("unexpected prompt %q", p)
		}
	}
}

func TestNumberInput_Quit(t *testing.T) {
	for _, tc := range []struct {
		name string
		ln   *scriptedLines
	}{
		{"command", &scriptedLines{lines: []string{":quit"}, end: io.EOF}},
		{"ctrl-c", &scriptedLines{end: liner.ErrPromptAborted}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := numberInput(tc.ln, io.Discard)(); !errors.Is(err, errQuit) {
				t.Errorf("expected errQuit, got %v", err)
			}
		})
	}
}

func TestNumberInput_DrivesMachine(t *testing.T) {
	code, err := compiler.Compile("DECLARE a, b, c BEGIN READ a; READ b; c := a + b; WRITE c; END")
	if err != nil {
		t.Fatal(err)
	}
	m := vm.New(code)
	m.Output = io.Discard
	m.Input = numberInput(&scriptedLines{lines: []string{"40", "2"}, end: io.EOF}, io.Discard)
	if err := m.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(m.Outputs) != 1 || m.Outputs[0] != 42 {
		t.Errorf("expected [42], got %v", m.Outputs)
	}
}

func TestSaveHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	ln := &scriptedLines{history: []string{"12", "7"}}
	if err := saveHistory(ln, path); err != nil {
		t.Fatalf("saveHistory: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "12\n7\n" {
		t.Errorf("history file: got %q", data)
	}
}

func TestSaveHistory_BadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "history")
	if err := saveHistory(&scriptedLines{}, path); err == nil {
		t.Error("expected an error for an unwritable path")
	}
}
