// Command console compiles an imp program and runs it interactively: every
// GET prompts for a number with line editing and a persistent history.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/chceswieta/kompilator/pkg/compiler"
	"github.com/chceswieta/kompilator/pkg/config"
	"github.com/chceswieta/kompilator/pkg/utils"
	"github.com/chceswieta/kompilator/pkg/vm"
	"github.com/peterh/liner"
)

const promptGet = "? "

var errQuit = errors.New("quit")

// lineReader is the part of *liner.State the input loop needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// numberInput prompts until it gets a natural number. ":quit", end of input
// and Ctrl-C stop the program.
func numberInput(ln lineReader, out io.Writer) vm.InputFunc {
	return func() (uint64, error) {
		for {
			line, err := ln.Prompt(promptGet)
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				return 0, errQuit
			}
			if err != nil {
				return 0, err
			}
			text := strings.TrimSpace(line)
			switch {
			case text == "":
				continue
			case text == ":quit":
				return 0, errQuit
			}
			v, perr := strconv.ParseUint(text, 10, 64)
			if perr != nil {
				fmt.Fprintf(out, "not a natural number: %q\n", text)
				continue
			}
			ln.AppendHistory(text)
			return v, nil
		}
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: console file.imp [--show-asm]")
		os.Exit(2)
	}
	cfg := config.Load()
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
	}

	filename := os.Args[1]
	showAsm := false
	for _, arg := range os.Args[2:] {
		if arg == "--show-asm" {
			showAsm = true
		}
	}

	fullPath, baseDir, err := utils.GetPathInfo(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad path %q: %v\n", filename, err)
		os.Exit(1)
	}
	source, err := os.ReadFile(fullPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read source file: %v\n", err)
		os.Exit(1)
	}
	log.Printf("compiling %s (in %s)", fullPath, baseDir)

	code, err := compiler.Compile(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "compilation failed: %v\n", err)
		os.Exit(1)
	}
	if showAsm {
		fmt.Print(code.String())
	}

	os.Exit(run(code, cfg))
}

type historyWriter interface {
	WriteHistory(w io.Writer) (int, error)
}

func saveHistory(h historyWriter, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := h.WriteHistory(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func run(code vm.Program, cfg config.Config) int {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(cfg.HistoryFile); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	save := sync.OnceFunc(func() {
		if err := saveHistory(ln, cfg.HistoryFile); err != nil {
			log.Printf("history not saved: %v", err)
		}
	})
	defer save()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		save()
		ln.Close()
		os.Exit(130)
	}()

	m := vm.New(code)
	m.MaxSteps = cfg.MaxSteps
	m.Input = numberInput(ln, os.Stdout)

	err := m.Run()
	switch {
	case errors.Is(err, errQuit):
		fmt.Println()
		return 130
	case err != nil:
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		return 1
	}
	log.Printf("halted after %d steps", m.Steps)
	if cfg.ShowCost {
		fmt.Printf("cost: %d\n", m.Cost)
	}
	return 0
}
