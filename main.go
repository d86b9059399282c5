//go:build !js

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/chceswieta/kompilator/pkg/asm"
	"github.com/chceswieta/kompilator/pkg/compiler"
	"github.com/chceswieta/kompilator/pkg/config"
	"github.com/chceswieta/kompilator/pkg/utils"
	"github.com/chceswieta/kompilator/pkg/vm"
	"golang.org/x/sync/errgroup"
)

// compiled is one finished input: where it came from, where it went.
type compiled struct {
	src  string
	out  string
	code vm.Program
}

func main() {
	cfg := config.Load()

	outPath := flag.String("out", "", "output listing path (default: input with "+cfg.Ext+" extension)")
	runProgram := flag.Bool("run", false, "run the compiled program on the emulator")
	runBinPath := flag.String("run-bin", "", "run an existing listing on the emulator")
	watch := flag.Bool("watch", false, "recompile the inputs whenever they change")
	showAsm := flag.Bool("show-asm", false, "print the generated listing")
	maxSteps := flag.Int("max-steps", cfg.MaxSteps, "emulator step limit, 0 for none")
	verbose := flag.Bool("v", cfg.Verbose, "log pipeline progress")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: kompilator [-out file] [-run] [-run-bin listing] [-watch] [-show-asm] file.imp...")
		flag.PrintDefaults()
	}
	flag.Parse()

	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(0)
	log.SetPrefix("kompilator: ")

	inputs := flag.Args()

	if err := checkUsage(inputs, *outPath, *runProgram, *runBinPath, *watch); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()

	var results []compiled
	if len(inputs) > 0 {
		var err error
		results, err = compileAll(ctx, inputs, *outPath, cfg.Ext)
		for _, r := range results {
			if r.out == "" {
				continue
			}
			fmt.Printf("compiled %d instructions -> %s\n", len(r.code), r.out)
			if *showAsm {
				fmt.Print(r.code.String())
			}
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			if !*watch {
				os.Exit(1)
			}
		}
	}

	if *watch {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		err := watchFiles(ctx, inputs, cfg.Debounce, func(path string) {
			r, err := compileFile(path, outputFor(path, *outPath, cfg.Ext))
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return
			}
			fmt.Printf("recompiled %d instructions -> %s\n", len(r.code), r.out)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "watch failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var code vm.Program
	switch {
	case *runBinPath != "":
		listing, err := os.ReadFile(*runBinPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read listing %q: %v\n", *runBinPath, err)
			os.Exit(1)
		}
		code, _, err = asm.Parse(string(listing))
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid listing %q: %v\n", *runBinPath, err)
			os.Exit(1)
		}
	case *runProgram:
		code = results[0].code
	default:
		return
	}

	m := vm.New(code)
	m.MaxSteps = *maxSteps
	m.Input = promptInput(bufio.NewReader(os.Stdin), os.Stdout)
	if err := m.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}
	log.Printf("halted after %d steps", m.Steps)
	if cfg.ShowCost {
		fmt.Printf("cost: %d\n", m.Cost)
	}
}

func checkUsage(inputs []string, out string, run bool, runBin string, watch bool) error {
	switch {
	case run && runBin != "":
		return errors.New("use either -run or -run-bin, not both")
	case out != "" && len(inputs) != 1:
		return errors.New("-out needs exactly one input file")
	case run && len(inputs) != 1:
		return errors.New("-run needs exactly one input file, or use -run-bin <listing>")
	case watch && (run || runBin != ""):
		return errors.New("-watch cannot be combined with -run or -run-bin")
	case watch && len(inputs) == 0:
		return errors.New("-watch needs at least one input file")
	case len(inputs) == 0 && runBin == "":
		return errors.New("nothing to do: provide source files to compile, or -run-bin <listing>")
	}
	return nil
}

func outputFor(src, out, ext string) string {
	if out != "" {
		return out
	}
	return utils.OutputPath(src, ext)
}

// compileAll compiles every input concurrently. Results keep the input order;
// entries for inputs that failed or were cancelled have an empty out.
func compileAll(ctx context.Context, inputs []string, out, ext string) ([]compiled, error) {
	results := make([]compiled, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range inputs {
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := compileFile(src, outputFor(src, out, ext))
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	return results, g.Wait()
}

func compileFile(src, out string) (compiled, error) {
	source, err := os.ReadFile(src)
	if err != nil {
		return compiled{}, fmt.Errorf("failed to read input file %q: %w", src, err)
	}
	log.Printf("compiling %s", src)
	code, err := compiler.Compile(string(source))
	if err != nil {
		return compiled{}, fmt.Errorf("%s: compilation failed: %w", src, err)
	}
	if err := os.WriteFile(out, []byte(code.String()), 0o644); err != nil {
		return compiled{}, fmt.Errorf("failed to write listing %q: %w", out, err)
	}
	return compiled{src: src, out: out, code: code}, nil
}

// promptInput reads one number per GET, prompting with "? ".
func promptInput(r *bufio.Reader, prompt io.Writer) vm.InputFunc {
	return func() (uint64, error) {
		for {
			fmt.Fprint(prompt, "? ")
			line, err := r.ReadString('\n')
			text := strings.TrimSpace(line)
			if text != "" {
				v, perr := strconv.ParseUint(text, 10, 64)
				if perr == nil {
					return v, nil
				}
				fmt.Fprintf(prompt, "not a natural number: %q\n", text)
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					return 0, vm.ErrNoInput
				}
				return 0, err
			}
		}
	}
}
