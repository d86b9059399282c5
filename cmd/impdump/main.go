// Command impdump prints every stage of compiling one imp program: the
// source, its tokens, the parsed program, the listing and the symbol table.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/chceswieta/kompilator/pkg/compiler"
)

const sampleSource = `DECLARE
  x, t(1:3)
BEGIN
  x := 10;
  FOR i FROM 1 TO 3 DO
    t(i) := x * i;
    WRITE t(i);
  ENDFOR
END
`

func main() {
	src := sampleSource
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
	}

	if err := dump(os.Stdout, src); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// dump writes each stage as soon as it is available, so a failing program
// still shows how far it got.
func dump(w io.Writer, src string) error {
	fmt.Fprintf(w, "Source:\n%s\n", src)

	res, err := compiler.CompileDetailed(src)

	if res.Tokens != nil {
		fmt.Fprintf(w, "Tokens (%d)\n", len(res.Tokens))
		for _, tok := range res.Tokens {
			fmt.Fprintln(w, " ", tok)
		}
		fmt.Fprintln(w)
	}

	if res.Program != nil {
		fmt.Fprintln(w, "AST")
		fmt.Fprint(w, res.Program)
		fmt.Fprintln(w)
	}

	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Generated Code (%d instructions)\n", len(res.Code))
	fmt.Fprint(w, res.Code)
	fmt.Fprintln(w)
	fmt.Fprint(w, res.Symbols)
	return nil
}
