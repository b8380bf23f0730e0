// Command vmtranslate lowers VM IR modules into target assembly. It
// accepts either a single .vm file or a directory containing .vm files,
// concatenates them (in deterministic, lexicographic order) behind a
// single bootstrap sequence, and writes one combined .asm output.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teris-io/cli"

	"github.com/libklein/jackc/internal/asmgen"
	"github.com/libklein/jackc/internal/vmir"
)

var description = strings.ReplaceAll(`
vmtranslate lowers VM IR (.vm) modules into Hack-style target assembly,
emitting the bootstrap sequence exactly once ahead of every translated
command.
`, "\n", " ")

var app = cli.New(description).
	WithArg(cli.NewArg("path", "A .vm file or a directory of .vm files")).
	WithOption(cli.NewOption("output", "Path of the combined .asm output file").
		WithType(cli.TypeString)).
	WithAction(handler)

func handler(args []string, options map[string]string) int {
	if len(args) < 1 || options["output"] == "" {
		fmt.Fprintln(os.Stderr, "ERROR: missing path argument or --output option, use --help")
		return 1
	}

	files, err := collectVMFiles(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "ERROR: no .vm files found under", args[0])
		return 1
	}

	out, err := os.OpenFile(options["output"], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: opening output:", err)
		return 1
	}
	defer out.Close()

	gen := asmgen.NewGenerator(out)
	translator := asmgen.NewTranslator()

	if err := gen.Write(translator.Bootstrap()); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: writing bootstrap:", err)
		return 1
	}

	for _, file := range files {
		if err := translateFile(translator, gen, file); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s: %v\n", file, err)
			return 1
		}
	}

	if err := gen.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: flushing output:", err)
		return 1
	}

	return 0
}

// collectVMFiles resolves a file-or-directory path to the list of .vm
// files it denotes, sorted lexicographically so translation order (and
// therefore label numbering) is deterministic across runs.
func collectVMFiles(fileOrDir string) ([]string, error) {
	info, err := os.Stat(fileOrDir)
	if err != nil {
		return nil, fmt.Errorf("cannot stat %q: %w", fileOrDir, err)
	}

	if !info.IsDir() {
		return []string{fileOrDir}, nil
	}

	entries, err := os.ReadDir(fileOrDir)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %q: %w", fileOrDir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".vm" {
			continue
		}
		files = append(files, filepath.Join(fileOrDir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func translateFile(translator *asmgen.Translator, gen *asmgen.Generator, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	stem := filepath.Base(path)
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	translator.SetFile(stem)

	r := vmir.NewReader(in)
	for r.Scan() {
		instrs, err := translator.Translate(r.Command())
		if err != nil {
			return err
		}
		if err := gen.Write(instrs); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	return r.Err()
}

func main() {
	os.Exit(app.Run(os.Args, os.Stdout))
}
