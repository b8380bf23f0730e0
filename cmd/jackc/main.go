// Command jackc compiles Jack source files to VM IR. It accepts either a
// single .jack file or a directory containing .jack files; each input
// file is compiled to a sibling file with a .vm extension.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/teris-io/cli"

	"github.com/libklein/jackc/internal/compiler"
	"github.com/libklein/jackc/internal/lexer"
	"github.com/libklein/jackc/internal/vmir"
)

var description = strings.ReplaceAll(`
jackc compiles one Jack source file, or every .jack file in a directory,
into VM IR modules consumed by vmtranslate.
`, "\n", " ")

var app = cli.New(description).
	WithArg(cli.NewArg("path", "A .jack file or a directory of .jack files")).
	WithAction(handler)

func handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "ERROR: missing path argument, use --help")
		return 1
	}

	files, err := collectJackFiles(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		return 1
	}

	failed := false
	for _, file := range files {
		out, err := compileFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s: %v\n", file, err)
			failed = true
			continue
		}
		fmt.Printf("compiled %s -> %s\n", file, out)
	}

	if failed {
		return 1
	}
	return 0
}

// collectJackFiles resolves a file-or-directory path to the list of .jack
// files it denotes. A single file is returned as-is regardless of
// extension; a directory is scanned non-recursively.
func collectJackFiles(fileOrDir string) ([]string, error) {
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
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jack" {
			continue
		}
		files = append(files, filepath.Join(fileOrDir, entry.Name()))
	}
	return files, nil
}

func outputPath(jackPath string) string {
	ext := filepath.Ext(jackPath)
	return jackPath[:len(jackPath)-len(ext)] + ".vm"
}

func compileFile(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	tokens, err := lexer.Tokenize(in, path)
	if err != nil {
		return "", err
	}

	out := outputPath(path)
	outFile, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("opening output: %w", err)
	}
	defer outFile.Close()

	writer := vmir.NewWriter(outFile)
	c := compiler.New(lexer.NewStream(tokens), writer)
	if err := c.Compile(); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("flushing output: %w", err)
	}

	return out, nil
}

func main() {
	os.Exit(app.Run(os.Args, os.Stdout))
}
