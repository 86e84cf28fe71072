// Command chtl is a thin flag-package wrapper over pkg/chtl. Real CLI
// ergonomics (watch mode, bundling multiple entry points, a module
// search path) are out of scope; this exists to exercise the library
// from a terminal.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chtl-lang/chtl/internal/exitcode"
	"github.com/chtl-lang/chtl/pkg/chtl"
)

func main() {
	exitcode.Exit(run(os.Args[1:]))
}

func run(args []string) error {
	fs := flag.NewFlagSet("chtl", flag.ContinueOnError)
	outDir := fs.String("outdir", "", "directory to write html/css/js into (default: next to the input file)")
	minify := fs.Bool("minify", false, "omit whitespace from generated output")
	validate := fs.Bool("validate", false, "parse generated output back through its target grammar before writing")
	debug := fs.Bool("debug", false, "enable verbose diagnostics")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return flag.ErrHelp
	}
	input := fs.Arg(0)

	result, err := chtl.CompileFile(input, chtl.Options{
		Minify:   *minify,
		Validate: *validate,
		Debug:    *debug,
	})
	result.Log.WriteTo(os.Stderr)
	if err != nil {
		return err
	}

	dir := *outDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if err := writeIfNonEmpty(filepath.Join(dir, base+".html"), result.Output.HTML); err != nil {
		return exitcode.IO(err)
	}
	if err := writeIfNonEmpty(filepath.Join(dir, base+".css"), result.Output.CSS); err != nil {
		return exitcode.IO(err)
	}
	if err := writeIfNonEmpty(filepath.Join(dir, base+".js"), result.Output.JS); err != nil {
		return exitcode.IO(err)
	}
	return nil
}

func writeIfNonEmpty(path, content string) error {
	if content == "" {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
