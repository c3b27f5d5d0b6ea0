package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/xplshn/cminus/pkg/ast"
	"github.com/xplshn/cminus/pkg/cli"
	"github.com/xplshn/cminus/pkg/codegen"
	"github.com/xplshn/cminus/pkg/config"
	"github.com/xplshn/cminus/pkg/lexer"
	"github.com/xplshn/cminus/pkg/parser"
	"github.com/xplshn/cminus/pkg/semantic"
	"github.com/xplshn/cminus/pkg/symtab"
	"github.com/xplshn/cminus/pkg/token"
	"github.com/xplshn/cminus/pkg/util"
)

func main() {
	app := cli.NewApp("cmc")
	app.Synopsis = "[options] <input.cm>"
	app.Description = "Checks a C- program and lowers it to the quadruple listing consumed by the assembler."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/cminus>"
	app.Since = 2025

	cfg := config.NewConfig()

	var (
		outFile     string
		backendName string
		registers   int
		poolStart   int
		poolEnd     int
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", cfg.MidcodePath, "Place the quadruple listing into <file>.", "file")
	fs.String(&backendName, "backend", "b", "midcode", "Output format of the listing (midcode, trace).", "backend")
	fs.Int(&registers, "registers", "r", cfg.RegisterCount, "Size of the simulated register bank.", "n")
	fs.Int(&poolStart, "pool-start", "", cfg.PoolStart, "First register of the temporary pool.", "n")
	fs.Int(&poolEnd, "pool-end", "", cfg.PoolEnd, "Last register of the temporary pool.", "n")

	groups := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		cfg.Apply(groups)
		cfg.MidcodePath = outFile
		cfg.RegisterCount, cfg.PoolStart, cfg.PoolEnd = registers, poolStart, poolEnd
		if err := cfg.Validate(); err != nil {
			util.Error(token.Token{}, "%v", err)
		}
		backend, err := codegen.SelectBackend(backendName)
		if err != nil {
			util.Error(token.Token{}, "%v", err)
		}
		if len(inputFiles) != 1 {
			util.Error(token.Token{}, "expected exactly one input file, got %d", len(inputFiles))
		}
		path := inputFiles[0]

		fmt.Println("----------------------")
		content, err := os.ReadFile(path)
		if err != nil {
			util.Error(token.Token{}, "could not read file '%s': %v", path, err)
		}
		source := []rune(string(content))
		util.SetSourceFile(util.SourceFileRecord{Name: path, Content: source})

		fmt.Printf("Tokenizing '%s'...\n", path)
		tokens := lexer.Tokenize(source)

		fmt.Println("Parsing tokens into AST...")
		root, err := parser.NewParser(tokens).Parse()
		if err != nil {
			var perr *parser.Error
			if errors.As(err, &perr) {
				util.Error(perr.Tok, "%s", perr.Msg)
			}
			util.Error(token.Token{}, "%v", err)
		}
		if cfg.IsTraceEnabled(config.TraceAST) {
			ast.Fprint(os.Stdout, root)
		}

		fmt.Println("Analyzing semantics...")
		table := symtab.New()
		analyzer := semantic.New(cfg, table, os.Stdout)
		analyzer.Analyze(root)
		if cfg.IsTraceEnabled(config.TraceSymtab) {
			table.Print(os.Stdout)
		}

		errCount := int64(analyzer.ErrorCount())
		if errCount > 0 {
			if cfg.IsFeatureEnabled(config.FeatGateCodegen) {
				fmt.Printf("Skipping code generation: %s semantic error(s).\n", humanize.Comma(errCount))
				return fmt.Errorf("%d semantic error(s)", errCount)
			}
			util.Warn(cfg, config.WarnCodegenErrors, token.Token{}, "generating code for a program with %s semantic error(s)", humanize.Comma(errCount))
		}

		fmt.Println("Creating intermediate representation...")
		prog, err := codegen.NewContext(cfg, path).GenerateIR(root)
		if err != nil {
			util.Error(token.Token{}, "%v", err)
		}
		if cfg.IsTraceEnabled(config.TraceMidcode) {
			prog.WriteTrace(os.Stdout)
		}

		fmt.Printf("Writing '%s' listing...\n", backendName)
		out, err := backend.Generate(prog, cfg)
		if err != nil {
			util.Error(token.Token{}, "backend failed: %v", err)
		}
		if err := writeOutput(cfg.MidcodePath, out.Bytes()); err != nil {
			util.Error(token.Token{}, "%v", err)
		}

		fmt.Println("----------------------")
		fmt.Printf("Wrote %s quadruple(s) to '%s'.\n", humanize.Comma(int64(prog.Len())), cfg.MidcodePath)
		if errCount > 0 {
			return fmt.Errorf("%d semantic error(s)", errCount)
		}
		fmt.Println("Done!")
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}
	return nil
}
