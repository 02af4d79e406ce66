// Command entc is the Ent compiler driver: preprocess, lex, parse, and
// emit x86-64 Intel-syntax assembly, optionally handing the result to
// an external assembler/linker the way ralph-cc hands Clight down to
// cc/as.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notbonzo-com/entc/pkg/ast"
	"github.com/notbonzo-com/entc/pkg/codegen"
	"github.com/notbonzo-com/entc/pkg/codegen/asmtext"
	"github.com/notbonzo-com/entc/pkg/lexer"
	"github.com/notbonzo-com/entc/pkg/parser"
	"github.com/notbonzo-com/entc/pkg/preproc"
)

var version = "0.1.0"

var (
	outputPath     string
	assemblyOnly   bool
	outputFormat   string
	includePaths   []string
	preprocessOnly bool
	dPP            bool
	dParse         bool
	dAsm           bool
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// debugFlagNames lists the CompCert-style single-dash debug flags that
// need rewriting to double-dash for pflag to accept them.
var debugFlagNames = []string{"dpp", "dparse", "dasm"}

// normalizeFlags rewrites a leading "-dpp" (etc.) into "--dpp" so users
// coming from the CompCert/ralph-cc convention of single-dash long
// flags still work against pflag's double-dash parsing.
func normalizeFlags(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a
		for _, name := range debugFlagNames {
			if a == "-"+name || strings.HasPrefix(a, "-"+name+"=") {
				out[i] = "-" + a
				break
			}
		}
	}
	return out
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "entc [file]",
		Short: "Compile Ent source to x86-64 assembly",
		Long: "entc preprocesses, lexes, parses, and generates System V AMD64\n" +
			"Intel-syntax assembly from a single Ent translation unit.",
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			filename := args[0]

			if preprocessOnly {
				return doPreprocessOnly(filename, out, errOut)
			}
			if dPP {
				return doPreprocessDebug(filename, out, errOut)
			}
			if dParse {
				return doParse(filename, out, errOut)
			}
			if dAsm {
				return doAsm(filename, out, errOut)
			}

			return doCompile(filename, out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetVersionTemplate("entc version {{.Version}}\n")
	rootCmd.Flags().SortFlags = false

	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "a.out", "Output file path")
	rootCmd.Flags().BoolVarP(&assemblyOnly, "asm-only", "S", false, "Emit assembly only, skip assembler/linker")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "elf", "Output format: elf|obj|bin")
	rootCmd.Flags().StringArrayVarP(&includePaths, "include", "I", nil, "Add directory to include search path")
	rootCmd.Flags().BoolVarP(&preprocessOnly, "preprocess", "E", false, "Preprocess only, output to stdout")
	rootCmd.Flags().BoolVar(&dPP, "dpp", false, "Dump preprocessor output to <input>.i")
	rootCmd.Flags().BoolVar(&dParse, "dparse", false, "Dump parsed AST to <input>.parsed.ent")
	rootCmd.Flags().BoolVar(&dAsm, "dasm", false, "Dump generated assembly to <input>.s")

	return rootCmd
}

func buildPreprocessorOptions() preproc.Options {
	return preproc.Options{IncludePaths: includePaths}
}

// preprocess runs the preprocessor over filename with the flags
// currently bound to includePaths.
func preprocess(filename string) (string, []preproc.AsmBlock, error) {
	pp := preproc.New(buildPreprocessorOptions())
	content, blocks, err := pp.Preprocess(filename)
	if err != nil {
		return "", nil, fmt.Errorf("entc: preprocessing %s: %w", filename, err)
	}
	return content, blocks, nil
}

// parseSource preprocesses and parses filename into an AST.
func parseSource(filename string) (*ast.Program, error) {
	content, blocks, err := preprocess(filename)
	if err != nil {
		return nil, err
	}
	l := lexer.New(content)
	p := parser.New(l, blocks)
	prog, err := p.Parse()
	if err != nil {
		return nil, fmt.Errorf("entc: parsing %s: %w", filename, err)
	}
	return prog, nil
}

// compileToAsm runs the full preprocess/lex/parse/codegen pipeline.
func compileToAsm(filename string) (*asmtext.Program, error) {
	content, blocks, err := preprocess(filename)
	if err != nil {
		return nil, err
	}
	l := lexer.New(content)
	p := parser.New(l, blocks)
	prog, err := p.Parse()
	if err != nil {
		return nil, fmt.Errorf("entc: parsing %s: %w", filename, err)
	}
	gen := codegen.New(p.Tables())
	asmProg, err := gen.Generate(prog)
	if err != nil {
		return nil, fmt.Errorf("entc: generating code for %s: %w", filename, err)
	}
	return asmProg, nil
}

func withExt(filename, ext string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return base + ext
}

// doPreprocessOnly implements -E: preprocess and write to stdout.
func doPreprocessOnly(filename string, out, errOut io.Writer) error {
	content, _, err := preprocess(filename)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return err
	}
	fmt.Fprint(out, content)
	return nil
}

// doPreprocessDebug implements --dpp: preprocess and write to
// <input>.i, the ralph-cc convention for the preprocessor debug dump.
func doPreprocessDebug(filename string, out, errOut io.Writer) error {
	content, _, err := preprocess(filename)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return err
	}
	outPath := withExt(filename, ".i")
	if err := os.WriteFile(outPath, []byte(content), 0644); err != nil {
		fmt.Fprintf(errOut, "entc: writing %s: %v\n", outPath, err)
		return err
	}
	fmt.Fprintf(out, "wrote %s\n", outPath)
	return nil
}

// doParse implements --dparse: parse and write the reprinted AST to
// <input>.parsed.ent.
func doParse(filename string, out, errOut io.Writer) error {
	prog, err := parseSource(filename)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return err
	}
	var buf bytes.Buffer
	ast.NewPrinter(&buf).PrintProgram(prog)

	outPath := withExt(filename, ".parsed.ent")
	if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
		fmt.Fprintf(errOut, "entc: writing %s: %v\n", outPath, err)
		return err
	}
	fmt.Fprintf(out, "wrote %s\n", outPath)
	return nil
}

// doAsm implements --dasm: run the full pipeline and write generated
// assembly to <input>.s.
func doAsm(filename string, out, errOut io.Writer) error {
	asmProg, err := compileToAsm(filename)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return err
	}
	var buf bytes.Buffer
	asmtext.NewPrinter(&buf).PrintProgram(asmProg)

	outPath := withExt(filename, ".s")
	if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
		fmt.Fprintf(errOut, "entc: writing %s: %v\n", outPath, err)
		return err
	}
	fmt.Fprintf(out, "wrote %s\n", outPath)
	return nil
}

// doCompile runs the default pipeline: generate assembly, then either
// leave it as a .s file (-S) or hand it to an external assembler and
// linker to produce outputPath.
func doCompile(filename string, out, errOut io.Writer) error {
	asmProg, err := compileToAsm(filename)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return err
	}
	var buf bytes.Buffer
	asmtext.NewPrinter(&buf).PrintProgram(asmProg)

	if assemblyOnly {
		asmPath := outputPath
		if asmPath == "a.out" {
			asmPath = withExt(filename, ".s")
		}
		if err := os.WriteFile(asmPath, buf.Bytes(), 0644); err != nil {
			fmt.Fprintf(errOut, "entc: writing %s: %v\n", asmPath, err)
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", asmPath)
		return nil
	}

	return assembleAndLink(buf.Bytes(), filename, outputFormat, outputPath, errOut)
}

// assembleAndLink shells out to the host assembler and linker, the
// one point where entc hands off to an external collaborator rather
// than implementing object-file emission itself.
func assembleAndLink(asmSrc []byte, sourceName, format, output string, errOut io.Writer) error {
	asmPath := withExt(sourceName, ".s")
	if err := os.WriteFile(asmPath, asmSrc, 0644); err != nil {
		return fmt.Errorf("entc: writing %s: %w", asmPath, err)
	}
	objPath := withExt(sourceName, ".o")

	asArgs := []string{"-f", elfAsFormat(format), "-o", objPath, asmPath}
	asCmd := exec.Command("nasm", asArgs...)
	asCmd.Stderr = errOut
	if err := asCmd.Run(); err != nil {
		return fmt.Errorf("entc: assembling %s: %w", asmPath, err)
	}

	if format == "obj" {
		if objPath != output {
			return os.Rename(objPath, output)
		}
		return nil
	}

	ldCmd := exec.Command("ld", "-o", output, objPath)
	ldCmd.Stderr = errOut
	if err := ldCmd.Run(); err != nil {
		return fmt.Errorf("entc: linking %s: %w", output, err)
	}
	return nil
}

func elfAsFormat(format string) string {
	switch format {
	case "bin":
		return "bin"
	default:
		return "elf64"
	}
}
