// Package preproc implements the Ent preprocessor: file inclusion with
// header gating, object-like macro substitution, and inline-assembly
// block capture. It is the sole boundary where the compiler touches
// the filesystem beyond the initial entry file (the "Source Reader"
// of spec.md §2 is the plain os.ReadFile call in readFile below).
package preproc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AsmBlock is the raw body of one `asm { ... };` block, captured in
// encounter order. The parser consumes these by an incrementing index,
// a single-owner hand-off with no aliasing (spec.md §5).
type AsmBlock struct {
	Lines []string
}

// Options configures a Preprocessor run.
type Options struct {
	// IncludePaths is searched, in order, for `<angle>` includes.
	IncludePaths []string
}

// Preprocessor resolves includes and macros for a single translation
// unit. It is not safe for concurrent use (spec.md §5: single-threaded,
// batch-oriented).
type Preprocessor struct {
	macros     map[string]string
	macroOrder []string // insertion order, for deterministic expansion
	asmBlocks  []AsmBlock
	resolver   *includeResolver
}

// New creates a Preprocessor with the given include search path.
func New(opts Options) *Preprocessor {
	return &Preprocessor{
		macros:   make(map[string]string),
		resolver: newIncludeResolver(opts.IncludePaths),
	}
}

// Preprocess reads filename, resolves all #include/#define/#undef
// directives and header-gates any included file's contribution, and
// returns the fully substituted source text together with the
// inline-asm blocks it captured, in encounter order.
func (p *Preprocessor) Preprocess(filename string) (string, []AsmBlock, error) {
	content, err := readFile(filename)
	if err != nil {
		return "", nil, err
	}
	dir := filepath.Dir(filename)
	out, err := p.processLines(splitLines(content), dir, modeFull)
	if err != nil {
		return "", nil, err
	}
	return out, p.asmBlocks, nil
}

// readFile is the whole of the Source Reader component: load a file as
// a text buffer. Everything downstream operates on the in-memory
// string.
func readFile(filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filename, err)
	}
	return string(data), nil
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}

// scanMode distinguishes processing the primary translation unit (and
// the interior of any header block, wherever found) from scanning an
// included file for nothing but its header block.
type scanMode int

const (
	modeFull scanMode = iota
	modeHeaderOnly
)

// processLines is the single recursive engine behind both the main
// file's directive loop and an included file's header-gated scan.
//
// In modeFull, every line is either a directive (handled), the start
// of an `asm { ... };` block (captured), the start of a `header {
// ... };` block (recursed into as modeFull, then re-emitted with its
// wrapper intact), or ordinary text (macro-substituted and emitted).
//
// In modeHeaderOnly, content outside the first header block is
// silently discarded; the header block's own interior is processed in
// modeFull so directives and macro substitution inside it behave
// exactly as they would at top level. Only the first header block is
// extracted, matching the original preprocessor's single-block scan.
func (p *Preprocessor) processLines(lines []string, dir string, mode scanMode) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			// Blank lines are dropped entirely.
			i++

		case strings.HasPrefix(trimmed, "#"):
			replacement, consumed, err := p.processDirective(lines, i, dir)
			if err != nil {
				return "", err
			}
			if mode == modeFull {
				out.WriteString(replacement)
			}
			i += consumed

		case isHeaderStart(trimmed):
			end, err := findBlockEnd(lines, i, "};")
			if err != nil {
				return "", fmt.Errorf("header block starting at line %d: %w", i+1, err)
			}
			interior := lines[i+1 : end]
			body, err := p.processLines(interior, dir, modeFull)
			if err != nil {
				return "", err
			}
			out.WriteString("header {\n")
			out.WriteString(body)
			out.WriteString("};\n")
			i = end + 1
			if mode == modeHeaderOnly {
				return out.String(), nil
			}

		case isAsmStart(trimmed) && mode == modeFull:
			end, err := findBlockEnd(lines, i, "};")
			if err != nil {
				return "", fmt.Errorf("asm block starting at line %d: %w", i+1, err)
			}
			p.asmBlocks = append(p.asmBlocks, AsmBlock{Lines: append([]string{}, lines[i+1:end]...)})
			out.WriteString("asm;\n")
			i = end + 1

		default:
			if mode == modeFull {
				out.WriteString(p.expandMacros(line))
				out.WriteString("\n")
			}
			i++
		}
	}
	return out.String(), nil
}

func isHeaderStart(trimmed string) bool {
	return trimmed == "header {" || strings.HasPrefix(trimmed, "header {")
}

func isAsmStart(trimmed string) bool {
	return trimmed == "asm {" || strings.HasPrefix(trimmed, "asm {")
}

// findBlockEnd scans forward from a block-opening line at index start
// for a line whose trimmed text is exactly marker, returning its
// index. It is a textual, line-oriented match (not brace counting),
// following the original preprocessor's header-extraction behavior
// (see original_source/src/preprocessor.cpp's handleInclude).
func findBlockEnd(lines []string, start int, marker string) (int, error) {
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == marker {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unterminated block: no closing %q", marker)
}

// processDirective parses and executes the directive starting at
// lines[i], returning the text to splice into the output (a blank
// line for #define/#undef, the header-gated contribution for
// #include) and how many input lines it consumed.
func (p *Preprocessor) processDirective(lines []string, i int, dir string) (string, int, error) {
	trimmed := strings.TrimSpace(lines[i])
	body := strings.TrimSpace(trimmed[1:])

	switch {
	case strings.HasPrefix(body, "include"):
		rest := strings.TrimSpace(body[len("include"):])
		included, err := p.handleInclude(rest, dir)
		if err != nil {
			return "", 0, err
		}
		return included, 1, nil

	case strings.HasPrefix(body, "define"):
		rest := strings.TrimSpace(body[len("define"):])
		if err := p.handleDefine(rest); err != nil {
			return "", 0, err
		}
		return "\n", 1, nil

	case strings.HasPrefix(body, "undef"):
		rest := strings.TrimSpace(body[len("undef"):])
		if rest == "" {
			return "", 0, fmt.Errorf("malformed #undef: missing macro name")
		}
		p.undefine(rest)
		return "\n", 1, nil

	default:
		return "", 0, fmt.Errorf("malformed or unknown directive: %q", trimmed)
	}
}

func (p *Preprocessor) handleDefine(rest string) error {
	if rest == "" {
		return fmt.Errorf("malformed #define: missing macro name")
	}
	parts := strings.SplitN(rest, " ", 2)
	name := parts[0]
	if name == "" {
		return fmt.Errorf("malformed #define: missing macro name")
	}
	replacement := ""
	if len(parts) == 2 {
		replacement = strings.TrimSpace(parts[1])
	}
	p.define(name, replacement)
	return nil
}

func (p *Preprocessor) define(name, replacement string) {
	if _, exists := p.macros[name]; !exists {
		p.macroOrder = append(p.macroOrder, name)
	}
	p.macros[name] = replacement
}

func (p *Preprocessor) undefine(name string) {
	delete(p.macros, name)
	for idx, n := range p.macroOrder {
		if n == name {
			p.macroOrder = append(p.macroOrder[:idx], p.macroOrder[idx+1:]...)
			break
		}
	}
}

// handleInclude resolves and reads the included file, then returns its
// header-gated contribution (the first `header { ... };` block found,
// verbatim wrapper included, with its own directives and macros
// processed) ready to splice into the including file's output.
func (p *Preprocessor) handleInclude(rest string, dir string) (string, error) {
	name, angled, err := parseIncludeTarget(rest)
	if err != nil {
		return "", err
	}
	path, err := p.resolver.resolve(name, angled, dir)
	if err != nil {
		return "", err
	}
	content, err := readFile(path)
	if err != nil {
		return "", err
	}
	return p.processLines(splitLines(content), filepath.Dir(path), modeHeaderOnly)
}

func parseIncludeTarget(rest string) (name string, angled bool, err error) {
	if len(rest) >= 2 && rest[0] == '"' && rest[len(rest)-1] == '"' {
		return rest[1 : len(rest)-1], false, nil
	}
	if len(rest) >= 2 && rest[0] == '<' && rest[len(rest)-1] == '>' {
		return rest[1 : len(rest)-1], true, nil
	}
	return "", false, fmt.Errorf("malformed #include: expected \"file\" or <file>, got %q", rest)
}
