package js

import (
	"strings"

	"github.com/ije/esbuild-internal/ast"
	"github.com/ije/esbuild-internal/config"
	"github.com/ije/esbuild-internal/js_ast"
	"github.com/ije/esbuild-internal/js_parser"
	"github.com/ije/esbuild-internal/js_printer"
	"github.com/ije/esbuild-internal/logger"
	"github.com/ije/esbuild-internal/renamer"
	"github.com/ije/esbuild-internal/test"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

type (
	AST        = js.AST
	INode      = js.INode
	IVisitor   = js.IVisitor
	ImportStmt = js.ImportStmt
	ExportStmt = js.ExportStmt
	ClassDecl  = js.ClassDecl
	Var        = js.Var
)

// Walk the AST in depth-first order
func Walk(v IVisitor, n INode) {
	js.Walk(v, n)
}

// ParseOptions configure the parser. The zero value parses an ES module
// with the latest syntax: class fields, static blocks, import.meta and
// top-level await are always accepted.
type ParseOptions struct {
	// Path is used in error messages
	Path string
	// TypeScript strips type annotations before handing back the AST
	TypeScript bool
	// JSX accepts JSX elements
	JSX bool
}

// Merge returns the options with every non-zero field of o applied over base
func (base ParseOptions) Merge(o ParseOptions) ParseOptions {
	if o.Path != "" {
		base.Path = o.Path
	}
	if o.TypeScript {
		base.TypeScript = true
	}
	if o.JSX {
		base.JSX = true
	}
	return base
}

// ParseError contains the messages reported by the parser
type ParseError struct {
	Path     string
	Messages []string
}

func (e *ParseError) Error() string {
	return "js: unable to parse " + e.Path + "\n" + strings.Join(e.Messages, "\n")
}

func parseTree(code string, options ParseOptions) (js_ast.AST, error) {
	if options.Path == "" {
		options.Path = "<stdin>"
	}
	log := logger.NewDeferLog(logger.DeferLogNoVerboseOrDebug, nil)
	tree, ok := js_parser.Parse(log, test.SourceForTest(code), js_parser.OptionsFromConfig(&config.Options{
		TS: config.TSOptions{
			Parse: options.TypeScript,
			Config: config.TSConfig{
				VerbatimModuleSyntax: config.True,
			},
		},
		JSX: config.JSXOptions{
			Parse: options.JSX,
		},
	}))
	msgs := log.Done()
	if !ok {
		err := &ParseError{Path: options.Path}
		for _, msg := range msgs {
			if msg.Kind != logger.Error {
				continue
			}
			err.Messages = append(err.Messages, msg.String(logger.OutputOptions{}, logger.TerminalInfo{}))
		}
		return tree, err
	}
	return tree, nil
}

// Parse a script into a walkable AST. esbuild validates the source and
// strips TypeScript or JSX syntax, then the printed module is re-parsed with
// tdewolff/parse.
func Parse(code string, options ParseOptions) (*AST, error) {
	tree, err := parseTree(code, options)
	if err != nil {
		return nil, err
	}
	symbols := ast.NewSymbolMap(1)
	symbols.SymbolsForSource[0] = tree.Symbols
	r := renamer.NewNoOpRenamer(symbols)
	printed := js_printer.Print(tree, symbols, r, js_printer.Options{
		OutputFormat: config.FormatPreserve,
	}).JS
	program, err := js.Parse(parse.NewInputBytes(printed), js.Options{})
	if err != nil {
		return nil, &ParseError{Path: options.Path, Messages: []string{err.Error()}}
	}
	return program, nil
}

// Print a JavaScript AST
func Print(node INode) string {
	var sb strings.Builder
	node.JS(&sb)
	return strings.TrimSpace(sb.String())
}
