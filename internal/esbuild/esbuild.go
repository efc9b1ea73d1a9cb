package esbuild

import (
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

type (
	TransformOptions = api.TransformOptions
	Loader           = api.Loader
	Message          = api.Message
)

var (
	LoaderJS       = api.LoaderJS
	LoaderJSX      = api.LoaderJSX
	LoaderTS       = api.LoaderTS
	LoaderTSX      = api.LoaderTSX
	LoaderCSS      = api.LoaderCSS
	FormatESModule = api.FormatESModule
	ESNext         = api.ESNext
)

// LoaderFor picks the loader from a file extension
func LoaderFor(ext string) (Loader, bool) {
	switch ext {
	case ".js", ".mjs", ".cjs":
		return LoaderJS, true
	case ".jsx":
		return LoaderJSX, true
	case ".ts", ".mts", ".cts":
		return LoaderTS, true
	case ".tsx":
		return LoaderTSX, true
	default:
		return api.LoaderNone, false
	}
}

// Transform a single file without bundling
func Transform(code string, options TransformOptions) (string, error) {
	result := api.Transform(code, options)
	if len(result.Errors) > 0 {
		return "", &Error{result.Errors}
	}
	return string(result.Code), nil
}

// Check parses the code and fails on recovered syntax errors too. esbuild
// reports those as warnings for CSS, e.g. an unclosed block.
func Check(code string, options TransformOptions) error {
	options.LogLevel = api.LogLevelSilent
	result := api.Transform(code, options)
	messages := result.Errors
	for _, warning := range result.Warnings {
		if strings.HasSuffix(warning.ID, "syntax-error") {
			messages = append(messages, warning)
		}
	}
	if len(messages) > 0 {
		return &Error{messages}
	}
	return nil
}

type Error struct {
	messages []api.Message
}

func (e *Error) Error() string {
	errors := api.FormatMessages(e.messages, api.FormatMessagesOptions{
		Kind: api.ErrorMessage,
	})
	return strings.TrimSpace(strings.Join(errors, "\n"))
}

// Messages returns the underlying esbuild messages
func (e *Error) Messages() []Message {
	return e.messages
}
