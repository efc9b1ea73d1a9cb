package esbuild

import (
	"github.com/evanw/esbuild/pkg/api"
)

// Conditions used to pick package.json exports for the browser
var Conditions = []string{"browser", "default", "import"}

type ResolveOptions struct {
	Conditions []string
	MainFields []string
	Extensions []string
}

const (
	resolveEntry     = "devbridge-resolve"
	resolveNamespace = "devbridge-resolve"
)

// Resolve an import from dir the way esbuild would when bundling for the
// browser. An empty path means it couldn't be resolved.
func Resolve(dir, specifier string, options ResolveOptions) (string, error) {
	if len(options.Conditions) == 0 {
		options.Conditions = Conditions
	}
	var resolved api.ResolveResult
	result := api.Build(api.BuildOptions{
		AbsWorkingDir:     dir,
		EntryPoints:       []string{resolveEntry},
		Platform:          api.PlatformBrowser,
		Format:            api.FormatESModule,
		Conditions:        options.Conditions,
		MainFields:        options.MainFields,
		ResolveExtensions: options.Extensions,
		// Keep paths under the served root rather than their real location
		PreserveSymlinks: true,
		Bundle:           true,
		Write:            false,
		LogLevel:         api.LogLevelSilent,
		Plugins: []api.Plugin{{
			Name: "resolve",
			Setup: func(build api.PluginBuild) {
				build.OnResolve(api.OnResolveOptions{Filter: "^" + resolveEntry + "$"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					resolved = build.Resolve(specifier, api.ResolveOptions{
						ResolveDir: dir,
						Kind:       api.ResolveJSImportStatement,
					})
					return api.OnResolveResult{Path: resolveEntry, Namespace: resolveNamespace}, nil
				})
				build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: resolveNamespace}, func(api.OnLoadArgs) (api.OnLoadResult, error) {
					contents := ""
					return api.OnLoadResult{Contents: &contents}, nil
				})
			},
		}},
	})
	if len(result.Errors) > 0 {
		return "", &Error{result.Errors}
	}
	// Unresolvable imports come back as errors on the resolve result
	if len(resolved.Errors) > 0 || resolved.External || resolved.Namespace != "file" {
		return "", nil
	}
	return resolved.Path, nil
}
