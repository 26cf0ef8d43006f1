package assets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// browserTargets approximates "last three versions" of the major browsers at
// the time the styles were written; esbuild adds vendor prefixes and lowers
// syntax for these engines.
var browserTargets = []api.Engine{
	{Name: api.EngineChrome, Version: "58"},
	{Name: api.EngineEdge, Version: "16"},
	{Name: api.EngineFirefox, Version: "57"},
	{Name: api.EngineSafari, Version: "11"},
	{Name: api.EngineIOS, Version: "11"},
}

func transform(code string, opts api.TransformOptions) ([]byte, error) {
	res := api.Transform(code, opts)
	if len(res.Errors) > 0 {
		return nil, messagesError(res.Errors)
	}
	return res.Code, nil
}

func messagesError(msgs []api.Message) error {
	errs := make([]error, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			errs = append(errs, fmt.Errorf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		errs = append(errs, errors.New(m.Text))
	}
	return errors.Join(errs...)
}

// PostProcessCSS prefixes css for the target browsers and minifies it when
// minify is set.
func PostProcessCSS(css []byte, file string, minify bool) ([]byte, error) {
	return transform(string(css), api.TransformOptions{
		Loader:            api.LoaderCSS,
		Sourcefile:        file,
		Engines:           browserTargets,
		MinifyWhitespace:  minify,
		MinifySyntax:      minify,
		MinifyIdentifiers: minify,
	})
}

// TranspileJS lowers modern syntax to ES2015.
func TranspileJS(code []byte, file string) ([]byte, error) {
	return transform(string(code), api.TransformOptions{
		Loader:     api.LoaderJS,
		Sourcefile: file,
		Target:     api.ES2015,
	})
}

// MinifyJS minifies a script bundle.
func MinifyJS(code []byte, file string) ([]byte, error) {
	return transform(string(code), api.TransformOptions{
		Loader:            api.LoaderJS,
		Sourcefile:        file,
		Target:            api.ES2015,
		MinifyWhitespace:  true,
		MinifySyntax:      true,
		MinifyIdentifiers: true,
	})
}

// Concat joins scripts so that each one is terminated even when its last
// statement omits the semicolon.
func Concat(parts [][]byte) []byte {
	var b strings.Builder
	for _, p := range parts {
		b.Write(p)
		if len(p) > 0 && !strings.HasSuffix(strings.TrimRight(string(p), " \t\r\n"), ";") {
			b.WriteString(";")
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}
