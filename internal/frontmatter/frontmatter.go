// Package frontmatter splits a leading YAML block from a source file and
// merges its keys into the file's metadata.
package frontmatter

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/pipeline"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// front matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml front matter start delimiter found but closing delimiter is missing")

var (
	delimiter = []byte("---")
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
)

// Split separates YAML front matter (`---` delimited) from the body.
//
// If the document does not start with a delimiter line, had is false and body
// is the full input. The closing delimiter may be the last line of the file.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	first, rest, more := cutLine(content)
	if !more || !isDelimiter(first) {
		return nil, content, false, nil
	}

	start := len(content) - len(rest)
	pos := start
	for pos <= len(content) {
		line, next, more := cutLine(content[pos:])
		if isDelimiter(line) {
			return content[start:pos], next, true, nil
		}
		if !more {
			break
		}
		pos = len(content) - len(next)
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

func isDelimiter(line []byte) bool {
	return bytes.Equal(bytes.TrimRight(line, " \t"), delimiter)
}

// cutLine returns the first line of b without its terminator (LF or CRLF)
// and the remainder. more is false when b held no line terminator.
func cutLine(b []byte) (line, rest []byte, more bool) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, nil, false
	}
	line = b[:i]
	line = bytes.TrimSuffix(line, []byte("\r"))
	return line, b[i+1:], true
}

// ParseYAML parses raw YAML front matter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Extract returns the parsed front matter and the remaining body.
func Extract(content []byte) (map[string]any, []byte, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return nil, nil, err
	}
	if !had {
		return map[string]any{}, body, nil
	}
	fields, err := ParseYAML(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("parse yaml: %w", err)
	}
	return fields, body, nil
}

// Stage merges every file's front matter into its metadata and leaves the
// body as contents. Malformed front matter aborts the run.
func Stage() pipeline.Stage {
	return pipeline.Func("frontmatter", nil, nil, func(ctx context.Context, files *fileset.Set, _ *pipeline.Context) error {
		return files.Each(func(p string, f *fileset.File) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fields, body, err := Extract(f.Contents)
			if err != nil {
				return serrors.FrontMatterInvalid(sourceOf(p, f), err)
			}
			f.Meta.Merge(fields)
			f.Contents = body
			return nil
		})
	})
}

func sourceOf(p string, f *fileset.File) string {
	if f.Source != "" {
		return f.Source
	}
	return p
}
