package pipeline

import (
	"context"

	"git.home.luguber.info/inful/sitesmith/internal/fileset"
)

// Stage is one ordered transformation of a pipeline. Requires and Provides
// name the Context keys the stage reads and writes so ordering can be
// checked before anything runs.
type Stage interface {
	Name() string
	Requires() []string
	Provides() []string
	Run(ctx context.Context, files *fileset.Set, pc *Context) error
}

// RunFunc is the signature of a stage body.
type RunFunc func(ctx context.Context, files *fileset.Set, pc *Context) error

// StageFunc adapts a plain function into a Stage.
type StageFunc struct {
	StageName string
	Needs     []string
	Gives     []string
	Fn        RunFunc
}

// Func builds a StageFunc.
func Func(name string, requires, provides []string, fn RunFunc) *StageFunc {
	return &StageFunc{StageName: name, Needs: requires, Gives: provides, Fn: fn}
}

func (s *StageFunc) Name() string       { return s.StageName }
func (s *StageFunc) Requires() []string { return s.Needs }
func (s *StageFunc) Provides() []string { return s.Gives }

func (s *StageFunc) Run(ctx context.Context, files *fileset.Set, pc *Context) error {
	return s.Fn(ctx, files, pc)
}

// PathFunc maps a file to its new output path. Returning the same path keeps
// the file where it is.
type PathFunc func(p string, f *fileset.File) (string, error)

// Each returns a stage applying fn to every file, renaming when the returned
// path differs.
func Each(name string, fn PathFunc) Stage {
	return Func(name, nil, nil, func(ctx context.Context, files *fileset.Set, _ *Context) error {
		return files.Each(func(p string, f *fileset.File) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			next, err := fn(p, f)
			if err != nil {
				return err
			}
			return files.Rename(p, next)
		})
	})
}

// Define returns a stage that stores v under k.
func Define[T any](k Key[T], v T) Stage {
	return Func("define:"+k.Name(), nil, []string{k.Name()}, func(_ context.Context, _ *fileset.Set, pc *Context) error {
		Set(pc, k, v)
		return nil
	})
}
