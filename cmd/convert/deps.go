package main

import (
	"context"
	"io"
	"os"
	"time"

	mermaid2pdf "github.com/alnah/go-mermaid2pdf"
)

// converter is the part of *mermaid2pdf.Converter the CLI drives.
type converter interface {
	Convert(ctx context.Context, input mermaid2pdf.Input) (*mermaid2pdf.Result, error)
	HTMLDir() (string, error)
	Clean() (bool, error)
	Close() error
}

// Dependencies holds injectable dependencies for testability.
type Dependencies struct {
	Now          func() time.Time
	Stdout       io.Writer
	Stderr       io.Writer
	Getenv       func(string) string
	NewConverter func(opts ...mermaid2pdf.Option) (converter, error)
}

// DefaultDeps returns production dependencies.
func DefaultDeps() *Dependencies {
	return &Dependencies{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Getenv: os.Getenv,
		NewConverter: func(opts ...mermaid2pdf.Option) (converter, error) {
			c, err := mermaid2pdf.NewConverter(opts...)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}
