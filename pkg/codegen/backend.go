package codegen

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/xplshn/cminus/pkg/config"
	"github.com/xplshn/cminus/pkg/ir"
)

// Backend renders a finished quadruple list
type Backend interface {
	Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error)
}

type midcodeBackend struct{}

// Generate produces the pipe-separated listing read back by ir.ReadMidcode
func (midcodeBackend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := prog.WriteMidcode(&buf); err != nil {
		return nil, fmt.Errorf("writing midcode: %w", err)
	}
	return &buf, nil
}

type traceBackend struct{}

func (traceBackend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	prog.WriteTrace(&buf)
	return &buf, nil
}

var backends = map[string]Backend{
	"midcode": midcodeBackend{},
	"trace":   traceBackend{},
}

// BackendNames lists the registered backends in sorted order
func BackendNames() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func SelectBackend(name string) (Backend, error) {
	if b, ok := backends[name]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("unsupported backend '%s' (available: %v)", name, BackendNames())
}
