package config

import (
	"fmt"
	"sort"

	"github.com/xplshn/cminus/pkg/cli"
)

type Feature int

const (
	FeatBuiltins Feature = iota
	FeatHardwareBuiltins
	FeatGateCodegen
	FeatImplicitReturn
	FeatCount
)

type Trace int

const (
	TraceAST Trace = iota
	TraceSymtab
	TraceMidcode
	TraceCount
)

type Warning int

const (
	WarnArgCount Warning = iota
	WarnCodegenErrors
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features   map[Feature]Info
	Traces     map[Trace]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	TraceMap   map[string]Trace
	WarningMap map[string]Warning

	RegisterCount int
	PoolStart     int
	PoolEnd       int
	MidcodePath   string
}

func NewConfig() *Config {
	cfg := &Config{
		FeatureMap:    make(map[string]Feature),
		TraceMap:      make(map[string]Trace),
		WarningMap:    make(map[string]Warning),
		RegisterCount: 32,
		PoolStart:     6,
		PoolEnd:       27,
		MidcodePath:   "outputs/midcode.txt",
	}

	cfg.Features = map[Feature]Info{
		FeatBuiltins:         {"builtins", true, "Predeclare the 'input' and 'output' functions."},
		FeatHardwareBuiltins: {"hw-builtins", true, "Predeclare the disk and LCD functions (loadHD, storeHD, HDtoIM, LCDwrite)."},
		FeatGateCodegen:      {"gate-codegen", false, "Skip intermediate code generation when semantic errors were reported."},
		FeatImplicitReturn:   {"implicit-return", true, "End every function body with a 'Return' quadruple."},
	}

	cfg.Traces = map[Trace]Info{
		TraceAST:     {"ast", false, "Print the syntax tree after parsing."},
		TraceSymtab:  {"symtab", false, "Print the symbol table after semantic analysis."},
		TraceMidcode: {"midcode", false, "Print the quadruple list after code generation."},
	}

	cfg.Warnings = map[Warning]Info{
		WarnArgCount:      {"arg-count", true, "Warn when a call passes a different number of arguments than declared."},
		WarnCodegenErrors: {"codegen-errors", true, "Warn when code is generated for a program with semantic errors."},
	}

	for ft, info := range cfg.Features {
		cfg.FeatureMap[info.Name] = ft
	}
	for tr, info := range cfg.Traces {
		cfg.TraceMap[info.Name] = tr
	}
	for wt, info := range cfg.Warnings {
		cfg.WarningMap[info.Name] = wt
	}
	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetTrace(tr Trace, enabled bool) {
	if info, ok := c.Traces[tr]; ok {
		info.Enabled = enabled
		c.Traces[tr] = info
	}
}

func (c *Config) IsTraceEnabled(tr Trace) bool { return c.Traces[tr].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// ReturnRegisters are claimed by index when a call hands back its result
// (r2 for ordinary functions, r3 for input, r4 for loadHD)
var ReturnRegisters = []int{2, 3, 4}

// Validate checks the register layout. The temporary pool must fit in the bank
// and stay clear of the return registers
func (c *Config) Validate() error {
	switch {
	case c.RegisterCount <= 0:
		return fmt.Errorf("register count must be positive, got %d", c.RegisterCount)
	case c.PoolStart < 0 || c.PoolEnd >= c.RegisterCount || c.PoolStart > c.PoolEnd:
		return fmt.Errorf("register pool [%d, %d] does not fit in %d registers", c.PoolStart, c.PoolEnd, c.RegisterCount)
	}
	for _, r := range ReturnRegisters {
		if r >= c.RegisterCount {
			return fmt.Errorf("return register r%d does not fit in %d registers", r, c.RegisterCount)
		}
		if r >= c.PoolStart && r <= c.PoolEnd {
			return fmt.Errorf("register pool [%d, %d] overlaps return register r%d", c.PoolStart, c.PoolEnd, r)
		}
	}
	return nil
}

// FlagGroups holds the -F/-T/-W entries registered on a flag set
type FlagGroups struct {
	Features []cli.FlagGroupEntry
	Traces   []cli.FlagGroupEntry
	Warnings []cli.FlagGroupEntry
	features []Feature
	traces   []Trace
	warnings []Warning
}

// SetupFlagGroups registers -F<feature>, -T<trace> and -W<warning> flags (plus their -no- forms)
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) *FlagGroups {
	g := &FlagGroups{}

	for _, ft := range sortedKeys(c.Features) {
		info := c.Features[ft]
		g.Features = append(g.Features, newEntry("F", info))
		g.features = append(g.features, ft)
	}
	for _, tr := range sortedKeys(c.Traces) {
		info := c.Traces[tr]
		g.Traces = append(g.Traces, newEntry("T", info))
		g.traces = append(g.traces, tr)
	}
	for _, wt := range sortedKeys(c.Warnings) {
		info := c.Warnings[wt]
		g.Warnings = append(g.Warnings, newEntry("W", info))
		g.warnings = append(g.warnings, wt)
	}

	fs.AddFlagGroup("Features", "Language and pipeline features", "feature", "Available Features:", g.Features)
	fs.AddFlagGroup("Traces", "Debug listings", "trace", "Available Traces:", g.Traces)
	fs.AddFlagGroup("Warnings", "Optional warnings", "warning", "Available Warnings:", g.Warnings)
	return g
}

// Apply copies explicitly set group flags into the configuration
func (c *Config) Apply(g *FlagGroups) {
	for i, e := range g.Features {
		if on, set := e.Result(); set {
			c.SetFeature(g.features[i], on)
		}
	}
	for i, e := range g.Traces {
		if on, set := e.Result(); set {
			c.SetTrace(g.traces[i], on)
		}
	}
	for i, e := range g.Warnings {
		if on, set := e.Result(); set {
			c.SetWarning(g.warnings[i], on)
		}
	}
}

func newEntry(prefix string, info Info) cli.FlagGroupEntry {
	enabled, disabled := false, false
	return cli.FlagGroupEntry{
		Name:     info.Name,
		Prefix:   prefix,
		Usage:    info.Description,
		Default:  info.Enabled,
		Enabled:  &enabled,
		Disabled: &disabled,
	}
}

func sortedKeys[K ~int, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
