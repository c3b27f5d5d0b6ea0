package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"
)

type Value interface {
	String() string
	Set(string) error
	Get() any
}

type stringValue struct{ p *string }

func (v *stringValue) Set(s string) error   { *v.p = s; return nil }
func (v *stringValue) String() string       { return *v.p }
func (v *stringValue) Get() any             { return *v.p }
func newStringValue(p *string) *stringValue { return &stringValue{p} }

type boolValue struct{ p *bool }

func (v *boolValue) Set(s string) error {
	val, err := strconv.ParseBool(s)
	if err != nil && s != "" {
		return fmt.Errorf("invalid boolean value '%s': %w", s, err)
	}
	*v.p = val || s == ""
	return nil
}
func (v *boolValue) String() string { return strconv.FormatBool(*v.p) }
func (v *boolValue) Get() any       { return *v.p }

type intValue struct{ p *int }

func (v *intValue) Set(s string) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer value '%s': %w", s, err)
	}
	*v.p = val
	return nil
}
func (v *intValue) String() string { return strconv.Itoa(*v.p) }
func (v *intValue) Get() any       { return *v.p }

type Flag struct {
	Name         string
	Shorthand    string
	Usage        string
	Value        Value
	DefValue     string
	ExpectedType string
}

type FlagGroup struct {
	Name                 string
	Description          string
	Flags                []FlagGroupEntry
	GroupType            string
	AvailableFlagsHeader string
}

// FlagGroupEntry is one -<Prefix><Name> / -<Prefix>no-<Name> pair
type FlagGroupEntry struct {
	Name     string
	Prefix   string
	Usage    string
	Default  bool
	Enabled  *bool
	Disabled *bool
}

// Result reports the entry's value and whether either form was given on the command line
func (e FlagGroupEntry) Result() (enabled, set bool) {
	switch {
	case e.Disabled != nil && *e.Disabled:
		return false, true
	case e.Enabled != nil && *e.Enabled:
		return true, true
	}
	return e.Default, false
}

type FlagSet struct {
	name       string
	flags      map[string]*Flag
	shorthands map[string]*Flag
	args       []string
	flagGroups []FlagGroup
}

func NewFlagSet(name string) *FlagSet {
	return &FlagSet{
		name:       name,
		flags:      make(map[string]*Flag),
		shorthands: make(map[string]*Flag),
	}
}

func (f *FlagSet) Args() []string { return f.args }

func (f *FlagSet) Lookup(name string) *Flag { return f.flags[name] }

func (f *FlagSet) String(p *string, name, shorthand, value, usage, expectedType string) {
	*p = value
	f.Var(newStringValue(p), name, shorthand, usage, value, expectedType)
}

func (f *FlagSet) Bool(p *bool, name, shorthand string, value bool, usage string) {
	*p = value
	f.Var(&boolValue{p}, name, shorthand, usage, strconv.FormatBool(value), "")
}

func (f *FlagSet) Int(p *int, name, shorthand string, value int, usage, expectedType string) {
	*p = value
	f.Var(&intValue{p}, name, shorthand, usage, strconv.Itoa(value), expectedType)
}

func (f *FlagSet) AddFlagGroup(name, description, groupType, availableFlagsHeader string, entries []FlagGroupEntry) {
	for i := range entries {
		e := &entries[i]
		if e.Enabled != nil {
			f.Bool(e.Enabled, e.Prefix+e.Name, "", false, e.Usage)
		}
		if e.Disabled != nil {
			f.Bool(e.Disabled, e.Prefix+"no-"+e.Name, "", false, "Disable '"+e.Name+"'")
		}
	}
	f.flagGroups = append(f.flagGroups, FlagGroup{
		Name:                 name,
		Description:          description,
		Flags:                entries,
		GroupType:            groupType,
		AvailableFlagsHeader: availableFlagsHeader,
	})
}

func (f *FlagSet) Var(value Value, name, shorthand, usage, defValue, expectedType string) {
	if name == "" {
		panic("flag name cannot be empty")
	}
	if _, ok := f.flags[name]; ok {
		panic(fmt.Sprintf("flag redefined: %s", name))
	}
	flag := &Flag{Name: name, Shorthand: shorthand, Usage: usage, Value: value, DefValue: defValue, ExpectedType: expectedType}
	f.flags[name] = flag
	if shorthand != "" {
		if _, ok := f.shorthands[shorthand]; ok {
			panic(fmt.Sprintf("shorthand flag redefined: %s", shorthand))
		}
		f.shorthands[shorthand] = flag
	}
}

// Parse accepts --name[=v], -name[=v] (for long names such as -Fno-builtins) and -x[v] shorthands
func (f *FlagSet) Parse(arguments []string) error {
	f.args = []string{}
	for i := 0; i < len(arguments); i++ {
		arg := arguments[i]
		if len(arg) < 2 || arg[0] != '-' {
			f.args = append(f.args, arg)
			continue
		}
		if arg == "--" {
			f.args = append(f.args, arguments[i+1:]...)
			break
		}

		body := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
		name, value, hasValue := strings.Cut(body, "=")
		flag, ok := f.flags[name]
		if !ok && !strings.HasPrefix(arg, "--") {
			if flag, ok = f.shorthands[arg[1:2]]; ok {
				name = arg[1:2]
				value, hasValue = arg[2:], len(arg) > 2
			}
		}
		if !ok {
			return fmt.Errorf("unknown flag: %s", arg)
		}

		_, isBool := flag.Value.(*boolValue)
		switch {
		case hasValue:
		case isBool:
			value = ""
		case i+1 < len(arguments):
			i++
			value = arguments[i]
		default:
			return fmt.Errorf("flag needs an argument: -%s", name)
		}
		if err := flag.Value.Set(value); err != nil {
			return err
		}
	}
	return nil
}

type App struct {
	Name        string
	Synopsis    string
	Description string
	Authors     []string
	Repository  string
	Since       int
	FlagSet     *FlagSet
	Action      func(args []string) error
}

func NewApp(name string) *App {
	return &App{
		Name:    name,
		FlagSet: NewFlagSet(name),
	}
}

func (a *App) Run(arguments []string) error {
	help := false
	a.FlagSet.Bool(&help, "help", "h", false, "Display this information")

	if err := a.FlagSet.Parse(arguments); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintf(os.Stderr, "Usage: %s %s\nRun '%s --help' for all available options and flags.\n", a.Name, a.Synopsis, a.Name)
		return err
	}
	if help {
		a.WriteHelp(os.Stdout)
		return nil
	}
	if a.Action != nil {
		return a.Action(a.FlagSet.Args())
	}
	return nil
}

// WriteHelp renders the full help page, wrapping usage text to the terminal width
func (a *App) WriteHelp(w io.Writer) {
	var sb strings.Builder
	width := getTerminalWidth()

	fmt.Fprintf(&sb, "\n    Copyright (c) %d-%d: %s\n", a.Since, time.Now().Year(), strings.Join(a.Authors, ", ")+" and contributors")
	if a.Repository != "" {
		fmt.Fprintf(&sb, "    For more details refer to %s\n", a.Repository)
	}
	if a.Synopsis != "" {
		fmt.Fprintf(&sb, "\n    Synopsis\n        %s %s\n", a.Name, a.Synopsis)
	}
	if a.Description != "" {
		fmt.Fprintf(&sb, "\n    Description\n        %s\n", a.Description)
	}

	var options []*Flag
	for _, flag := range a.FlagSet.flags {
		if !a.isGroupFlag(flag.Name) {
			options = append(options, flag)
		}
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Name < options[j].Name })

	leftWidth := 0
	for _, flag := range options {
		leftWidth = max(leftWidth, len(formatFlag(flag)))
	}
	for _, group := range a.FlagSet.flagGroups {
		for _, e := range group.Flags {
			leftWidth = max(leftWidth, len(e.Prefix)+len("no-")+len(e.Name))
		}
	}

	sb.WriteString("\n    Options\n")
	for _, flag := range options {
		right := ""
		if _, isBool := flag.Value.(*boolValue); !isBool && flag.DefValue != "" {
			right = "|" + flag.DefValue + "|"
		}
		writeEntry(&sb, width, leftWidth, formatFlag(flag), flag.Usage, right)
	}

	for _, group := range a.FlagSet.flagGroups {
		if len(group.Flags) == 0 {
			continue
		}
		prefix := group.Flags[0].Prefix
		fmt.Fprintf(&sb, "\n    %s\n", group.Name)
		writeEntry(&sb, width, leftWidth, fmt.Sprintf("-%s<%s>", prefix, group.GroupType), "Enable a specific "+group.GroupType, "")
		writeEntry(&sb, width, leftWidth, fmt.Sprintf("-%sno-<%s>", prefix, group.GroupType), "Disable a specific "+group.GroupType, "")
		if group.AvailableFlagsHeader != "" {
			fmt.Fprintf(&sb, "    %s\n", group.AvailableFlagsHeader)
		}
		for _, e := range group.Flags {
			mark := "|-|"
			if e.Default {
				mark = "|x|"
			}
			writeEntry(&sb, width, leftWidth, e.Name, e.Usage, mark)
		}
	}
	fmt.Fprint(w, sb.String())
}

func (a *App) isGroupFlag(flagName string) bool {
	for _, group := range a.FlagSet.flagGroups {
		for _, e := range group.Flags {
			if flagName == e.Prefix+e.Name || flagName == e.Prefix+"no-"+e.Name {
				return true
			}
		}
	}
	return false
}

func formatFlag(flag *Flag) string {
	_, isBool := flag.Value.(*boolValue)
	s := "--" + flag.Name
	if flag.Shorthand != "" {
		s = "-" + flag.Shorthand + ", " + s
	}
	if !isBool && flag.ExpectedType != "" {
		s += " <" + flag.ExpectedType + ">"
	}
	return s
}

func writeEntry(sb *strings.Builder, termWidth, leftWidth int, left, usage, right string) {
	const indent = "        "
	usageWidth := termWidth - len(indent) - leftWidth - len(right) - 3
	if usageWidth < 10 {
		usageWidth = 10
	}
	lines := wrapText(usage, usageWidth)
	if len(lines) == 0 {
		lines = []string{""}
	}
	fmt.Fprintf(sb, "%s%-*s %-*s  %s\n", indent, leftWidth, left, usageWidth, lines[0], right)
	for _, l := range lines[1:] {
		fmt.Fprintf(sb, "%s%s %s\n", indent, strings.Repeat(" ", leftWidth), l)
	}
}

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	if width < 20 {
		return 20
	}
	return width
}

func wrapText(text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var line strings.Builder
	for _, word := range words {
		if line.Len() > 0 && line.Len()+len(word)+1 > maxWidth {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteString(" ")
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
