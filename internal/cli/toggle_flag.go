package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// toggleFlagType makes help output render toggles like plain boolean switches.
	toggleFlagType         = "bool"
	toggleLiteralListing   = "true/false, yes/no, y/n, on/off, 1/0"
	invalidToggleFormat    = "invalid value %q for --%s: expected %s"
	flagPrefix             = "--"
	argumentListTerminator = "--"
	flagValueSeparator     = "="
	toggleEnabledLiteral   = "true"
	toggleDisabledLiteral  = "false"
)

var toggleLiterals = map[string]bool{
	"true": true, "t": true, "yes": true, "y": true, "on": true, "1": true,
	"false": false, "f": false, "no": false, "n": false, "off": false, "0": false,
}

// toggleValue backs switches such as --copy and --tokens. A bare --copy turns
// the switch on; --copy=no turns it off.
type toggleValue struct {
	target *bool
	name   string
}

func (value *toggleValue) Set(input string) error {
	parsed, recognized := parseToggleLiteral(input)
	if !recognized {
		return fmt.Errorf(invalidToggleFormat, input, value.name, toggleLiteralListing)
	}
	*value.target = parsed
	return nil
}

func (value *toggleValue) String() string {
	if value.target == nil {
		return toggleDisabledLiteral
	}
	return strconv.FormatBool(*value.target)
}

func (value *toggleValue) Type() string {
	return toggleFlagType
}

func parseToggleLiteral(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return true, true
	}
	parsed, recognized := toggleLiterals[normalized]
	return parsed, recognized
}

// registerToggleFlag adds a switch that defaults to off.
func registerToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, usage string) {
	*target = false
	flagSet.Var(&toggleValue{target: target, name: name}, name, usage)
	registered := flagSet.Lookup(name)
	registered.DefValue = toggleDisabledLiteral
	registered.NoOptDefVal = toggleEnabledLiteral
}

// normalizeToggleArguments rewrites "--copy no" as "--copy=no" so the literal
// is not read as a positional argument. An argument that names an existing
// path is left in place, so "extract --copy y" still extracts a directory
// called y. Nothing after "--" is touched.
func normalizeToggleArguments(root *cobra.Command, arguments []string, pathExists func(string) bool) []string {
	toggleNames := map[string]struct{}{}
	collectToggleNames(root, toggleNames)

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == argumentListTerminator {
			return append(normalized, arguments[index:]...)
		}
		name, isLongFlag := strings.CutPrefix(argument, flagPrefix)
		_, isToggle := toggleNames[name]
		if !isLongFlag || !isToggle || index+1 >= len(arguments) {
			normalized = append(normalized, argument)
			continue
		}
		candidate := arguments[index+1]
		if _, recognized := parseToggleLiteral(candidate); recognized && strings.TrimSpace(candidate) != "" && !pathExists(candidate) {
			normalized = append(normalized, argument+flagValueSeparator+candidate)
			index++
			continue
		}
		normalized = append(normalized, argument)
	}
	return normalized
}

func collectToggleNames(command *cobra.Command, names map[string]struct{}) {
	register := func(flag *pflag.Flag) {
		if _, isToggle := flag.Value.(*toggleValue); isToggle {
			names[flag.Name] = struct{}{}
		}
	}
	command.PersistentFlags().VisitAll(register)
	command.Flags().VisitAll(register)
	for _, child := range command.Commands() {
		collectToggleNames(child, names)
	}
}

func pathExistsOnDisk(path string) bool {
	_, statErr := os.Lstat(path)
	return statErr == nil
}
