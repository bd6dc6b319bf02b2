// Package inspect implements stylecheck commands.
package inspect

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"sort"

	"github.com/maruel/natural"

	"stylekit/cascade"
	"stylekit/common"
	"stylekit/css"
	"stylekit/resolve"
)

func sortedKeys[V any](m map[string]V) []string {
	keys := slices.Collect(maps.Keys(m))
	sort.Sort(natural.StringSlice(keys))
	return keys
}

// WriteDiagnostics writes one line per diagnostic.
func WriteDiagnostics(w io.Writer, source string, diags []css.Diagnostic) error {
	for i := range diags {
		if _, err := fmt.Fprintf(w, "%s:%s\n", source, diags[i].Error()); err != nil {
			return err
		}
	}
	return nil
}

// WriteVariables writes stylesheet variables in natural order.
func WriteVariables(w io.Writer, sheet *css.Stylesheet) error {
	for _, name := range sortedKeys(sheet.Variables) {
		if _, err := fmt.Fprintf(w, "$%s: %s;\n", name, sheet.Variables[name]); err != nil {
			return err
		}
	}
	return nil
}

// WriteStyle writes computed style. Deferred properties are written as
// declared followed by their value resolved against layout basis.
func WriteStyle(w io.Writer, env common.Environment, style *cascade.ComputedStyle, deferred map[string]resolve.Value, failed map[string]error) error {
	if _, err := fmt.Fprintf(w, "# generation %d, %s\n", style.Generation, env); err != nil {
		return err
	}
	for _, property := range style.Keys() {
		var err error
		if v, ok := style.Immediate[property]; ok {
			_, err = fmt.Fprintf(w, "%s: %s;\n", property, v)
		} else if v, ok := deferred[property]; ok {
			_, err = fmt.Fprintf(w, "%s: %s; /* %s */\n", property, style.Deferred[property], v)
		} else {
			_, err = fmt.Fprintf(w, "%s: %s; /* %v */\n", property, style.Deferred[property], failed[property])
		}
		if err != nil {
			return err
		}
	}
	for _, property := range sortedKeys(style.Dropped) {
		if _, err := fmt.Fprintf(w, "/* dropped %s: %v */\n", property, style.Dropped[property]); err != nil {
			return err
		}
	}
	return nil
}
