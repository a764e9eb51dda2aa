package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/justyntemme/phasey/pkg/framework/param"
)

// assignments collects repeated -set name=value flags.
type assignments []string

func (a *assignments) String() string { return strings.Join(*a, ",") }

func (a *assignments) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected name=value, got %q", v)
	}
	*a = append(*a, v)
	return nil
}

// applyAssignments sets parameters by name or short name. Values are
// parsed with the parameter's own parser, so units like "20ms" or "40%"
// are accepted.
func applyAssignments(reg *param.Registry, set []string) error {
	for _, a := range set {
		name, value, _ := strings.Cut(a, "=")
		p := reg.GetByName(strings.TrimSpace(name))
		if p == nil {
			return fmt.Errorf("unknown parameter %q", name)
		}
		n, err := p.ParseValue(value)
		if err != nil {
			return err
		}
		p.SetValue(n)
	}
	return nil
}

// listParameters writes one line per parameter in host order.
func listParameters(w io.Writer, reg *param.Registry) {
	for i := int32(0); i < reg.Count(); i++ {
		p := reg.GetByIndex(i)
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t(default %s)\n",
			p.ID, p.Name, p.ShortName, p.FormatValue(p.GetValue()), p.FormatValue(p.DefaultValue))
	}
}
