// Package profiles holds the built-in panel models.
package profiles

import (
	"fmt"
	"sort"

	"panelseq/internal/panel"
)

var builtin = map[string]func() *panel.Profile{
	"feiyang,fy07024di26a30d": Feiyang,
	"sharp,ls050t1sx01":       Sharp,
}

// Lookup returns a fresh copy of the built-in profile for a device-tree style
// compatible string, e.g. "sharp,ls050t1sx01". The bare model name is
// accepted too.
func Lookup(compatible string) (*panel.Profile, error) {
	if build, ok := builtin[compatible]; ok {
		return build(), nil
	}
	for _, build := range builtin {
		if p := build(); p.Name == compatible {
			return p, nil
		}
	}
	return nil, fmt.Errorf("profiles: unknown panel %q", compatible)
}

// Compatibles lists the built-in compatible strings in sorted order.
func Compatibles() []string {
	out := make([]string, 0, len(builtin))
	for c := range builtin {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
