package emit

import (
	"fmt"
	"strings"
)

// sanitizeName strips every byte that is not alphanumeric, per spec.md
// §6 ("All names are derived from the input base name with
// non-alphanumeric characters stripped") — a plainer rule than codegen's
// identifier sanitizer since this only ever touches the base name once,
// not every generated C identifier.
func sanitizeName(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	if b.Len() == 0 {
		return "module"
	}
	return b.String()
}

// fileName builds the deterministic output name for the idx'th (0-based)
// file of the given partition prefix: s0001.c, d0001.c, ...
func fileName(prefix string, idx int) string {
	return fmt.Sprintf("%s%04d.c", prefix, idx+1)
}
