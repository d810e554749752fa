// Package company supplies fake, distinct company names for newly listed
// stocks.
package company

import (
	"fmt"

	"github.com/ndrandal/stocksim/internal/engine"
)

// Name parts. Every prefix/suffix pair is a distinct name.
var (
	prefixes = []string{
		"Nexo", "Qbit", "Flux", "Synk", "Puls", "Cyra",
		"Ledger", "Vault", "Credt", "Mintex", "Fundex",
		"Helix", "Cura", "GenX", "Bios",
		"Volt", "Solaris", "Fuse", "Watt",
		"Brand", "Luxe", "Deliver", "Restock",
		"Forge", "Builder", "Mach", "Aloy", "Blitz",
	}
	suffixes = []string{
		"Dynamics", "Quantum", "Systems", "Networks", "Digital", "Robotics",
		"Capital", "Securities", "Financial", "Banking",
		"Biomedical", "Therapeutics", "Genomics", "Pharma",
		"Energy", "Power", "Petroleum", "Grid",
		"Global", "Retail", "Express", "Supply",
		"Manufacturing", "Heavy Industries", "Precision", "Materials",
	}
)

// maxDraws bounds the random attempts before falling back to numbered names.
const maxDraws = 64

// Generator draws names from an injected random source, so a seeded run
// lists the same companies every time.
type Generator struct {
	rng engine.Source
}

func NewGenerator(rng engine.Source) *Generator {
	return &Generator{rng: rng}
}

// Names returns n distinct names, none of which appear in exclude.
func (g *Generator) Names(n int, exclude []string) []string {
	if n <= 0 {
		return nil
	}
	taken := make(map[string]bool, len(exclude)+n)
	for _, name := range exclude {
		taken[name] = true
	}

	out := make([]string, 0, n)
	for len(out) < n {
		name := g.draw(taken)
		taken[name] = true
		out = append(out, name)
	}
	return out
}

func (g *Generator) draw(taken map[string]bool) string {
	var name string
	for i := 0; i < maxDraws; i++ {
		name = g.pick(prefixes) + " " + g.pick(suffixes)
		if !taken[name] {
			return name
		}
	}
	for k := 2; ; k++ {
		if cand := fmt.Sprintf("%s %d", name, k); !taken[cand] {
			return cand
		}
	}
}

func (g *Generator) pick(parts []string) string {
	i := int(g.rng.Float64() * float64(len(parts)))
	if i >= len(parts) {
		i = len(parts) - 1
	}
	return parts[i]
}

// Combinations is the number of distinct names available before numbered
// fallbacks are used.
func Combinations() int {
	return len(prefixes) * len(suffixes)
}
