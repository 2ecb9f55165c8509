package model

import (
	"fmt"
	"math/rand"
)

// Word lists for synthesized invoice names. Order matters: a seeded
// rand source must always pick the same words, so entries are only ever
// appended, never reordered.
var (
	nameAdjectives = []string{
		"Amber", "Bold", "Brisk", "Calm", "Clever", "Crisp", "Eager",
		"Fleet", "Golden", "Keen", "Lively", "Mellow", "Noble", "Quiet",
		"Rapid", "Silver", "Steady", "Swift", "Vivid", "Witty",
	}
	nameNouns = []string{
		"Falcon", "Harbor", "Juniper", "Lantern", "Meadow", "Otter",
		"Pebble", "Quill", "Raven", "Saffron", "Thistle", "Walnut",
		"Willow", "Wren", "Zephyr",
	}
)

// GenerateName synthesizes a display name for an invoice saved without
// one: an adjective, a noun, and a two-digit number, e.g. "Swift Otter
// 42". The rand source is a parameter so callers can seed it for
// deterministic output.
func GenerateName(r *rand.Rand) string {
	adj := nameAdjectives[r.Intn(len(nameAdjectives))]
	noun := nameNouns[r.Intn(len(nameNouns))]
	n := 10 + r.Intn(90)
	return fmt.Sprintf("%s %s %d", adj, noun, n)
}
