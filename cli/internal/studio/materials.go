// ABOUTME: Parses the name:quantity:unit material notation used by forms and flags
// ABOUTME: One material per line when a form collects several at once

package studio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/caffeinepub/crocheting-app/cli/internal/client"
)

// ParseMaterial parses name:quantity:unit.
func ParseMaterial(s string) (client.Material, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return client.Material{}, fmt.Errorf("invalid material %q: expected name:quantity:unit", s)
	}
	qty, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return client.Material{}, fmt.Errorf("invalid material quantity %q", strings.TrimSpace(parts[1]))
	}
	return client.Material{
		Name:     strings.TrimSpace(parts[0]),
		Quantity: qty,
		Unit:     strings.TrimSpace(parts[2]),
	}, nil
}

// ParseMaterials parses one material per non-blank line.
func ParseMaterials(text string) ([]client.Material, error) {
	var out []client.Material
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m, err := ParseMaterial(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		out = append(out, m)
	}
	return out, nil
}
