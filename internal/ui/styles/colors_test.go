// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestAdaptiveColorsHaveBothVariants(t *testing.T) {
	colors := map[string]lipgloss.AdaptiveColor{
		"Indigo":                Indigo,
		"Purple":                Purple,
		"Cyan":                  Cyan,
		"Emerald":               Emerald,
		"Rose":                  Rose,
		"RoseDeep":              RoseDeep,
		"Amber":                 Amber,
		"SurfaceDim":            SurfaceDim,
		"SurfaceBright":         SurfaceBright,
		"Overlay":               Overlay,
		"TextPrimary":           TextPrimary,
		"TextSecondary":         TextSecondary,
		"TextMuted":             TextMuted,
		"TextInverse":           TextInverse,
		"UserBubbleBg":          UserBubbleBg,
		"UserBubbleFg":          UserBubbleFg,
		"UserBubbleBorder":      UserBubbleBorder,
		"AssistantBubbleBorder": AssistantBubbleBorder,
	}

	for name, c := range colors {
		if !strings.HasPrefix(c.Light, "#") || len(c.Light) != 7 {
			t.Errorf("%s light variant %q is not a hex color", name, c.Light)
		}
		if !strings.HasPrefix(c.Dark, "#") || len(c.Dark) != 7 {
			t.Errorf("%s dark variant %q is not a hex color", name, c.Dark)
		}
	}
}

func TestRenderStatusHelpers(t *testing.T) {
	tests := []struct {
		name   string
		render func(string) string
		marker string
	}{
		{"success", RenderSuccess, StatusIndicators.Success},
		{"error", RenderError, StatusIndicators.Error},
		{"warning", RenderWarning, StatusIndicators.Warning},
		{"info", RenderInfo, StatusIndicators.Info},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.render("saved")
			if !strings.Contains(out, tc.marker) {
				t.Errorf("output %q missing marker %q", out, tc.marker)
			}
			if !strings.Contains(out, "saved") {
				t.Errorf("output %q missing message", out)
			}
		})
	}
}
