// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// MODE TESTS
// =============================================================================

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"dark":    ModeDark,
		" LIGHT ": ModeLight,
		"auto":    ModeAuto,
		"":        ModeAuto,
		"neon":    ModeAuto,
	}
	for in, want := range tests {
		if got := ParseMode(in); got != want {
			t.Errorf("ParseMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewTheme_ForcedModes(t *testing.T) {
	t.Cleanup(func() { lipgloss.SetHasDarkBackground(true) })

	dark := NewTheme(ModeDark)
	if !dark.IsDark || !lipgloss.HasDarkBackground() {
		t.Error("dark mode should report and apply a dark background")
	}
	if dark.GlamourStyle() != "dark" {
		t.Errorf("GlamourStyle() = %q, want dark", dark.GlamourStyle())
	}

	light := NewTheme(ModeLight)
	if light.IsDark || lipgloss.HasDarkBackground() {
		t.Error("light mode should report and apply a light background")
	}
	if light.GlamourStyle() != "light" {
		t.Errorf("GlamourStyle() = %q, want light", light.GlamourStyle())
	}
}

func TestNewTheme_UnknownModeIsAuto(t *testing.T) {
	t.Cleanup(func() { lipgloss.SetHasDarkBackground(true) })

	theme := NewTheme(Mode("sepia"))
	if theme.Mode != ModeAuto {
		t.Errorf("Mode = %q, want auto", theme.Mode)
	}
}

// =============================================================================
// STYLE TESTS
// =============================================================================

func TestThemeInitStyles(t *testing.T) {
	theme := NewTheme(ModeDark)
	t.Cleanup(func() { lipgloss.SetHasDarkBackground(true) })

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Sidebar", theme.Sidebar},
		{"SessionItemActive", theme.SessionItemActive},
		{"UserBubble", theme.UserBubble},
		{"AssistantBubble", theme.AssistantBubble},
		{"ErrorBubble", theme.ErrorBubble},
		{"Banner", theme.Banner},
		{"PrivacyBox", theme.PrivacyBox},
		{"InputContainer", theme.InputContainer},
		{"StopButton", theme.StopButton},
		{"StatusBar", theme.StatusBar},
	}

	for _, s := range styles {
		if s.style.Render("test") == "" {
			t.Errorf("%s style should render", s.name)
		}
	}

	if w := lipgloss.Width(theme.UserBubble.Render("test")); w <= 4 {
		t.Errorf("UserBubble should add border and margin, width = %d", w)
	}
}

// =============================================================================
// LAYOUT TESTS
// =============================================================================

func TestLayoutMode(t *testing.T) {
	theme := NewTheme(ModeDark)
	t.Cleanup(func() { lipgloss.SetHasDarkBackground(true) })

	tests := []struct {
		width   int
		mode    LayoutMode
		sidebar int
	}{
		{40, LayoutNarrow, 0},
		{59, LayoutNarrow, 0},
		{60, LayoutMedium, 24},
		{99, LayoutMedium, 24},
		{100, LayoutWide, 32},
	}
	for _, tc := range tests {
		theme.SetSize(tc.width, 30)
		if got := theme.GetLayoutMode(); got != tc.mode {
			t.Errorf("width %d: mode = %d, want %d", tc.width, got, tc.mode)
		}
		if got := theme.SidebarWidth(); got != tc.sidebar {
			t.Errorf("width %d: sidebar = %d, want %d", tc.width, got, tc.sidebar)
		}
	}
}
