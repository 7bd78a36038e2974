package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/archiver/internal/archive"
	"github.com/five82/archiver/internal/logging"
)

type onboardingStep struct {
	label  string
	desc   string
	kicker string
	title  string
	body   []string
	action string
}

var onboardingSteps = []onboardingStep{
	{
		label:  "Initialize",
		desc:   "Prepare your secure vault",
		kicker: "Local-only Vault",
		title:  "Initialize your archive",
		body: []string{
			"Export, index, and browse locally. No cloud. No tracking.",
			"Your data stays on your device.",
		},
		action: "Initialize Archive",
	},
	{
		label:  "Permission",
		desc:   "Secure local access",
		kicker: "Full Disk Access",
		title:  "Grant Permission",
		body: []string{
			"To read your messages database, macOS requires Full Disk Access",
			"for your terminal or IDE.",
			"",
			"1. Open System Settings",
			"2. Go to Privacy & Security > Full Disk Access",
			"3. Enable access for your Terminal / VS Code",
		},
		action: "Verify Access",
	},
	{
		label:  "Context",
		desc:   "Connect message history",
		kicker: "Ready to Index",
		title:  "Ready to Index",
		body: []string{
			"Your archive will be initialized in the default location:",
			"",
			"  ~/Library/Application Support/Archiver/output",
		},
		action: "Enter Vault",
	},
}

// onboardingState is the first-run flow. step indexes onboardingSteps.
type onboardingState struct {
	step     int
	checking bool
	status   archive.OnboardingState
}

func (m Model) handleOnboardingStatus(msg onboardingStatusMsg) (tea.Model, tea.Cmd) {
	m.onboarding.checking = false
	if msg.err != nil {
		logging.Warning("[Onboarding] status check failed: %v", msg.err)
		m.page = PageOnboarding
		return m, nil
	}
	m.onboarding.status = msg.state
	if msg.state.Complete {
		m.completeOnboarding()
		return m, nil
	}
	m.page = PageOnboarding
	return m, nil
}

func (m Model) handleOnboardingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		if m.onboarding.step < len(onboardingSteps)-1 {
			m.onboarding.step++
			return m, nil
		}
		m.completeOnboarding()
		return m, nil
	case key.Matches(msg, m.keys.Back):
		if m.onboarding.step > 0 {
			m.onboarding.step--
		}
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil
	}
	return m, nil
}

// completeOnboarding persists completion and shows the dashboard.
func (m *Model) completeOnboarding() {
	m.prefs.OnboardingComplete = true
	m.savePrefs()
	m.onboarding.step = 0
	m.page = PageDashboard
	logging.Info("[Onboarding] complete")
}

func (m Model) renderOnboarding() string {
	styles := m.theme.Styles()
	step := onboardingSteps[m.onboarding.step]

	// Timeline rail
	var rail strings.Builder
	for i, s := range onboardingSteps {
		marker := fmt.Sprintf("%d", i+1)
		labelStyle := styles.MutedText
		markerStyle := styles.FaintText
		switch {
		case i < m.onboarding.step:
			marker = "✓"
			markerStyle = styles.SuccessText
		case i == m.onboarding.step:
			markerStyle = styles.AccentText.Bold(true)
			labelStyle = styles.Text.Bold(true)
		}
		rail.WriteString(markerStyle.Render("("+marker+")") + " " + labelStyle.Render(s.label) + "\n")
		rail.WriteString("    " + styles.FaintText.Render(s.desc) + "\n\n")
	}

	// Step content
	var body strings.Builder
	body.WriteString(styles.AccentText.Render(strings.ToUpper(step.kicker)))
	body.WriteString("\n\n")
	body.WriteString(styles.Text.Bold(true).Render(step.title))
	body.WriteString("\n\n")
	for _, line := range step.body {
		body.WriteString(styles.MutedText.Render(line))
		body.WriteString("\n")
	}
	if m.onboarding.step == 1 && m.onboarding.status.Known {
		body.WriteString("\n")
		if m.onboarding.status.FullDiskAccess {
			body.WriteString(styles.SuccessText.Render("Full Disk Access detected."))
		} else {
			body.WriteString(styles.WarningText.Render("Full Disk Access not detected yet."))
		}
		body.WriteString("\n")
	}
	body.WriteString("\n")
	body.WriteString(styles.Selected.Bold(true).Padding(0, 2).Render(step.action + " ⏎"))
	if m.onboarding.step > 0 {
		body.WriteString("  " + styles.FaintText.Render("backspace: Back"))
	}

	railW := 30
	content := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(railW).Render(rail.String()),
		lipgloss.NewStyle().Width(maxInt(m.contentWidth()-railW-4, 20)).Render(body.String()),
	)
	return lipgloss.Place(maxInt(m.contentWidth()-2, 10), m.bodyHeight(), lipgloss.Center, lipgloss.Center, content)
}
