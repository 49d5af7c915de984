package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/andre-2112/cloud-cli-access/config"
	"github.com/andre-2112/cloud-cli-access/styles"
)

func runConfigure(args []string) error {
	fs := pflag.NewFlagSet("configure", pflag.ExitOnError)
	startURL := fs.String("sso-start-url", os.Getenv("CCC_SSO_START_URL"), "SSO start URL")
	region := fs.String("sso-region", envOr("CCC_SSO_REGION", config.DefaultSSORegion), "SSO region")
	accountID := fs.String("account-id", os.Getenv("CCC_ACCOUNT_ID"), "AWS account ID")
	roleName := fs.String("role-name", envOr("CCC_ROLE_NAME", config.DefaultRoleName), "IAM role name")
	noInput := fs.Bool("no-input", false, "fail instead of prompting when values are missing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mgr, err := config.NewManager()
	if err != nil {
		return err
	}

	settings := config.Settings{
		SSOStartURL: strings.TrimSpace(*startURL),
		SSORegion:   strings.TrimSpace(*region),
		AccountID:   strings.TrimSpace(*accountID),
		RoleName:    strings.TrimSpace(*roleName),
	}

	if !settings.Complete() {
		if *noInput {
			return errors.New("missing configuration values and --no-input was set")
		}
		settings, err = promptSettings(settings)
		if err != nil {
			return err
		}
	}

	if err := validateSettings(settings); err != nil {
		return err
	}
	if err := mgr.SaveSettings(settings); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(styles.Success("Configuration saved"))
	fmt.Println()
	fmt.Println(styles.Highlight("Configuration:"))
	fmt.Println("  SSO Start URL: " + settings.SSOStartURL)
	fmt.Println("  SSO Region:    " + settings.SSORegion)
	fmt.Println("  Account ID:    " + settings.AccountID)
	fmt.Println("  Role Name:     " + settings.RoleName)
	fmt.Println()
	fmt.Println(styles.Warning("Next step: Run 'ccc login' to authenticate"))
	return nil
}

func validateSettings(s config.Settings) error {
	if !strings.HasPrefix(s.SSOStartURL, "https://") {
		return errors.New("SSO start URL must start with https://")
	}
	if len(s.AccountID) != 12 || strings.Trim(s.AccountID, "0123456789") != "" {
		return errors.New("account ID must be a 12-digit number")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// promptSettings runs the interactive form and returns what the operator
// submitted.
func promptSettings(defaults config.Settings) (config.Settings, error) {
	final, err := tea.NewProgram(newConfigureModel(defaults)).Run()
	if err != nil {
		return config.Settings{}, err
	}

	m, ok := final.(configureModel)
	if !ok || !m.submitted {
		return config.Settings{}, errors.New("configuration cancelled")
	}
	return m.settings(), nil
}

type configureModel struct {
	inputs     []textinput.Model
	focusIndex int
	formError  string
	submitted  bool
}

func newConfigureModel(defaults config.Settings) configureModel {
	labels := []struct {
		placeholder string
		value       string
		limit       int
	}{
		{"https://company.awsapps.com/start", defaults.SSOStartURL, 2048},
		{config.DefaultSSORegion, defaults.SSORegion, 30},
		{"123456789012", defaults.AccountID, 12},
		{config.DefaultRoleName, defaults.RoleName, 64},
	}

	inputs := make([]textinput.Model, len(labels))
	for i, l := range labels {
		t := textinput.New()
		t.Placeholder = l.placeholder
		t.SetValue(l.value)
		t.CharLimit = l.limit
		t.Width = 48
		t.Prompt = "› "
		t.PromptStyle = styles.BlurredStyle
		if i == 0 {
			t.Focus()
			t.PromptStyle = styles.FocusedStyle
		}
		inputs[i] = t
	}

	return configureModel{inputs: inputs}
}

func (m configureModel) settings() config.Settings {
	return config.Settings{
		SSOStartURL: strings.TrimSpace(m.inputs[0].Value()),
		SSORegion:   strings.TrimSpace(m.inputs[1].Value()),
		AccountID:   strings.TrimSpace(m.inputs[2].Value()),
		RoleName:    strings.TrimSpace(m.inputs[3].Value()),
	}
}

func (m configureModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m configureModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab", "shift+tab", "enter", "up", "down":
			if msg.String() == "enter" && m.focusIndex == len(m.inputs) {
				s := m.settings()
				if !s.Complete() {
					m.formError = "All fields are required"
					return m, nil
				}
				if err := validateSettings(s); err != nil {
					m.formError = err.Error()
					return m, nil
				}
				m.submitted = true
				return m, tea.Quit
			}

			if msg.String() == "up" || msg.String() == "shift+tab" {
				m.focusIndex--
			} else {
				m.focusIndex++
			}
			if m.focusIndex > len(m.inputs) {
				m.focusIndex = 0
			} else if m.focusIndex < 0 {
				m.focusIndex = len(m.inputs)
			}

			cmds := make([]tea.Cmd, 0, len(m.inputs))
			for i := range m.inputs {
				if i == m.focusIndex {
					cmds = append(cmds, m.inputs[i].Focus())
					m.inputs[i].PromptStyle = styles.FocusedStyle
				} else {
					m.inputs[i].Blur()
					m.inputs[i].PromptStyle = styles.BlurredStyle
				}
			}
			return m, tea.Batch(cmds...)
		}
	}

	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m configureModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("Configure Cloud CLI Access"))
	b.WriteString("\n\n")

	labels := []string{"SSO Start URL", "SSO Region", "AWS Account ID", "IAM Role Name"}
	for i, t := range m.inputs {
		b.WriteString(labels[i])
		b.WriteString("\n")
		b.WriteString(t.View())
		b.WriteString("\n\n")
	}

	if m.focusIndex == len(m.inputs) {
		b.WriteString(styles.FocusedStyle.Render("[ Save ]"))
	} else {
		b.WriteString(styles.BlurredStyle.Render("[ Save ]"))
	}
	b.WriteString("\n")

	if m.formError != "" {
		b.WriteString("\n")
		b.WriteString(styles.Error(m.formError))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.Muted("tab/shift+tab to move, enter to save, esc to cancel"))
	b.WriteString("\n")
	return b.String()
}
