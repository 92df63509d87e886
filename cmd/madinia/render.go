package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apiclient "github.com/steeven-js/madinia-cyber/pkg/api/client"
)

var (
	timeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	mutedStyle = lipgloss.NewStyle().Faint(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)

	levelStyles = map[string]lipgloss.Style{
		"emergency": lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		"alert":     lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		"critical":  lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		"error":     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		"warning":   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"notice":    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		"info":      lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"debug":     lipgloss.NewStyle().Faint(true),
	}
)

// levelWidth fits the longest level name.
const levelWidth = 9

func renderLevel(level string) string {
	label := fmt.Sprintf("%-*s", levelWidth, strings.ToUpper(level))
	if style, ok := levelStyles[strings.ToLower(level)]; ok {
		return style.Render(label)
	}
	return label
}

func renderEntry(entry apiclient.LogEntry) string {
	var b strings.Builder
	b.WriteString(timeStyle.Render(entry.Datetime))
	b.WriteString(" ")
	b.WriteString(renderLevel(entry.Level))
	b.WriteString(" ")
	b.WriteString(entry.Message)
	if len(entry.Context) > 0 {
		if data, err := json.Marshal(entry.Context); err == nil {
			b.WriteString(" ")
			b.WriteString(mutedStyle.Render(string(data)))
		}
	}
	return b.String()
}

func renderStatus(ok bool, message string) string {
	if ok {
		return okStyle.Render("✔") + " " + message
	}
	return failStyle.Render("✘") + " " + message
}

func printUsers(w io.Writer, users []apiclient.User) {
	for _, u := range users {
		role := "-"
		if u.Role != nil {
			role = *u.Role
		}
		lastLogin := "never"
		if u.Metadata.LastLoginAt != nil {
			lastLogin = *u.Metadata.LastLoginAt
		}
		status := "active"
		if u.Disabled {
			status = "disabled"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.UID, deref(u.Email), role, status, lastLogin)
	}
}

func deref(value *string) string {
	if value == nil {
		return "-"
	}
	return *value
}
