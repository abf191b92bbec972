// ABOUTME: Shared lipgloss styles for consistent terminal output
// ABOUTME: Defines colors, badges and text styles used by command output and forms

package styles

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/ridectl/internal/models"
)

var (
	// Colors - Core palette
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Danger    = lipgloss.Color("#EF4444") // Red
	Muted     = lipgloss.Color("#6B7280") // Gray
	Text      = lipgloss.Color("#F9FAFB") // Light
	Accent    = lipgloss.Color("#8B5CF6") // Lighter purple for highlights
	Info      = lipgloss.Color("#3B82F6") // Blue

	// Base styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted)

	// Status indicators
	StatusOK = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	StatusWarning = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	StatusCritical = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)

	// Key style for labels
	KeyStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	// Value style for emphasized data
	ValueStyle = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(0, 1)
)

var roleColors = map[models.Role]lipgloss.Color{
	models.RoleAdmin:   Danger,
	models.RoleCompany: Info,
	models.RoleDriver:  Secondary,
	models.RoleRider:   Accent,
}

// RoleBadge renders a role as a colored label
func RoleBadge(role models.Role) string {
	color, ok := roleColors[role]
	if !ok {
		color = Muted
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(string(role))
}

// OrderStatus renders an order status with a color matching its outcome
func OrderStatus(status models.OrderStatus) string {
	switch status {
	case models.OrderCompleted:
		return StatusOK.Render(string(status))
	case models.OrderCancelled:
		return StatusCritical.Render(string(status))
	case models.OrderPending, models.OrderAccepted:
		return StatusWarning.Render(string(status))
	default:
		return Subtitle.Render(string(status))
	}
}

// Expiry renders time left on a session, turning amber under five minutes
func Expiry(d time.Duration, known bool) string {
	if !known {
		return Subtitle.Render("unknown")
	}
	if d <= 0 {
		return StatusCritical.Render("expired")
	}
	text := d.Truncate(time.Second).String()
	if d < 5*time.Minute {
		return StatusWarning.Render(text)
	}
	return StatusOK.Render(text)
}

// Field renders a "label: value" line
func Field(label string, value any) string {
	return fmt.Sprintf("%s %v", KeyStyle.Render(label+":"), value)
}
