// ABOUTME: Interactive sign-in and registration forms built on huh
// ABOUTME: Collects credentials when they are not given as flags

package loginform

import (
	"context"
	"errors"
	"io"
	"net/mail"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/ridectl/internal/models"
	"github.com/markalston/ridectl/internal/tui/styles"
)

// Values holds the fields a form fills in
type Values struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     string
}

// LoginRequest converts the collected values to an API request
func (v *Values) LoginRequest() models.LoginRequest {
	return models.LoginRequest{Email: strings.TrimSpace(v.Email), Password: v.Password}
}

// RegisterRequest converts the collected values to an API request
func (v *Values) RegisterRequest() (models.RegisterRequest, error) {
	role, err := models.ParseRole(v.Role)
	if err != nil {
		return models.RegisterRequest{}, err
	}
	return models.RegisterRequest{
		Email:    strings.TrimSpace(v.Email),
		Password: v.Password,
		Name:     strings.TrimSpace(v.Name),
		Phone:    strings.TrimSpace(v.Phone),
		Role:     role,
	}, nil
}

// Missing reports whether the sign-in fields still need input
func (v *Values) Missing() bool {
	return strings.TrimSpace(v.Email) == "" || v.Password == ""
}

// createTheme returns a huh theme using the shared palette
func createTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Group.Title = lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		MarginBottom(1)
	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(styles.Primary)
	t.Focused.Title = lipgloss.NewStyle().
		Foreground(styles.Accent).
		Bold(true)
	t.Focused.ErrorMessage = lipgloss.NewStyle().
		Foreground(styles.Danger)
	t.Blurred = t.Focused
	t.Blurred.Base = t.Blurred.Base.BorderStyle(lipgloss.HiddenBorder())

	return t
}

// NewLogin builds the sign-in form bound to v
func NewLogin(v *Values) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			emailInput(v),
			passwordInput(v),
		).Title("Sign in"),
	).WithTheme(createTheme())
}

// registrationRoles excludes admin; admins are provisioned by the backend
var registrationRoles = []huh.Option[string]{
	huh.NewOption("Rider", string(models.RoleRider)),
	huh.NewOption("Driver", string(models.RoleDriver)),
	huh.NewOption("Company", string(models.RoleCompany)),
}

// NewRegister builds the registration form bound to v
func NewRegister(v *Values) *huh.Form {
	if v.Role == "" {
		v.Role = string(models.RoleRider)
	}
	return huh.NewForm(
		huh.NewGroup(
			emailInput(v),
			passwordInput(v),
			huh.NewInput().
				Title("Name").
				Value(&v.Name).
				Validate(validateRequired("name")),
			huh.NewInput().
				Title("Phone").
				Placeholder("optional").
				Value(&v.Phone),
			huh.NewSelect[string]().
				Title("Account type").
				Options(registrationRoles...).
				Value(&v.Role),
		).Title("Create account"),
	).WithTheme(createTheme())
}

// Run shows the form on the given streams until it is submitted or ctx ends
func Run(ctx context.Context, form *huh.Form, in io.Reader, out io.Writer, accessible bool) error {
	err := form.
		WithInput(in).
		WithOutput(out).
		WithAccessible(accessible).
		RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return err
}

// ErrAborted is returned when the user cancels the form
var ErrAborted = errors.New("sign-in cancelled")

func emailInput(v *Values) *huh.Input {
	return huh.NewInput().
		Title("Email").
		Placeholder("you@example.com").
		Value(&v.Email).
		Validate(validateEmail)
}

func passwordInput(v *Values) *huh.Input {
	return huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&v.Password).
		Validate(validateRequired("password"))
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return errors.New("enter a valid email address")
	}
	return nil
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}
