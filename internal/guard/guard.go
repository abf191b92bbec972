// ABOUTME: Access decisions for protected commands
// ABOUTME: Maps session state and required roles to allow, wait or redirect

package guard

import (
	"fmt"

	"github.com/markalston/ridectl/internal/models"
	"github.com/markalston/ridectl/internal/session"
)

// Outcome is the result of evaluating a guard
type Outcome int

const (
	Allow Outcome = iota
	Wait
	RedirectSignIn
	RedirectUnauthorized
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Wait:
		return "wait"
	case RedirectSignIn:
		return "redirect-sign-in"
	case RedirectUnauthorized:
		return "redirect-unauthorized"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Reader is the read side of a session
type Reader interface {
	State() session.State
	IsAuthenticated() bool
	Subject() (models.Subject, bool)
}

// Decision carries the outcome and, for redirects, where to go
type Decision struct {
	Outcome Outcome
	Target  string
}

// Guard evaluates access to protected locations
type Guard struct {
	SignInPath       string
	UnauthorizedPath string
}

// New returns a Guard with the given redirect locations
func New(signIn, unauthorized string) Guard {
	return Guard{SignInPath: signIn, UnauthorizedPath: unauthorized}
}

// Evaluate decides access for r. An empty required set admits any
// authenticated subject.
func (g Guard) Evaluate(r Reader, required ...models.Role) Decision {
	if r.State() == session.Hydrating {
		return Decision{Outcome: Wait}
	}
	if !r.IsAuthenticated() {
		return Decision{Outcome: RedirectSignIn, Target: g.SignInPath}
	}
	if len(required) == 0 {
		return Decision{Outcome: Allow}
	}
	subject, ok := r.Subject()
	if !ok {
		return Decision{Outcome: RedirectSignIn, Target: g.SignInPath}
	}
	for _, role := range required {
		if subject.Role == role {
			return Decision{Outcome: Allow}
		}
	}
	return Decision{Outcome: RedirectUnauthorized, Target: g.UnauthorizedPath}
}
