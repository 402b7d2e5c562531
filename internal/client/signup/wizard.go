// Package signup drives the email, verification, password and success steps
// of account creation.
package signup

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/kinboost-api/internal/domain"
	"github.com/kinboost-api/internal/pkg/otpcode"
)

type Step int

const (
	StepEmail Step = iota
	StepVerification
	StepPassword
	StepSuccess
)

func (s Step) String() string {
	switch s {
	case StepEmail:
		return "email"
	case StepVerification:
		return "verification"
	case StepPassword:
		return "password"
	case StepSuccess:
		return "success"
	}
	return "unknown"
}

const (
	MsgInvalidEmail     = "Veuillez entrer une adresse email valide"
	MsgInvalidCode      = "Le code doit contenir 6 chiffres"
	MsgWeakPassword     = "Le mot de passe doit contenir au moins 6 caractères"
	MsgPasswordMismatch = "Les mots de passe ne correspondent pas"
)

const minPasswordLength = 6

var (
	// ErrWrongStep is returned when an action does not belong to the current step.
	ErrWrongStep = errors.New("signup: action not allowed at this step")
	// ErrReset is returned when Reset ran while the action was in flight.
	ErrReset = errors.New("signup: wizard was reset")
)

// ValidationError is a client-side check failure. Message is user-facing.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// API is the remote signup surface. *api.Client satisfies it.
type API interface {
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	CreateAccount(ctx context.Context, email, password string, storeName *string) (*domain.AccountRef, error)
}

// SignIn signs the new user in. *auth.Client satisfies it.
type SignIn interface {
	SignInWithPassword(ctx context.Context, email, password string) (*domain.AuthSession, error)
}

// Wizard is safe for concurrent use. Network calls happen outside its lock; a
// Reset while one is in flight discards its result.
type Wizard struct {
	api  API
	auth SignIn

	mu      sync.Mutex
	gen     uint64
	step    Step
	email   string
	account *domain.AccountRef
}

func New(api API, auth SignIn) *Wizard {
	return &Wizard{api: api, auth: auth}
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Email() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.email
}

// Account is the created account once the wizard reached StepSuccess.
func (w *Wizard) Account() *domain.AccountRef {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepSuccess {
		return nil
	}
	return w.account
}

// SubmitEmail requests a code for email and moves to StepVerification.
func (w *Wizard) SubmitEmail(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return &ValidationError{Message: MsgInvalidEmail}
	}
	gen, err := w.begin(StepEmail)
	if err != nil {
		return err
	}
	if err := w.api.SendOTP(ctx, email); err != nil {
		return err
	}
	return w.commit(gen, StepEmail, func() {
		w.email = email
		w.step = StepVerification
	})
}

// Resend requests a fresh code for the current email. Earlier codes stay valid.
func (w *Wizard) Resend(ctx context.Context) error {
	w.mu.Lock()
	if w.step != StepVerification {
		w.mu.Unlock()
		return ErrWrongStep
	}
	email := w.email
	w.mu.Unlock()
	return w.api.SendOTP(ctx, email)
}

// Back returns from StepVerification to StepEmail to change the address.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepVerification {
		return ErrWrongStep
	}
	w.gen++
	w.step = StepEmail
	return nil
}

// SubmitCode verifies code for the current email and moves to StepPassword.
func (w *Wizard) SubmitCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if !otpcode.Valid(code) {
		return &ValidationError{Message: MsgInvalidCode}
	}
	gen, err := w.begin(StepVerification)
	if err != nil {
		return err
	}
	email := w.Email()
	if err := w.api.VerifyOTP(ctx, email, code); err != nil {
		return err
	}
	return w.commit(gen, StepVerification, func() {
		w.step = StepPassword
	})
}

// SubmitPassword creates the account, signs it in and moves to StepSuccess.
// When sign-in fails after creation the account is kept and a retry only signs
// in.
func (w *Wizard) SubmitPassword(ctx context.Context, password, confirm string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return &ValidationError{Message: MsgWeakPassword}
	}
	if password != confirm {
		return &ValidationError{Message: MsgPasswordMismatch}
	}
	gen, err := w.begin(StepPassword)
	if err != nil {
		return err
	}

	w.mu.Lock()
	email, account := w.email, w.account
	w.mu.Unlock()

	if account == nil {
		account, err = w.api.CreateAccount(ctx, email, password, nil)
		if err != nil {
			return err
		}
		if err := w.commit(gen, StepPassword, func() { w.account = account }); err != nil {
			return err
		}
	}

	if _, err := w.auth.SignInWithPassword(ctx, email, password); err != nil {
		return err
	}
	return w.commit(gen, StepPassword, func() {
		w.step = StepSuccess
	})
}

// Reset discards all progress, including in-flight actions.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	w.step = StepEmail
	w.email = ""
	w.account = nil
}

func (w *Wizard) begin(step Step) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != step {
		return 0, ErrWrongStep
	}
	return w.gen, nil
}

func (w *Wizard) commit(gen uint64, step Step, apply func()) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != gen || w.step != step {
		return ErrReset
	}
	apply()
	return nil
}
