// ABOUTME: Best-effort persistence of the session credential and subject
// ABOUTME: Never fails its caller; corrupted entries are removed on read

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/markalston/ridectl/internal/models"
)

// Snapshot is the persisted session as read from the store
type Snapshot struct {
	Credential string
	Subject    *models.Subject
}

// Complete reports whether both halves of the session are present
func (s Snapshot) Complete() bool {
	return s.Credential != "" && s.Subject != nil
}

// Adapter persists the session into a KV with best-effort semantics.
// Save, SaveSubject and Clear never return errors; loads report absence
// instead of failure.
type Adapter struct {
	kv     KV
	logger *slog.Logger
}

// AdapterOption configures an Adapter
type AdapterOption func(*Adapter)

// WithLogger sets the logger used for swallowed failures
func WithLogger(l *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		a.logger = l
	}
}

// NewAdapter wraps kv
func NewAdapter(kv KV, opts ...AdapterOption) *Adapter {
	a := &Adapter{kv: kv, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Save persists the credential and subject. Empty values are skipped so a
// partial save never erases the other key.
func (a *Adapter) Save(ctx context.Context, credential string, subject *models.Subject) {
	if credential != "" {
		if err := a.kv.Set(ctx, CredentialKey, credential); err != nil {
			a.logger.Warn("Failed to persist credential", "error", err)
		}
	}
	a.SaveSubject(ctx, subject)
}

// SaveSubject persists only the subject, leaving the credential untouched
func (a *Adapter) SaveSubject(ctx context.Context, subject *models.Subject) {
	if subject == nil {
		return
	}
	data, err := json.Marshal(subject)
	if err != nil {
		a.logger.Warn("Failed to encode subject", "error", err)
		return
	}
	if err := a.kv.Set(ctx, SubjectKey, string(data)); err != nil {
		a.logger.Warn("Failed to persist subject", "error", err)
	}
}

// Clear removes both keys
func (a *Adapter) Clear(ctx context.Context) {
	for _, key := range []string{CredentialKey, SubjectKey} {
		if err := a.kv.Delete(ctx, key); err != nil {
			a.logger.Warn("Failed to clear persisted session", "key", key, "error", err)
		}
	}
}

// LoadCredential returns the persisted credential, or false on absence or failure
func (a *Adapter) LoadCredential(ctx context.Context) (string, bool) {
	cred, err := a.loadCredential(ctx)
	if err != nil {
		a.logger.Warn("Failed to load credential", "error", err)
		return "", false
	}
	return cred, cred != ""
}

// LoadSubject returns the persisted subject, or false on absence or failure.
// A corrupted entry is deleted so later loads do not keep failing.
func (a *Adapter) LoadSubject(ctx context.Context) (*models.Subject, bool) {
	subject, err := a.loadSubject(ctx)
	if err != nil {
		a.logger.Warn("Failed to load subject", "error", err)
		return nil, false
	}
	return subject, subject != nil
}

// Load reads both keys and reports failures instead of swallowing them.
// Returns an error wrapping ErrCorrupt when the subject entry was unreadable.
func (a *Adapter) Load(ctx context.Context) (Snapshot, error) {
	cred, err := a.loadCredential(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	subject, err := a.loadSubject(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Credential: cred, Subject: subject}, nil
}

func (a *Adapter) loadCredential(ctx context.Context) (string, error) {
	cred, err := a.kv.Get(ctx, CredentialKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", CredentialKey, err)
	}
	return cred, nil
}

func (a *Adapter) loadSubject(ctx context.Context) (*models.Subject, error) {
	raw, err := a.kv.Get(ctx, SubjectKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", SubjectKey, err)
	}

	var subject *models.Subject
	decodeErr := json.Unmarshal([]byte(raw), &subject)
	if decodeErr == nil && subject != nil && !subject.Role.Valid() {
		decodeErr = fmt.Errorf("unknown role %q", subject.Role)
	}
	if decodeErr != nil {
		if err := a.kv.Delete(ctx, SubjectKey); err != nil {
			a.logger.Warn("Failed to remove corrupted subject", "error", err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, SubjectKey, decodeErr)
	}
	return subject, nil
}
