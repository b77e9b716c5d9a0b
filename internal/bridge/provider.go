package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"employee-directory/internal/models"
	"employee-directory/internal/password"
	"employee-directory/internal/repository"

	"github.com/sirupsen/logrus"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already belongs to another employee")
)

// Provider is the contract the identity provider host calls into.
type Provider interface {
	LookupByIdentifier(ctx context.Context, identifier string) (*User, error)
	ValidateCredential(ctx context.Context, identifier, secret string) (bool, error)
	Update(ctx context.Context, user *User) error
}

type ProviderConfig struct {
	ComponentID string
	// LegacyPlaintext allows stored values without a bcrypt prefix to be
	// compared as plaintext.
	LegacyPlaintext bool
}

type employeeProvider struct {
	repo repository.EmployeeRepository
	cfg  ProviderConfig
	log  *logrus.Entry
}

func NewEmployeeProvider(repo repository.EmployeeRepository, cfg ProviderConfig, logger *logrus.Logger) Provider {
	return &employeeProvider{
		repo: repo,
		cfg:  cfg,
		log:  logger.WithField("component", "identity-bridge"),
	}
}

func (p *employeeProvider) LookupByIdentifier(ctx context.Context, identifier string) (*User, error) {
	email := ExternalID(identifier)
	e, err := p.repo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		p.log.WithField("email", email).Debug("No employee for identifier")
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return newUser(p.cfg.ComponentID, e), nil
}

func (p *employeeProvider) ValidateCredential(ctx context.Context, identifier, secret string) (bool, error) {
	email := ExternalID(identifier)
	log := p.log.WithField("email", email)

	e, err := p.repo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		log.Debug("Employee not found for password validation")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !password.IsHashed(e.Password) {
		if !p.cfg.LegacyPlaintext {
			log.Warn("Stored password is not hashed and legacy plaintext is disabled")
			return false, nil
		}
		log.Warn("Validating against a plaintext stored password")
	}

	valid, err := password.Verify(e.Password, secret, p.cfg.LegacyPlaintext)
	if err != nil {
		return false, fmt.Errorf("verify password for %s: %w", email, err)
	}
	log.WithField("valid", valid).Info("Password validation")
	return valid, nil
}

// Update writes the user's profile back to the employee row. The stored
// role is left as is since the representation only carries permissions,
// and a blank first and last name keep the stored name.
func (p *employeeProvider) Update(ctx context.Context, user *User) error {
	current, err := p.current(ctx, user)
	if err != nil {
		return err
	}

	email := user.Email
	if email == "" {
		email = current.Email
	}
	if email != current.Email {
		n, err := p.repo.CountByEmail(ctx, email)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrEmailTaken
		}
	}

	if name := strings.TrimSpace(JoinName(user.FirstName, user.LastName)); name != "" {
		current.Name = name
	}
	current.Email = email
	if v, ok := user.Attributes["department"]; ok {
		current.Department = firstOrNil(v)
	}
	if v, ok := user.Attributes["phone"]; ok {
		current.Phone = firstOrNil(v)
	}

	if err := p.repo.Update(ctx, current); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	p.log.WithFields(logrus.Fields{"employee_id": current.ID, "email": email}).Info("Updated employee from identity provider")
	return nil
}

func (p *employeeProvider) current(ctx context.Context, user *User) (*models.Employee, error) {
	var (
		e   *models.Employee
		err error
	)
	if user.EmployeeID != 0 {
		e, err = p.repo.FindByID(ctx, user.EmployeeID)
	} else {
		e, err = p.repo.FindByEmail(ctx, ExternalID(user.Username))
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return e, err
}

func firstOrNil(vals []string) *string {
	if len(vals) == 0 || vals[0] == "" {
		return nil
	}
	v := vals[0]
	return &v
}
