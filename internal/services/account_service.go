// Package services – AccountService
//
// AccountService owns both account collections. Users and professionals
// register separately, log in through the same entry point (the requested
// role picks the collection), and edit their own profiles. Every successful
// login or profile edit returns a freshly signed credential; credentials
// already handed out are never revoked.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/planora/planora-backend/internal/auth"
	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repo"
)

// AccountService registers, authenticates and updates accounts.
type AccountService struct {
	Users         repo.DocumentStore[domain.User]
	Professionals repo.DocumentStore[domain.Professional]
	Tokens        TokenIssuer
	Files         FileStore
}

// AccountView is the public projection of an account.
type AccountView struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  auth.Role `json:"role"`
}

// Session is a signed credential plus the account it was issued for.
type Session struct {
	Token string      `json:"token"`
	User  AccountView `json:"user"`
}

// RegisterInput is the client signup payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Location string
}

// UserPatch carries optional profile changes; empty fields are left alone.
type UserPatch struct {
	Name     string
	Phone    string
	Location string
}

// ProfessionalInput is the professional signup payload.
type ProfessionalInput struct {
	Name            string
	Email           string
	Password        string
	Specialization  string
	Phone           string
	City            string
	State           string
	Bio             string
	ExperienceYears int
	HourlyRate      float64
}

// ProfessionalPatch carries optional profile changes. Nil or empty fields are
// left alone.
type ProfessionalPatch struct {
	Name            string
	Specialization  string
	Phone           string
	City            string
	State           string
	Bio             string
	ExperienceYears *int
	HourlyRate      *float64
}

// Document form fields accepted on a professional profile update and the
// columns they fill.
var documentFields = map[string]string{
	"degree":     "degree_document",
	"license":    "license_document",
	"idProof":    "id_proof_document",
	"profilePic": "profile_image",
}

// Register creates a client account and signs a credential for it.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := required(map[string]string{"name": in.Name, "email": in.Email, "password": in.Password}); err != nil {
		return nil, err
	}

	existing, err := s.Users.Query(ctx, repo.Query{Filters: []repo.Filter{repo.Eq("email", in.Email)}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrAccountExists
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
		Phone:    strings.TrimSpace(in.Phone),
		Location: strings.TrimSpace(in.Location),
		Role:     domain.RoleUser,
	}
	id, err := s.Users.Add(ctx, u)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrAccountExists
	}
	if err != nil {
		return nil, err
	}
	return s.session(auth.Identity{ID: id, Email: u.Email, Name: u.Name, Role: auth.RoleUser})
}

// Login checks a password against the collection selected by role. An
// empty role means a client account.
func (s *AccountService) Login(ctx context.Context, email, password, role string) (*Session, error) {
	r, err := auth.ParseRole(strings.TrimSpace(role))
	if err != nil {
		return nil, invalid("role must be user or professional")
	}
	email = normalizeEmail(email)
	if err := required(map[string]string{"email": email, "password": password}); err != nil {
		return nil, err
	}

	var id auth.Identity
	var hash string
	q := repo.Query{Filters: []repo.Filter{repo.Eq("email", email)}, Limit: 1}
	if r == auth.RoleProfessional {
		found, err := s.Professionals.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, ErrAccountNotFound
		}
		p := found[0]
		id, hash = auth.Identity{ID: p.ID, Email: p.Email, Name: p.Name, Role: r}, p.Password
	} else {
		found, err := s.Users.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, ErrAccountNotFound
		}
		u := found[0]
		id, hash = auth.Identity{ID: u.ID, Email: u.Email, Name: u.Name, Role: r}, u.Password
	}

	if err := auth.CheckPassword(hash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	return s.session(id)
}

// UpdateUser applies a patch to the caller's own client profile and returns
// the updated account with a new credential.
func (s *AccountService) UpdateUser(ctx context.Context, caller auth.Identity, userID string, in UserPatch) (*domain.User, string, error) {
	if err := auth.RequireOwner(caller, userID); err != nil {
		return nil, "", err
	}
	patch := repo.Patch{}
	setIf(patch, "name", in.Name)
	setIf(patch, "phone", in.Phone)
	setIf(patch, "location", in.Location)

	if err := s.Users.Update(ctx, userID, patch); err != nil {
		return nil, "", notFound(err, ErrUserNotFound)
	}
	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		return nil, "", notFound(err, ErrUserNotFound)
	}
	tok, err := s.Tokens.Issue(auth.Identity{ID: u.ID, Email: u.Email, Name: u.Name, Role: auth.RoleUser})
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return u, tok, nil
}

// RegisterProfessional creates an unverified professional account with a
// zero rating aggregate. degree is optional.
func (s *AccountService) RegisterProfessional(ctx context.Context, in ProfessionalInput, degree *Upload) (string, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := required(map[string]string{"name": in.Name, "email": in.Email, "password": in.Password}); err != nil {
		return "", err
	}
	if in.ExperienceYears < 0 || in.HourlyRate < 0 {
		return "", invalid("experience_years and hourly_rate must not be negative")
	}

	existing, err := s.Professionals.Query(ctx, repo.Query{Filters: []repo.Filter{repo.Eq("email", in.Email)}, Limit: 1})
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return "", ErrAccountExists
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return "", err
	}
	p := &domain.Professional{
		Name:            in.Name,
		Email:           in.Email,
		Password:        hash,
		Specialization:  strings.TrimSpace(in.Specialization),
		Phone:           strings.TrimSpace(in.Phone),
		City:            strings.TrimSpace(in.City),
		State:           strings.TrimSpace(in.State),
		Bio:             strings.TrimSpace(in.Bio),
		ExperienceYears: in.ExperienceYears,
		HourlyRate:      in.HourlyRate,
		Role:            domain.RoleProfessional,
	}
	saved := &savedUploads{files: s.Files}
	if degree != nil {
		f, err := saved.save(*degree)
		if err != nil {
			return "", fmt.Errorf("store degree: %w", err)
		}
		p.DegreeDocument = f.URL
	}

	id, err := s.Professionals.Add(ctx, p)
	if err != nil {
		saved.discard()
		if errors.Is(err, repo.ErrDuplicate) {
			return "", ErrAccountExists
		}
		return "", err
	}
	return id, nil
}

// UpdateProfessional applies a patch and document uploads to the caller's
// own professional profile. Keys of docs are form field names (degree,
// license, idProof, profilePic); unknown keys are ignored.
func (s *AccountService) UpdateProfessional(ctx context.Context, caller auth.Identity, professionalID string, in ProfessionalPatch, docs map[string]Upload) (*domain.Professional, string, error) {
	if err := auth.RequireOwner(caller, professionalID); err != nil {
		return nil, "", err
	}
	if (in.ExperienceYears != nil && *in.ExperienceYears < 0) || (in.HourlyRate != nil && *in.HourlyRate < 0) {
		return nil, "", invalid("experience_years and hourly_rate must not be negative")
	}
	if _, err := s.Professionals.Get(ctx, professionalID); err != nil {
		return nil, "", notFound(err, ErrProfessionalNotFound)
	}

	patch := repo.Patch{}
	setIf(patch, "name", in.Name)
	setIf(patch, "specialization", in.Specialization)
	setIf(patch, "phone", in.Phone)
	setIf(patch, "city", in.City)
	setIf(patch, "state", in.State)
	setIf(patch, "bio", in.Bio)
	if in.ExperienceYears != nil {
		patch["experience_years"] = *in.ExperienceYears
	}
	if in.HourlyRate != nil {
		patch["hourly_rate"] = *in.HourlyRate
	}
	saved := &savedUploads{files: s.Files}
	for field, up := range docs {
		col, ok := documentFields[field]
		if !ok {
			continue
		}
		f, err := saved.save(up)
		if err != nil {
			saved.discard()
			return nil, "", fmt.Errorf("store %s: %w", field, err)
		}
		patch[col] = f.URL
	}

	if err := s.Professionals.Update(ctx, professionalID, patch); err != nil {
		saved.discard()
		return nil, "", notFound(err, ErrProfessionalNotFound)
	}
	p, err := s.Professionals.Get(ctx, professionalID)
	if err != nil {
		return nil, "", notFound(err, ErrProfessionalNotFound)
	}
	tok, err := s.Tokens.Issue(auth.Identity{ID: p.ID, Email: p.Email, Name: p.Name, Role: auth.RoleProfessional})
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return p, tok, nil
}

func (s *AccountService) session(id auth.Identity) (*Session, error) {
	tok, err := s.Tokens.Issue(id)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{
		Token: tok,
		User:  AccountView{ID: id.ID, Name: id.Name, Email: id.Email, Role: id.Role},
	}, nil
}

func setIf(p repo.Patch, col, v string) {
	if v = strings.TrimSpace(v); v != "" {
		p[col] = v
	}
}
