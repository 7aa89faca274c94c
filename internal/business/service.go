package business

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("business: not found")

// Repo resolves which business owns a phone number.
type Repo interface {
	GetByPhoneNumber(ctx context.Context, number string) (Profile, error)
}

// Service wraps the repo with an optional fallback profile used when no
// configured number matches, so a demo deployment can answer any number.
type Service struct {
	Repo     Repo
	Fallback *Profile
}

func (s Service) Resolve(ctx context.Context, number string) (Profile, error) {
	p, err := s.Repo.GetByPhoneNumber(ctx, number)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, ErrNotFound) && s.Fallback != nil {
		return *s.Fallback, nil
	}
	return Profile{}, err
}
