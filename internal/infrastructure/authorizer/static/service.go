package staticauthorizer

import (
	"github.com/vestlabs/vestd/internal/core/ports"
)

type service struct {
	admins map[string]struct{}
}

// NewService builds an authorizer from a fixed set of admin addresses.
func NewService(admins []string) ports.Authorizer {
	set := make(map[string]struct{}, len(admins))
	for _, admin := range admins {
		if admin == "" {
			continue
		}
		set[admin] = struct{}{}
	}
	return &service{admins: set}
}

func (s *service) IsPrivileged(caller string) bool {
	_, ok := s.admins[caller]
	return ok
}
