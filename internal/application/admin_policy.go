package application

import "strings"

// AdminPolicy grants administrator capability to an allowlist of emails and
// user ids. The zero policy grants nothing.
type AdminPolicy struct {
	emails  map[string]struct{}
	userIDs map[string]struct{}
}

// NewAdminPolicy builds a policy. Emails compare case-insensitively.
func NewAdminPolicy(emails, userIDs []string) *AdminPolicy {
	p := &AdminPolicy{
		emails:  make(map[string]struct{}, len(emails)),
		userIDs: make(map[string]struct{}, len(userIDs)),
	}
	for _, email := range emails {
		if e := strings.ToLower(strings.TrimSpace(email)); e != "" {
			p.emails[e] = struct{}{}
		}
	}
	for _, id := range userIDs {
		if id = strings.TrimSpace(id); id != "" {
			p.userIDs[id] = struct{}{}
		}
	}
	return p
}

// IsAdmin reports whether the user is on the allowlist.
func (p *AdminPolicy) IsAdmin(user User) bool {
	if p == nil {
		return false
	}
	if _, ok := p.userIDs[user.ID]; ok {
		return true
	}
	_, ok := p.emails[strings.ToLower(strings.TrimSpace(user.Email))]
	return ok
}

// PrincipalFor builds the principal of an authenticated user.
func (p *AdminPolicy) PrincipalFor(user User) Principal {
	return Principal{UserID: user.ID, Email: user.Email, IsAdmin: p.IsAdmin(user)}
}

// Size returns the number of allowlist entries.
func (p *AdminPolicy) Size() int {
	if p == nil {
		return 0
	}
	return len(p.emails) + len(p.userIDs)
}

func requireAdmin(principal Principal) error {
	if principal.UserID == "" {
		return ErrUnauthenticated
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	return nil
}
