package directory

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"tidsregistrering/internal/config"
	"tidsregistrering/internal/models"
	"time"

	"github.com/go-ldap/ldap/v3"
)

var ouPattern = regexp.MustCompile(`(?i)OU=([^,]+)`)

// LDAP queries an Active Directory compatible server by sAMAccountName.
type LDAP struct {
	cfg config.LDAPConfig
}

func NewLDAP(cfg config.LDAPConfig) *LDAP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &LDAP{cfg: cfg}
}

func (l *LDAP) LookupDisplayName(ctx context.Context, identity string) (string, error) {
	entry, err := l.find(ctx, identity)
	if err != nil || entry == nil {
		return "", err
	}
	return displayNameOf(entry), nil
}

// LookupOrgUnit prefers the department attribute and falls back to the first
// OU component of the distinguished name.
func (l *LDAP) LookupOrgUnit(ctx context.Context, identity string) (string, error) {
	entry, err := l.find(ctx, identity)
	if err != nil || entry == nil {
		return "", err
	}
	return orgUnitOf(entry.GetAttributeValue("department"), entry.DN), nil
}

// LookupProfile reads display name and org unit from a single search.
func (l *LDAP) LookupProfile(ctx context.Context, identity string) (string, string, error) {
	entry, err := l.find(ctx, identity)
	if err != nil || entry == nil {
		return "", "", err
	}
	return displayNameOf(entry), orgUnitOf(entry.GetAttributeValue("department"), entry.DN), nil
}

func displayNameOf(entry *ldap.Entry) string {
	if v := entry.GetAttributeValue("displayName"); v != "" {
		return v
	}
	return entry.GetAttributeValue("cn")
}

func orgUnitOf(department, dn string) string {
	if department != "" {
		return department
	}
	if m := ouPattern.FindStringSubmatch(dn); m != nil {
		return m[1]
	}
	return ""
}

func (l *LDAP) find(ctx context.Context, identity string) (*ldap.Entry, error) {
	account := models.AccountName(identity)
	if account == "" {
		return nil, nil
	}

	deadline := time.Now().Add(l.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn, err := ldap.DialURL(l.cfg.URL, ldap.DialWithDialer(&net.Dialer{Deadline: deadline}))
	if err != nil {
		return nil, fmt.Errorf("ldap dial: %w", err)
	}
	defer conn.Close()
	conn.SetTimeout(time.Until(deadline))

	if l.cfg.BindDN != "" {
		if err := conn.Bind(l.cfg.BindDN, l.cfg.BindPassword); err != nil {
			return nil, fmt.Errorf("ldap bind: %w", err)
		}
	}

	req := ldap.NewSearchRequest(
		l.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, int(l.cfg.Timeout/time.Second), false,
		fmt.Sprintf("(&(objectClass=user)(sAMAccountName=%s))", ldap.EscapeFilter(account)),
		[]string{"displayName", "cn", "department"},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return nil, nil
		}
		return nil, fmt.Errorf("ldap search: %w", err)
	}
	if len(res.Entries) == 0 {
		return nil, nil
	}
	return res.Entries[0], nil
}
