// Package directory looks up display names and organizational units for
// login identities. Lookups are best effort; callers proceed with the raw
// identity when the directory is absent or failing.
package directory

import (
	"context"
	"strings"
	"tidsregistrering/internal/models"

	"go.uber.org/zap"
)

// UnknownOrgUnit is recorded when no organizational unit can be resolved.
const UnknownOrgUnit = "Unknown"

// Directory returns "" when the attribute is unknown.
type Directory interface {
	LookupDisplayName(ctx context.Context, identity string) (string, error)
	LookupOrgUnit(ctx context.Context, identity string) (string, error)
}

type Profile struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"display_name"`
	OrgUnit     string `json:"org_unit"`
	Found       bool   `json:"-"`
}

// ProfileLookup is implemented by directories that can fetch both
// attributes in one round trip.
type ProfileLookup interface {
	LookupProfile(ctx context.Context, identity string) (displayName, orgUnit string, err error)
}

// Resolve never fails; dir may be nil.
func Resolve(ctx context.Context, dir Directory, identity string, lg *zap.SugaredLogger) Profile {
	p := Profile{
		Identity:    identity,
		DisplayName: models.AccountName(identity),
		OrgUnit:     UnknownOrgUnit,
	}
	if dir == nil || strings.TrimSpace(identity) == "" {
		return p
	}

	if pl, ok := dir.(ProfileLookup); ok {
		name, ou, err := pl.LookupProfile(ctx, identity)
		if err != nil {
			if lg != nil {
				lg.Warnw("directory profile lookup failed", "identity", identity, "error", err)
			}
			return p
		}
		p.apply(name, ou)
		return p
	}

	name, err := dir.LookupDisplayName(ctx, identity)
	if err != nil {
		if lg != nil {
			lg.Warnw("directory display name lookup failed", "identity", identity, "error", err)
		}
		return p
	}
	p.apply(name, "")

	ou, err := dir.LookupOrgUnit(ctx, identity)
	if err != nil {
		if lg != nil {
			lg.Warnw("directory org unit lookup failed", "identity", identity, "error", err)
		}
		return p
	}
	p.apply("", ou)
	return p
}

func (p *Profile) apply(name, ou string) {
	if name != "" {
		p.DisplayName = name
		p.Found = true
	}
	if ou != "" {
		p.OrgUnit = ou
		p.Found = true
	}
}
