package directory

import (
	"context"
	"errors"
	"testing"
	"tidsregistrering/internal/config"

	"github.com/stretchr/testify/assert"
)

type stubDirectory struct {
	names map[string]string
	units map[string]string
	err   error
}

func (s stubDirectory) LookupDisplayName(_ context.Context, identity string) (string, error) {
	return s.names[identity], s.err
}

func (s stubDirectory) LookupOrgUnit(_ context.Context, identity string) (string, error) {
	return s.units[identity], s.err
}

func TestResolveWithoutDirectory(t *testing.T) {
	p := Resolve(context.Background(), nil, `IBK\anna`, nil)

	assert.Equal(t, "anna", p.DisplayName)
	assert.Equal(t, UnknownOrgUnit, p.OrgUnit)
	assert.False(t, p.Found)
}

func TestResolveUsesDirectoryValues(t *testing.T) {
	dir := stubDirectory{
		names: map[string]string{`IBK\anna`: "Anna Hansen"},
		units: map[string]string{`IBK\anna`: "IT"},
	}
	p := Resolve(context.Background(), dir, `IBK\anna`, nil)

	assert.Equal(t, "Anna Hansen", p.DisplayName)
	assert.Equal(t, "IT", p.OrgUnit)
	assert.True(t, p.Found)
}

func TestResolveDegradesOnError(t *testing.T) {
	p := Resolve(context.Background(), stubDirectory{err: errors.New("unreachable")}, `IBK\anna`, nil)

	assert.Equal(t, "anna", p.DisplayName)
	assert.Equal(t, UnknownOrgUnit, p.OrgUnit)
}

// countingDirectory records how often each lookup runs.
type countingDirectory struct {
	stubDirectory
	single, split int
}

func (c *countingDirectory) LookupDisplayName(ctx context.Context, identity string) (string, error) {
	c.split++
	return c.stubDirectory.LookupDisplayName(ctx, identity)
}

func (c *countingDirectory) LookupOrgUnit(ctx context.Context, identity string) (string, error) {
	c.split++
	return c.stubDirectory.LookupOrgUnit(ctx, identity)
}

func (c *countingDirectory) LookupProfile(_ context.Context, identity string) (string, string, error) {
	c.single++
	return c.names[identity], c.units[identity], c.err
}

func TestResolvePrefersSingleProfileLookup(t *testing.T) {
	dir := &countingDirectory{stubDirectory: stubDirectory{
		names: map[string]string{`IBK\anna`: "Anna Hansen"},
		units: map[string]string{`IBK\anna`: "IT"},
	}}
	p := Resolve(context.Background(), dir, `IBK\anna`, nil)

	assert.Equal(t, "Anna Hansen", p.DisplayName)
	assert.Equal(t, "IT", p.OrgUnit)
	assert.True(t, p.Found)
	assert.Equal(t, 1, dir.single)
	assert.Zero(t, dir.split)

	dir.err = errors.New("unreachable")
	p = Resolve(context.Background(), dir, `IBK\anna`, nil)
	assert.Equal(t, "anna", p.DisplayName)
	assert.Equal(t, UnknownOrgUnit, p.OrgUnit)
	assert.Equal(t, 2, dir.single)
	assert.Zero(t, dir.split)
}

func TestLDAPImplementsProfileLookup(t *testing.T) {
	var dir Directory = NewLDAP(config.LDAPConfig{})
	_, ok := dir.(ProfileLookup)
	assert.True(t, ok)
}

func TestOrgUnitOf(t *testing.T) {
	assert.Equal(t, "Skole", orgUnitOf("Skole", "CN=x,OU=IT,DC=ibk"))
	assert.Equal(t, "IT", orgUnitOf("", "CN=Anna,OU=IT,OU=Users,DC=ibk,DC=lan"))
	assert.Equal(t, "", orgUnitOf("", "CN=Anna,DC=ibk"))
}
