package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/mapping"
)

func registry() *Registry {
	return NewRegistry(
		NewEntity("Order").
			Attr("status", mapping.KindString).
			Ref("user", "User"),
		NewEntity("User").
			Attr("name", mapping.KindString).
			Ref("profile", "Profile"),
		NewEntity("UserProfile").WithTable("profiles"),
		NewEntity("Profile").
			Attr("email", mapping.KindString).
			Attr("lastLogin", mapping.KindTimestamp),
	)
}

func TestResolveAttributeType(t *testing.T) {
	reg := registry()

	kind, err := reg.ResolveAttributeType("Order", "status")
	require.NoError(t, err)
	assert.Equal(t, mapping.KindString, kind)

	kind, err = reg.ResolveAttributeType("Order", "user.profile.email")
	require.NoError(t, err)
	assert.Equal(t, mapping.KindString, kind)

	kind, err = reg.ResolveAttributeType("Order", "user")
	require.NoError(t, err)
	assert.Equal(t, mapping.KindEntity, kind)
}

func TestResolveAttributeTypeErrors(t *testing.T) {
	tests := []struct {
		entity  string
		path    string
		segment string
	}{
		{"Order", "user.address.city", "address"},
		{"Order", "status.length", "length"},
		{"Order", "user..name", ""},
		{"Ghost", "name", "Ghost"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := registry().ResolveAttributeType(tt.entity, tt.path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrUnknownAttributePath))

			var fe *models.FilterError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.path, fe.Path)
			assert.Equal(t, tt.segment, fe.Segment)
		})
	}
}

func TestHops(t *testing.T) {
	hops, col, err := registry().Hops("Order", "user.profile.lastLogin")
	require.NoError(t, err)
	assert.Equal(t, "last_login", col)
	assert.Equal(t, []Hop{
		{Alias: "user", Table: "users", JoinColumn: "user_id", RefColumn: "id"},
		{Alias: "user__profile", Parent: "user", Table: "profiles", JoinColumn: "profile_id", RefColumn: "id"},
	}, hops)

	hops, col, err = registry().Hops("Order", "status")
	require.NoError(t, err)
	assert.Empty(t, hops)
	assert.Equal(t, "status", col)

	_, _, err = registry().Hops("Order", "nope")
	assert.True(t, errors.Is(err, models.ErrUnknownAttributePath))
}

func TestEntityDefaults(t *testing.T) {
	reg := registry()
	e, err := reg.Entity("Order")
	require.NoError(t, err)
	assert.Equal(t, "orders", e.Table)
	assert.Equal(t, []string{"status"}, e.AttributeNames())

	e, err = reg.Entity("UserProfile")
	require.NoError(t, err)
	assert.Equal(t, "profiles", e.Table)

	assert.Equal(t, []string{"Order", "Profile", "User", "UserProfile"}, reg.Names())
	_, err = reg.Entity("Ghost")
	assert.Error(t, err)
}

func writeSchema(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeSchema(t, `
entities:
  - name: User
    table: app_users
    attributes:
      - {name: firstName, type: text}
      - {name: birthDate, type: DATE}
      - {name: score, type: numeric, column: total_score}
      - {name: profile, ref: Profile, join_column: profile_key, ref_column: key}
  - name: Profile
    attributes:
      - {name: email, type: STRING}
`)
	reg, err := LoadFile(path)
	require.NoError(t, err)

	e, err := reg.Entity("User")
	require.NoError(t, err)
	assert.Equal(t, "app_users", e.Table)
	assert.Equal(t, mapping.KindString, e.Attributes["firstName"].Kind)
	assert.Equal(t, "first_name", e.Attributes["firstName"].Column)
	assert.Equal(t, "total_score", e.Attributes["score"].Column)
	assert.Equal(t, "profile_key", e.Attributes["profile"].JoinColumn)
	assert.Equal(t, "key", e.Attributes["profile"].RefColumn)

	kind, err := reg.ResolveAttributeType("User", "profile.email")
	require.NoError(t, err)
	assert.Equal(t, mapping.KindString, kind)

	p, err := reg.Entity("Profile")
	require.NoError(t, err)
	assert.Equal(t, "profiles", p.Table)
}

func TestLoadFileErrors(t *testing.T) {
	tests := map[string]string{
		"unknown type":    "entities:\n  - name: A\n    attributes:\n      - {name: x, type: WAT}\n",
		"dangling ref":    "entities:\n  - name: A\n    attributes:\n      - {name: b, ref: B}\n",
		"nameless entity": "entities:\n  - table: t\n",
		"nameless attr":   "entities:\n  - name: A\n    attributes:\n      - {type: INT}\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeSchema(t, body))
			assert.Error(t, err)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
