package credentials

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebelice/lazyview/internal/models"
)

func writePgPass(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".pgpass")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	return path
}

func TestParsePgPassLine(t *testing.T) {
	tests := []struct {
		line    string
		want    PgPassEntry
		wantErr bool
	}{
		{line: "db:5432:app:alice:secret", want: PgPassEntry{"db", "5432", "app", "alice", "secret"}},
		{line: "*:*:*:bob:pa\\:ss\\\\word", want: PgPassEntry{"*", "*", "*", "bob", `pa:ss\word`}},
		{line: "db:port:app:alice:secret", wantErr: true},
		{line: "db:70000:app:alice:secret", wantErr: true},
		{line: "db:5432:app:alice", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parsePgPassLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePgPass(t *testing.T) {
	path := writePgPass(t, "# comment\n\nbroken\ndb:5432:app:alice:first\n*:*:*:alice:second\n", 0600)
	entries, err := ParsePgPass(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	p, ok := FindPgPassPassword(entries, "db", 5432, "app", "alice")
	assert.True(t, ok)
	assert.Equal(t, "first", p)

	p, ok = FindPgPassPassword(entries, "other", 6543, "x", "alice")
	assert.True(t, ok)
	assert.Equal(t, "second", p)

	_, ok = FindPgPassPassword(entries, "db", 5432, "app", "carol")
	assert.False(t, ok)
}

func TestPgPassEntryMatches(t *testing.T) {
	entry := PgPassEntry{Host: "db", Port: "*", Database: "*", User: "alice", Password: "x"}
	assert.True(t, entry.Matches("db", 5432, "app", "alice"))
	assert.True(t, entry.Matches("db", 6543, "other", "alice"))
	assert.False(t, entry.Matches("db2", 5432, "app", "alice"))
	assert.False(t, entry.Matches("db", 5432, "app", "bob"))
}

func TestReadPgPass(t *testing.T) {
	entries, err := readPgPass(strings.NewReader("  # note\n\n db:5432:app:alice:a\\:b \nhost:1:x\n"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "db", entries[0].Host)
	assert.Equal(t, "a:b", entries[0].Password)

	entries, err = readPgPass(strings.NewReader(""))
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestParsePgPassMissing(t *testing.T) {
	entries, err := ParsePgPass(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParsePgPassInsecure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permissions are not checked on windows")
	}
	path := writePgPass(t, "db:5432:app:alice:secret\n", 0644)
	_, err := ParsePgPass(path)
	assert.ErrorContains(t, err, "insecure permissions")
}

func TestApplyEnvironment(t *testing.T) {
	t.Setenv("PGHOST", "envhost")
	t.Setenv("PGPORT", "6000")
	t.Setenv("PGUSER", "envuser")
	t.Setenv("PGDATABASE", "")
	t.Setenv("PGSSLMODE", "")

	cfg := ApplyEnvironment(models.ConnectionConfig{Host: "explicit"})
	assert.Equal(t, "explicit", cfg.Host)
	assert.Equal(t, 6000, cfg.Port)
	assert.Equal(t, "envuser", cfg.User)
	assert.Equal(t, "envuser", cfg.Database)
	assert.Equal(t, "prefer", cfg.SSLMode)
}

func TestPasswordStore(t *testing.T) {
	store := NewPasswordStoreWithRing(keyring.NewArrayKeyring(nil))

	_, err := store.Get("db", 5432, "app", "alice")
	assert.ErrorIs(t, err, ErrPasswordNotFound)

	require.NoError(t, store.Save("db", 5432, "app", "alice", "secret"))
	require.NoError(t, store.Save("db", 5432, "app", "bob", ""))

	p, err := store.Get("db", 5432, "app", "alice")
	require.NoError(t, err)
	assert.Equal(t, "secret", p)

	_, err = store.Get("db", 5432, "app", "bob")
	assert.ErrorIs(t, err, ErrPasswordNotFound)

	require.NoError(t, store.Delete("db", 5432, "app", "alice"))
	require.NoError(t, store.Delete("db", 5432, "app", "alice"))
	_, err = store.Get("db", 5432, "app", "alice")
	assert.ErrorIs(t, err, ErrPasswordNotFound)
}

func TestResolve(t *testing.T) {
	cfg := models.ConnectionConfig{Host: "db", Port: 5432, Database: "app", User: "alice"}
	pgpass := writePgPass(t, "db:5432:app:alice:from-pgpass\n", 0600)
	ring := keyring.NewArrayKeyring(nil)
	store := NewPasswordStoreWithRing(ring)

	t.Run("explicit", func(t *testing.T) {
		t.Setenv("PGPASSWORD", "from-env")
		explicit := cfg
		explicit.Password = "given"
		got, src := NewResolver(store, pgpass).Resolve(explicit)
		assert.Equal(t, "given", got.Password)
		assert.Equal(t, models.PasswordExplicit, src)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("PGPASSWORD", "from-env")
		got, src := NewResolver(store, pgpass).Resolve(cfg)
		assert.Equal(t, "from-env", got.Password)
		assert.Equal(t, models.PasswordEnvironment, src)
	})

	t.Run("pgpass", func(t *testing.T) {
		t.Setenv("PGPASSWORD", "")
		got, src := NewResolver(store, pgpass).Resolve(cfg)
		assert.Equal(t, "from-pgpass", got.Password)
		assert.Equal(t, models.PasswordPgPass, src)
	})

	t.Run("keyring before pgpass", func(t *testing.T) {
		t.Setenv("PGPASSWORD", "")
		require.NoError(t, store.Save("db", 5432, "app", "alice", "from-keyring"))
		got, src := NewResolver(store, pgpass).Resolve(cfg)
		assert.Equal(t, "from-keyring", got.Password)
		assert.Equal(t, models.PasswordKeyring, src)
	})

	t.Run("none", func(t *testing.T) {
		t.Setenv("PGPASSWORD", "")
		other := cfg
		other.User = "carol"
		got, src := NewResolver(nil, pgpass).Resolve(other)
		assert.Empty(t, got.Password)
		assert.Equal(t, models.PasswordNone, src)
		assert.Equal(t, "none", src.String())
	})
}
