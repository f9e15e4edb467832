package credentials

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// PgPassEntry is one hostname:port:database:username:password line of a
// password file. Any of the first four fields may be the * wildcard.
type PgPassEntry struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// Matches reports whether the entry applies to a connection
func (e PgPassEntry) Matches(host string, port int, database, user string) bool {
	keys := [...][2]string{
		{e.Host, host},
		{e.Port, strconv.Itoa(port)},
		{e.Database, database},
		{e.User, user},
	}
	for _, k := range keys {
		if k[0] != "*" && k[0] != k[1] {
			return false
		}
	}
	return true
}

// PgPassPath returns $PGPASSFILE or ~/.pgpass
func PgPassPath() (string, error) {
	if p := os.Getenv("PGPASSFILE"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pgpass"), nil
}

// ParsePgPass reads a password file. A missing file yields no entries; a file
// readable by group or others is rejected outside Windows, like libpq does.
func ParsePgPass(path string) ([]PgPassEntry, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []PgPassEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	if runtime.GOOS != "windows" {
		info, err := file.Stat()
		if err != nil {
			return nil, err
		}
		if perm := info.Mode().Perm(); perm&0077 != 0 {
			return nil, fmt.Errorf(".pgpass file has insecure permissions %v, must be 0600", perm)
		}
	}
	return readPgPass(file)
}

// readPgPass collects the valid entries of r. Blank lines, comments and
// malformed lines are skipped.
func readPgPass(r io.Reader) ([]PgPassEntry, error) {
	entries := []PgPassEntry{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		if entry, err := parsePgPassLine(line); err == nil {
			entries = append(entries, entry)
		}
	}
	return entries, scanner.Err()
}

func parsePgPassLine(line string) (PgPassEntry, error) {
	f := splitPgPassFields(line)
	if len(f) != 5 {
		return PgPassEntry{}, fmt.Errorf("expected 5 fields, got %d", len(f))
	}
	if f[1] != "*" {
		if p, err := strconv.Atoi(f[1]); err != nil || p < 1 || p > 65535 {
			return PgPassEntry{}, fmt.Errorf("invalid port: %s", f[1])
		}
	}
	return PgPassEntry{Host: f[0], Port: f[1], Database: f[2], User: f[3], Password: f[4]}, nil
}

// splitPgPassFields splits on unescaped colons. A backslash takes the next
// byte literally, so \: and \\ stand for : and \.
func splitPgPassFields(line string) []string {
	var fields []string
	var sb strings.Builder
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == '\\' && i+1 < len(line):
			i++
			sb.WriteByte(line[i])
		case c == ':':
			fields = append(fields, sb.String())
			sb.Reset()
		default:
			sb.WriteByte(c)
		}
	}
	return append(fields, sb.String())
}

// FindPgPassPassword returns the password of the first entry matching the
// connection. The first match wins, as in libpq.
func FindPgPassPassword(entries []PgPassEntry, host string, port int, database, user string) (string, bool) {
	for _, e := range entries {
		if e.Matches(host, port, database, user) {
			return e.Password, true
		}
	}
	return "", false
}
