package credentials

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

const passwordSalt = "lazyview-keyring-salt-v1"

// deriveFilePassword returns the passphrase of the file keyring backend. It
// is stable for a user on a machine and differs between machines.
func deriveFilePassword() (string, error) {
	hash := sha256.Sum256([]byte(machineID() + currentUser() + passwordSalt))
	return base64.StdEncoding.EncodeToString(hash[:]), nil
}

func currentUser() string {
	for _, key := range []string{"USER", "USERNAME"} {
		if u := os.Getenv(key); u != "" {
			return u
		}
	}
	return fmt.Sprintf("uid-%d", os.Getuid())
}

// machineID identifies the machine, falling back to the hostname
func machineID() string {
	var id string
	switch runtime.GOOS {
	case "linux":
		id = firstFileLine("/etc/machine-id", "/var/lib/dbus/machine-id")
	case "darwin":
		id = commandValue("IOPlatformUUID", "ioreg", "-rd1", "-c", "IOPlatformExpertDevice")
	case "windows":
		id = commandValue("", "wmic", "csproduct", "get", "UUID")
	}
	if id == "" {
		id, _ = os.Hostname()
	}
	return id
}

func firstFileLine(paths ...string) string {
	for _, path := range paths {
		if data, err := os.ReadFile(path); err == nil {
			if id := strings.TrimSpace(string(data)); id != "" {
				return id
			}
		}
	}
	return ""
}

// commandValue runs a command and extracts a value from its output. With a
// key the value follows "key =", otherwise the first line that is not a
// header is used.
func commandValue(key string, name string, args ...string) string {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if key == "" {
			if line != "" && line != "UUID" {
				return line
			}
			continue
		}
		if !strings.Contains(line, key) {
			continue
		}
		if _, value, ok := strings.Cut(line, "="); ok {
			return strings.Trim(strings.TrimSpace(value), `"`)
		}
	}
	return ""
}
