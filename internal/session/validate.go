package session

import (
	"fmt"
	"regexp"
)

// Session names become directory names under ~/.shtorm/sessions, so they are
// restricted to lowercase ASCII letters, digits, '-' and '_', 64 characters
// at most.
var sessionName = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// ValidateName rejects names that cannot safely serve as a session directory.
func ValidateName(name string) error {
	if sessionName.MatchString(name) {
		return nil
	}
	return fmt.Errorf("invalid session name %q: use lowercase letters, digits, '-' or '_' (64 max)", name)
}
