// Package certno generates and validates certificate numbers and computes
// the verification hash stored alongside each certificate.
package certno

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"
)

// Prefix is the fixed textual prefix of every certificate number.
const Prefix = "ECELL"

// suffixLen is the length of the random alphanumeric suffix.
const suffixLen = 5

// charset is the alphabet the suffix is drawn from.
const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// pattern matches PREFIX-YYYY-XXXXX, e.g. ECELL-2026-7KQ4M.
var pattern = regexp.MustCompile(`^` + Prefix + `-\d{4}-[A-Z0-9]{` + fmt.Sprint(suffixLen) + `}$`)

// Generate returns a fresh candidate certificate number for the current
// year. Uniqueness is not guaranteed here; callers must check the candidate
// against the persistent store.
func Generate() string {
	// Rejection sampling: bytes past the largest multiple of len(charset)
	// are discarded so the modulo does not bias the draw toward the low
	// end of the alphabet.
	limit := 256 - 256%len(charset)
	suffix := make([]byte, 0, suffixLen)
	buf := make([]byte, suffixLen*2)
	for len(suffix) < suffixLen {
		if _, err := rand.Read(buf); err != nil {
			panic("certno: reading random source: " + err.Error())
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			suffix = append(suffix, charset[int(b)%len(charset)])
			if len(suffix) == suffixLen {
				break
			}
		}
	}
	return fmt.Sprintf("%s-%d-%s", Prefix, time.Now().Year(), string(suffix))
}

// IsValid reports whether s matches the certificate number shape. It is a
// pure pattern match, independent of whether the number was ever issued.
func IsValid(s string) bool {
	return pattern.MatchString(s)
}

// VerificationHash derives the display/audit hash for a certificate from
// its number and owning event. The hash is deterministic and not a secret;
// it is never used for access control.
func VerificationHash(number, eventID string) string {
	sum := sha256.Sum256([]byte(number + ":" + eventID))
	return hex.EncodeToString(sum[:])
}
