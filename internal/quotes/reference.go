package quotes

import (
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var referencePattern = regexp.MustCompile(`^QR-[0-9A-Z]+-[0-9A-Z]{4}$`)

// NewReference builds QR-<base36 unix millis>-<4 random base36 chars>.
func NewReference(now time.Time) string {
	var suffix [4]byte
	for i := range suffix {
		suffix[i] = base36[rand.Intn(len(base36))]
	}
	return "QR-" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)) + "-" + string(suffix[:])
}

// ValidReference reports whether ref has the reference number shape.
func ValidReference(ref string) bool {
	return referencePattern.MatchString(ref)
}

func normalizeReference(ref string) string {
	return strings.ToUpper(strings.TrimSpace(ref))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
