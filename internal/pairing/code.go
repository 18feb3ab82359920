package pairing

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/dukerupert/helpline/internal/model"
)

// codeAlphabet omits 0, O, 1 and I.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	groupLen  = 3
	groupsLen = 2
)

// GenerateCode returns a fresh code of the form PRE-XXX-XXX for the role.
// Uniqueness is enforced by storage, not here.
func GenerateCode(role model.Role) (string, error) {
	prefix := role.CodePrefix()
	if prefix == "" {
		return "", fmt.Errorf("generate code: invalid role %d", role)
	}

	max := big.NewInt(int64(len(codeAlphabet)))
	var b strings.Builder
	b.WriteString(prefix)
	for g := 0; g < groupsLen; g++ {
		b.WriteByte('-')
		for i := 0; i < groupLen; i++ {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", fmt.Errorf("generate code: %w", err)
			}
			b.WriteByte(codeAlphabet[n.Int64()])
		}
	}
	return b.String(), nil
}

// NormalizeCode upper-cases user input and restores the dashes when the
// code was typed without them.
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, " ", "")
	if strings.Contains(code, "-") {
		return code
	}
	if len(code) == 3+groupLen*groupsLen {
		return code[:3] + "-" + code[3:6] + "-" + code[6:]
	}
	return code
}
