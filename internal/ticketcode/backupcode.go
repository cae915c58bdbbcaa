package ticketcode

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
)

// BackupCodeLength is the fixed length of the human-typable fallback code.
const BackupCodeLength = 7

// backupAlphabet excludes visually ambiguous characters (0/O, 1/I/L) so the
// code survives being read over a phone or typed on a cracked screen.
const backupAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// backupPattern matches anything shaped like a backup code. Classification is
// deliberately wider than the generation alphabet: a typo like "AB10CD3" must
// classify as a backup-code attempt (and then fail lookup), not fall through
// to scan-payload parsing.
var backupPattern = regexp.MustCompile(`^[A-Z0-9]{7}$`)

// NewBackupCode generates a random backup code from the unambiguous alphabet.
func NewBackupCode() (string, error) {
	buf := make([]byte, BackupCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	out := make([]byte, BackupCodeLength)
	for i, b := range buf {
		out[i] = backupAlphabet[int(b)%len(backupAlphabet)]
	}
	return string(out), nil
}

// CodeClass is the explicit classification of raw door input
type CodeClass int

const (
	// ClassBackupCode means the input matches the 7-character backup pattern.
	ClassBackupCode CodeClass = iota
	// ClassScanCode means the input must be parsed as a structured scan payload.
	ClassScanCode
)

// Classify normalizes raw door input and tags it as a backup code or a scan
// payload. Backup codes are case-insensitive on input; scan payloads are
// case-sensitive and returned untouched apart from trimming.
func Classify(raw string) (string, CodeClass) {
	trimmed := strings.TrimSpace(raw)
	upper := strings.ToUpper(trimmed)
	if backupPattern.MatchString(upper) {
		return upper, ClassBackupCode
	}
	return trimmed, ClassScanCode
}
