package fontpkg

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// Verifier checks downloaded archives against reference digests and,
// when a keyring is configured, detached OpenPGP signatures.
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier creates a verifier. keyring may be nil when no package in the
// catalog carries a signature.
func NewVerifier(keyring openpgp.EntityList) *Verifier {
	return &Verifier{keyring: keyring}
}

// HasKeyring reports whether signatures can be checked.
func (v *Verifier) HasKeyring() bool {
	return len(v.keyring) > 0
}

// VerifyChecksum compares the SHA-256 digest of path with expected.
// Both sides are compared in lowercase.
func (v *Verifier) VerifyChecksum(path, expected string) error {
	actual, err := SHA256File(path)
	if err != nil {
		return fmt.Errorf("calculate checksum: %w", err)
	}

	expected = strings.ToLower(strings.TrimSpace(expected))
	if actual != expected {
		return &ChecksumMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}

// VerifySignature checks the detached signature at sigPath over path.
// Armored signatures are tried first, then binary ones.
func (v *Verifier) VerifySignature(path, sigPath string) error {
	if !v.HasKeyring() {
		return ErrNoKeyring
	}

	signed, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer signed.Close()

	sig, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sig.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, signed, sig, nil)
	if err != nil {
		if _, serr := signed.Seek(0, io.SeekStart); serr != nil {
			return fmt.Errorf("rewind file: %w", serr)
		}
		if _, serr := sig.Seek(0, io.SeekStart); serr != nil {
			return fmt.Errorf("rewind signature: %w", serr)
		}
		_, err = openpgp.CheckDetachedSignature(v.keyring, signed, sig, nil)
	}
	if err != nil {
		return &SignatureError{Err: err}
	}

	return nil
}

// SHA256File returns the lowercase hex SHA-256 of the file at path, reading
// it ChunkSize bytes at a time.
func SHA256File(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	buf := make([]byte, ChunkSize)
	for {
		n, err := file.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// LoadKeyring reads an OpenPGP public keyring, armored or binary.
func LoadKeyring(path string) (openpgp.EntityList, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer file.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(file)
	if err != nil {
		if _, serr := file.Seek(0, io.SeekStart); serr != nil {
			return nil, fmt.Errorf("rewind keyring: %w", serr)
		}
		keyring, err = openpgp.ReadKeyRing(file)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring %s is empty", path)
	}

	return keyring, nil
}
