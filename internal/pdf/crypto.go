package pdf

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrEncrypted is returned when a document is encrypted and no credentials
// were given.
var ErrEncrypted = errors.New("PDF is encrypted")

// Credentials contains the passwords for a PDF file.
type Credentials struct {
	UserPassword  string `json:"user_password,omitempty"  yaml:"user_password,omitempty"`
	OwnerPassword string `json:"owner_password,omitempty" yaml:"owner_password,omitempty"`
}

// Empty reports whether no password is set.
func (c Credentials) Empty() bool {
	return c.UserPassword == "" && c.OwnerPassword == ""
}

// IsEncrypted checks if a PDF file is encrypted/password-protected.
func IsEncrypted(filename string) (bool, error) {
	_, err := api.PageCountFile(filename)
	if err == nil {
		return false, nil
	}
	if IsPasswordError(err) {
		return true, nil
	}
	return false, fmt.Errorf("failed to check PDF encryption status: %w", err)
}

// Unlock returns a path that page sources can open. Unencrypted files, and
// files pdfcpu cannot parse without a password error, are returned
// unchanged; encrypted files are decrypted into a temporary copy.
// The returned cleanup function removes that copy and is never nil.
func Unlock(filename string, creds Credentials) (string, func(), error) {
	noop := func() {}

	if _, err := os.Stat(filename); err != nil {
		return "", noop, fmt.Errorf("failed to access PDF: %w", err)
	}
	encrypted, err := IsEncrypted(filename)
	if err != nil {
		// pdfcpu is stricter than MuPDF; let the page source decide.
		slog.Debug("Encryption check failed, using file as is", "file", filename, "error", err)
		return filename, noop, nil
	}
	if !encrypted {
		return filename, noop, nil
	}
	if creds.Empty() {
		return "", noop, fmt.Errorf("%w: %s", ErrEncrypted, filename)
	}

	tempFile, err := os.CreateTemp("", "decrypted-*.pdf")
	if err != nil {
		return "", noop, fmt.Errorf("failed to create temporary file: %w", err)
	}
	_ = tempFile.Close()
	cleanup := func() { _ = os.Remove(tempFile.Name()) }

	config := model.NewDefaultConfiguration()
	config.UserPW = creds.UserPassword
	config.OwnerPW = creds.OwnerPassword
	if err := api.DecryptFile(filename, tempFile.Name(), config); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("failed to decrypt PDF: %w", err)
	}

	slog.Debug("Decrypted PDF", "file", filename, "temp", tempFile.Name())
	return tempFile.Name(), cleanup, nil
}

// IsPasswordError checks if an error is related to password/encryption issues.
func IsPasswordError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrEncrypted) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, keyword := range []string{"password", "encrypted", "decrypt", "authentication"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}
