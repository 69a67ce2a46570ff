package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"zendocs-backend/lib/configutil"
)

// AppName names the directory under the user config dir that holds the
// settings file, the database and the log file.
const AppName = "SyncImporter"

const (
	FileName      = "settings.json"
	DefaultLocale = "en-us"
)

type Settings struct {
	ZendeskDomain string `json:"ZENDESK_DOMAIN"`
	Email         string `json:"EMAIL"`
	APIToken      string `json:"API_TOKEN"`
	Locale        string `json:"LOCAL"`
}

func Default() Settings {
	return Settings{Locale: DefaultLocale}
}

// MissingError lists the settings keys that are empty.
type MissingError struct {
	Fields []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing settings: %s", strings.Join(e.Fields, ", "))
}

// Validate requires every key, missing keys are reported in file order.
func (s Settings) Validate() error {
	var missing []string
	if strings.TrimSpace(s.ZendeskDomain) == "" {
		missing = append(missing, "ZENDESK_DOMAIN")
	}
	if strings.TrimSpace(s.Email) == "" {
		missing = append(missing, "EMAIL")
	}
	if strings.TrimSpace(s.APIToken) == "" {
		missing = append(missing, "API_TOKEN")
	}
	if strings.TrimSpace(s.Locale) == "" {
		missing = append(missing, "LOCAL")
	}
	if len(missing) > 0 {
		return &MissingError{Fields: missing}
	}
	return nil
}

// Masked returns a copy that is safe to log or send to a client.
func (s Settings) Masked() Settings {
	s.APIToken = MaskToken(s.APIToken)
	return s
}

// MaskToken keeps the first 3 and last 2 characters of a token, tokens too
// short to keep anything hidden are masked whole.
func MaskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 5 {
		return "****"
	}
	return token[:3] + "****" + token[len(token)-2:]
}

// ConfigDir returns the per-user application directory, it is not created.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}

type File struct {
	path string
}

func NewFile(path string) File {
	return File{path: path}
}

func (f File) Path() string {
	return f.path
}

// EnsureFile makes sure a readable settings file exists in dir, writing the
// defaults when there is none. If dir cannot be used, the file falls back to
// the working directory.
func EnsureFile(dir string) (File, error) {
	file, err := ensureIn(dir)
	if err == nil {
		return file, nil
	}
	slog.Warn("could not use settings directory, falling back to working directory", "dir", dir, "err", err)

	wd, wdErr := os.Getwd()
	if wdErr != nil {
		return File{}, errors.Join(err, wdErr)
	}
	file, fallbackErr := ensureIn(wd)
	if fallbackErr != nil {
		return File{}, errors.Join(err, fallbackErr)
	}
	return file, nil
}

func ensureIn(dir string) (File, error) {
	file := NewFile(filepath.Join(dir, FileName))

	_, err := os.Stat(file.path)
	if os.IsNotExist(err) {
		slog.Info("settings file not found, creating default", "path", file.path)
		err = file.Save(Default())
		if err != nil {
			return File{}, err
		}
		return file, nil
	}
	if err != nil {
		return File{}, err
	}

	_, err = file.Load()
	if err != nil {
		return File{}, fmt.Errorf("settings file is not readable: %w", err)
	}
	return file, nil
}

// Load reads the settings file, a settings.local.json next to it overrides
// individual keys.
func (f File) Load() (Settings, error) {
	s, err := configutil.ReadConfig[Settings](f.path)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if s.Locale == "" {
		s.Locale = DefaultLocale
	}
	return s, nil
}

func (f File) Save(s Settings) error {
	err := configutil.WriteConfig(f.path, s)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
