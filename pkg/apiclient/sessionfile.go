package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

type sessionFile struct {
	BaseURL string         `json:"baseUrl"`
	SavedAt time.Time      `json:"savedAt"`
	Cookies []storedCookie `json:"cookies"`
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LoadSessionFile restores cookies saved by SaveSessionFile. A missing
// file, or one saved for a different API, leaves the jar empty.
func (c *Client) LoadSessionFile(path string) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session file: %w", err)
	}
	var stored sessionFile
	if err := json.Unmarshal(raw, &stored); err != nil {
		return fmt.Errorf("decode session file: %w", err)
	}
	if stored.BaseURL != c.BaseURL() {
		return nil
	}
	cookies := make([]*http.Cookie, 0, len(stored.Cookies))
	for _, sc := range stored.Cookies {
		cookies = append(cookies, &http.Cookie{Name: sc.Name, Value: sc.Value})
	}
	c.RestoreSessionCookies(cookies)
	return nil
}

// SaveSessionFile writes the jar's cookies with owner-only permissions.
// An empty jar removes the file.
func (c *Client) SaveSessionFile(path string) error {
	if path == "" {
		return nil
	}
	cookies := c.SessionCookies()
	if len(cookies) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}

	stored := sessionFile{BaseURL: c.BaseURL(), SavedAt: time.Now().UTC()}
	for _, cookie := range cookies {
		stored.Cookies = append(stored.Cookies, storedCookie{Name: cookie.Name, Value: cookie.Value})
	}
	raw, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
