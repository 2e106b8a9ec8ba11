package store

import "github.com/pkg/errors"

// LogoffKey is the key the logoff URL of the current session is stored under.
// With a FileStore rooted at the home directory this is ~/.wispr.
const LogoffKey = "wispr"

// SaveLogoffURL records the logoff URL of a fresh session. An empty url
// clears whatever a previous session left behind.
func SaveLogoffURL(s Store, url string) error {
	if url == "" {
		if err := s.Delete(LogoffKey); err != nil && !errors.Is(err, ErrNotFound) {
			return errors.Wrap(err, "clear logoff url failed")
		}
		return nil
	}
	return errors.Wrap(s.Put(LogoffKey, url), "store logoff url failed")
}

// LoadLogoffURL returns the stored logoff URL. ok is false when no session
// URL is known; an empty stored line counts as absent.
func LoadLogoffURL(s Store) (url string, ok bool, err error) {
	url, err = s.Get(LogoffKey)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "load logoff url failed")
	}
	return url, url != "", nil
}
