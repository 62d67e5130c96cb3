package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// Cookie names used by the site.
const (
	CSRFCookie    = "csrftoken"
	SessionCookie = "sessionid"
	VersionCookie = "version"
	RangeCookie   = "ml_range"
)

// Layout versions stored in the version cookie.
const (
	VersionMobile  = "mobile"
	VersionDesktop = "desktop"
)

const versionTTL = 365 * 24 * time.Hour

type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitzero"`
}

// Store is a cookie jar for one site that survives restarts.
// It implements http.CookieJar.
type Store struct {
	site *url.URL
	path string
	log  *zap.Logger
	now  func() time.Time

	mu      sync.Mutex
	jar     *cookiejar.Jar
	cookies map[string]storedCookie
}

// Open loads the cookie file at path for siteURL. A missing file yields an
// empty store; an empty path keeps cookies in memory only.
func Open(siteURL, path string, log *zap.Logger) (*Store, error) {
	site, err := url.Parse(siteURL)
	if err != nil || site.Host == "" {
		return nil, fmt.Errorf("invalid site url %q", siteURL)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		site:    site,
		path:    path,
		log:     log,
		now:     time.Now,
		jar:     jar,
		cookies: make(map[string]storedCookie),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading cookies: %w", err)
	}
	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("parsing cookies: %w", err)
	}
	now := s.now()
	restored := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		s.cookies[c.Name] = c
		hc := &http.Cookie{Name: c.Name, Value: c.Value, Path: pathOr(c.Path)}
		if !c.Expires.IsZero() {
			hc.MaxAge = max(int(c.Expires.Sub(now).Seconds()), 1)
		}
		restored = append(restored, hc)
	}
	s.jar.SetCookies(s.site, restored)
	s.log.Debug("cookies restored", zap.Int("count", len(restored)))
	return nil
}

// Save writes the site's cookies to disk.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	now := s.now()
	out := make([]storedCookie, 0, len(s.cookies))
	for _, c := range s.cookies {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		out = append(out, c)
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cookies: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating cookie dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing cookies: %w", err)
	}
	return nil
}

// SetCookies records cookies set by the site, then hands them to the jar.
// The jar checks expiry against the wall clock, so cookies given to it
// never carry an Expires computed from s.now.
func (s *Store) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.jar.SetCookies(u, cookies)
	if u.Hostname() != s.site.Hostname() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			delete(s.cookies, c.Name)
			continue
		}
		exp := c.Expires
		if c.MaxAge > 0 {
			exp = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		s.cookies[c.Name] = storedCookie{Name: c.Name, Value: c.Value, Path: c.Path, Expires: exp}
	}
}

// Cookies returns the cookies to send to u.
func (s *Store) Cookies(u *url.URL) []*http.Cookie {
	return s.jar.Cookies(u)
}

// Value returns the value of the named site cookie.
func (s *Store) Value(name string) string {
	for _, c := range s.jar.Cookies(s.site) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// CSRFToken returns the token sent back in X-CSRFToken.
func (s *Store) CSRFToken() string { return s.Value(CSRFCookie) }

// LoggedIn reports whether a session cookie is present.
func (s *Store) LoggedIn() bool { return s.Value(SessionCookie) != "" }

// Version returns the layout version, empty when unset.
func (s *Store) Version() string { return s.Value(VersionCookie) }

// SetVersion stores the layout version for a year. An empty version
// removes the cookie.
func (s *Store) SetVersion(v string) {
	if v == "" {
		s.expire(VersionCookie)
		return
	}
	s.SetCookies(s.site, []*http.Cookie{{
		Name:   VersionCookie,
		Value:  v,
		Path:   "/",
		MaxAge: int(versionTTL / time.Second),
	}})
}

// Range returns the saved event distance, 0 when unset.
func (s *Store) Range() int {
	n, err := strconv.Atoi(s.Value(RangeCookie))
	if err != nil {
		return 0
	}
	return n
}

// SetRange saves the selected event distance as a session cookie.
func (s *Store) SetRange(n int) {
	s.SetCookies(s.site, []*http.Cookie{{Name: RangeCookie, Value: strconv.Itoa(n), Path: "/"}})
}

// Clear drops the session and CSRF cookies.
func (s *Store) Clear() {
	s.expire(SessionCookie)
	s.expire(CSRFCookie)
}

func (s *Store) expire(name string) {
	s.SetCookies(s.site, []*http.Cookie{{Name: name, Path: "/", MaxAge: -1}})
}

func pathOr(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
