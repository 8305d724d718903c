package session

import (
	"bufio"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shasu1pm/VoxText-AI/pkg/log"
)

// Store is the process-wide cookie/session state shared by every outgoing
// network call: direct caption fetches use it as an http.CookieJar, and the
// extraction subprocess reads and rewrites the backing Netscape-format
// cookie file. Updates are last-writer-wins; two concurrent requests may
// overwrite each other's freshly obtained cookies, which is accepted.
type Store struct {
	file string

	mu      sync.Mutex
	cookies map[string]storedCookie // keyed by domain + "\t" + name
}

type storedCookie struct {
	domain  string
	path    string
	secure  bool
	expires time.Time
	name    string
	value   string
}

// New creates a store backed by the given cookie file path, loading any
// cookies already present in it.
func New(file string) (*Store, error) {
	s := &Store{
		file:    file,
		cookies: make(map[string]storedCookie),
	}
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cookie file directory: %w", err)
		}
		if err := s.Reload(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// File returns the backing cookie file path, handed to the extraction
// subprocess via --cookies.
func (s *Store) File() string {
	return s.file
}

// Client returns an HTTP client that reads and writes this store's cookies.
func (s *Store) Client(timeout time.Duration) *http.Client {
	return &http.Client{
		Jar:     s,
		Timeout: timeout,
	}
}

// Cookies implements http.CookieJar with a domain-suffix match.
func (s *Store) Cookies(u *url.URL) []*http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()

	host := strings.ToLower(u.Hostname())
	now := time.Now()

	ret := make([]*http.Cookie, 0)
	for _, c := range s.cookies {
		if !domainMatches(host, c.domain) {
			continue
		}
		if !c.expires.IsZero() && c.expires.Before(now) {
			continue
		}
		if c.secure && u.Scheme != "https" {
			continue
		}
		ret = append(ret, &http.Cookie{Name: c.name, Value: c.value})
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret
}

// SetCookies implements http.CookieJar and flushes the backing file so the
// extraction subprocess sees cookies obtained by direct fetches.
func (s *Store) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}

	s.mu.Lock()
	for _, c := range cookies {
		domain := strings.TrimPrefix(strings.ToLower(c.Domain), ".")
		if domain == "" {
			domain = strings.ToLower(u.Hostname())
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		s.cookies[domain+"\t"+c.Name] = storedCookie{
			domain:  domain,
			path:    path,
			secure:  c.Secure,
			expires: c.Expires,
			name:    c.Name,
			value:   c.Value,
		}
	}
	s.mu.Unlock()

	if err := s.Flush(); err != nil {
		log.Warn("Failed to flush cookie file: %v", err)
	}
}

// Reload re-reads the backing file, merging cookies written by the
// extraction subprocess. Called after every successful extraction.
func (s *Store) Reload() error {
	if s.file == "" {
		return nil
	}
	f, err := os.Open(s.file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open cookie file: %w", err)
	}
	defer f.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		// yt-dlp marks HttpOnly cookies with a prefixed comment
		line = strings.TrimPrefix(line, "#HttpOnly_")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			continue
		}
		domain := strings.TrimPrefix(strings.ToLower(fields[0]), ".")
		expiry, _ := strconv.ParseInt(fields[4], 10, 64)
		var expires time.Time
		if expiry > 0 {
			expires = time.Unix(expiry, 0)
		}
		s.cookies[domain+"\t"+fields[5]] = storedCookie{
			domain:  domain,
			path:    fields[2],
			secure:  strings.EqualFold(fields[3], "TRUE"),
			expires: expires,
			name:    fields[5],
			value:   fields[6],
		}
	}
	return scanner.Err()
}

// Flush writes the full cookie set to the backing file in Netscape format.
func (s *Store) Flush() error {
	if s.file == "" {
		return nil
	}

	s.mu.Lock()
	keys := make([]string, 0, len(s.cookies))
	for k := range s.cookies {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("# Netscape HTTP Cookie File\n")
	for _, k := range keys {
		c := s.cookies[k]
		expiry := int64(0)
		if !c.expires.IsZero() {
			expiry = c.expires.Unix()
		}
		secure := "FALSE"
		if c.secure {
			secure = "TRUE"
		}
		fmt.Fprintf(&sb, "%s\tTRUE\t%s\t%s\t%d\t%s\t%s\n",
			c.domain, c.path, secure, expiry, c.name, c.value)
	}
	s.mu.Unlock()

	return os.WriteFile(s.file, []byte(sb.String()), 0o600)
}

func domainMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
