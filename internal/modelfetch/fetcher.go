// Package modelfetch downloads published model artifacts, verifies them
// against the release checksums and installs them atomically.
package modelfetch

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/mod/semver"

	"github.com/abhisek/diacheck/internal/classifier"
)

// Release asset names.
const (
	AssetModel     = "model.json"
	AssetChecksums = "checksums.txt"
	AssetVersion   = "VERSION"
)

var (
	ErrUpToDate       = errors.New("local model is already up to date")
	ErrChecksum       = errors.New("checksum verification failed")
	ErrInvalidVersion = errors.New("invalid model version")
)

// Fetcher pulls model releases from a base URL laid out as
// <base>/<version>/<asset>, with <base>/latest/download/VERSION naming the
// newest release.
type Fetcher struct {
	baseURL     string
	client      *http.Client
	maxAttempts uint64
	initialWait time.Duration
	log         zerolog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.client = &http.Client{Timeout: d} }
}

// WithRetry sets how many times a download is attempted and the first
// backoff interval.
func WithRetry(attempts int, initial time.Duration) Option {
	return func(f *Fetcher) {
		if attempts < 1 {
			attempts = 1
		}
		f.maxAttempts = uint64(attempts)
		f.initialWait = initial
	}
}

// WithLogger attaches a logger for retry notices.
func WithLogger(l zerolog.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// New creates a Fetcher for baseURL.
func New(baseURL string, opts ...Option) *Fetcher {
	f := &Fetcher{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: 60 * time.Second},
		maxAttempts: 3,
		initialWait: 500 * time.Millisecond,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// PullInput selects what to install and where.
type PullInput struct {
	// Dest is the local model file to replace.
	Dest string
	// Version is the release to install. Empty resolves the latest.
	Version string
	// Force installs even when the local model is not older.
	Force bool
}

// PullResult describes an installed model.
type PullResult struct {
	Version      string
	Previous     string
	Kind         string
	SHA256       string
	InstalledAt  string
	BytesWritten int
}

// Progress reports a stage of Pull.
type Progress struct {
	Stage   string
	Message string
}

// Pull downloads, verifies and installs a model release. It returns
// ErrUpToDate when the local model version is not older than the target.
func (f *Fetcher) Pull(ctx context.Context, in PullInput, progress func(Progress)) (*PullResult, error) {
	if progress == nil {
		progress = func(Progress) {}
	}

	target := in.Version
	if target == "" {
		progress(Progress{Stage: "check", Message: "Checking for the latest model..."})
		latest, err := f.Latest(ctx)
		if err != nil {
			return nil, fmt.Errorf("check for latest model: %w", err)
		}
		target = latest
	}
	if !semver.IsValid(target) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, target)
	}

	local := LocalVersion(in.Dest)
	if !in.Force && local != "" && semver.Compare(local, target) >= 0 {
		return nil, fmt.Errorf("%w (%s)", ErrUpToDate, local)
	}

	progress(Progress{Stage: "download", Message: fmt.Sprintf("Downloading model %s...", target)})
	data, err := f.download(ctx, f.assetURL(target, AssetModel))
	if err != nil {
		return nil, fmt.Errorf("download model: %w", err)
	}

	progress(Progress{Stage: "verify", Message: "Verifying checksum..."})
	sums, err := f.download(ctx, f.assetURL(target, AssetChecksums))
	if err != nil {
		return nil, fmt.Errorf("download checksums: %w", err)
	}
	expected, ok := parseChecksums(sums)[AssetModel]
	if !ok {
		return nil, fmt.Errorf("no checksum found for %s in %s", AssetModel, AssetChecksums)
	}
	if err := verifyChecksum(data, expected); err != nil {
		return nil, err
	}

	c, meta, err := classifier.Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("downloaded model is unusable: %w", err)
	}

	progress(Progress{Stage: "apply", Message: "Installing model..."})
	if err := install(data, in.Dest, expected); err != nil {
		return nil, fmt.Errorf("install model: %w", err)
	}

	version := meta.Version
	if version == "" {
		version = target
	}
	progress(Progress{Stage: "done", Message: fmt.Sprintf("Installed model %s", version)})
	return &PullResult{
		Version:      version,
		Previous:     local,
		Kind:         c.Kind(),
		SHA256:       expected,
		InstalledAt:  in.Dest,
		BytesWritten: len(data),
	}, nil
}

// Latest returns the newest published model version.
func (f *Fetcher) Latest(ctx context.Context) (string, error) {
	data, err := f.download(ctx, f.baseURL+"/latest/download/"+AssetVersion)
	if err != nil {
		return "", err
	}
	v := strings.TrimSpace(string(data))
	if !semver.IsValid(v) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return v, nil
}

// LocalVersion returns the version recorded in the model file at path, or
// "" when the file is missing, unreadable or unversioned.
func LocalVersion(path string) string {
	if path == "" {
		return ""
	}
	fh, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer func() { _ = fh.Close() }()

	_, meta, err := classifier.Load(fh)
	if err != nil || !semver.IsValid(meta.Version) {
		return ""
	}
	return meta.Version
}

func (f *Fetcher) assetURL(version, asset string) string {
	return fmt.Sprintf("%s/%s/%s", f.baseURL, version, asset)
}

// statusError is an HTTP failure. 4xx responses other than 429 are not
// retried.
type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.code, e.url)
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			serr := &statusError{code: resp.StatusCode, url: url}
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(serr)
			}
			return serr
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = f.initialWait
	exp.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, f.maxAttempts-1), ctx)

	notify := func(err error, wait time.Duration) {
		f.log.Warn().Err(err).Dur("retry_in", wait).Msg("model download failed, retrying")
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return body, nil
}

func parseChecksums(data []byte) map[string]string {
	result := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		parts := strings.Fields(line)
		if len(parts) != 2 {
			continue
		}
		result[strings.TrimPrefix(parts[1], "*")] = strings.ToLower(parts[0])
	}
	return result
}

func verifyChecksum(data []byte, expectedHex string) error {
	h := sha256.Sum256(data)
	actual := hex.EncodeToString(h[:])
	if actual != expectedHex {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksum, expectedHex, actual)
	}
	return nil
}

// install writes data next to dest and renames it into place, re-checking
// the hash of what landed on disk first.
func install(data []byte, dest, expectedHex string) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	written, err := os.ReadFile(tmpName)
	if err != nil {
		return fmt.Errorf("re-read temp file: %w", err)
	}
	if err := verifyChecksum(written, expectedHex); err != nil {
		return fmt.Errorf("%w: temp file changed after write", ErrChecksum)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
