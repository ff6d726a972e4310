// Package breach checks passwords against a remote breach corpus using the
// k-anonymity range protocol: only the first five hex characters of the
// SHA-1 digest ever leave the process, and the suffix match happens locally.
package breach

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/passguard/passguard/internal/logging"
	"github.com/sethvargo/go-retry"
)

// DefaultBaseURL is the public Pwned Passwords range endpoint.
const DefaultBaseURL = "https://api.pwnedpasswords.com/range/"

const (
	prefixLen      = 5
	maxRetries     = 2
	backoffBase    = 200 * time.Millisecond
	defaultTimeout = 3 * time.Second
)

// Result is the outcome of a breach check. Checked=false means the corpus
// was unreachable: the password's status is unknown, not safe, and callers
// must surface that distinction.
type Result struct {
	Breached bool
	Checked  bool
	Count    int
}

// Checker is the k-anonymity protocol client.
type Checker struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  logging.Logger
}

// NewChecker builds a Checker against the given range endpoint. A zero
// timeout falls back to a 3s default.
func NewChecker(baseURL string, timeout time.Duration, logger logging.Logger) *Checker {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Checker{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger.With("module", "breach_checker"),
	}
}

// Check queries the corpus for the password. Transient failures are retried
// up to two times with exponential backoff; if the corpus stays unreachable
// the result degrades to {Breached:false, Checked:false}. The password and
// its full hash never leave the process.
func (c *Checker) Check(ctx context.Context, password string) Result {
	sum := sha1.Sum([]byte(password))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))
	prefix, suffix := digest[:prefixLen], digest[prefixLen:]

	ctx, cancel := context.WithTimeout(ctx, c.timeout*time.Duration(maxRetries+1))
	defer cancel()

	var res Result
	b := retry.WithMaxRetries(maxRetries, retry.NewExponential(backoffBase))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		r, err := c.query(ctx, prefix, suffix)
		if err != nil {
			return retry.RetryableError(err)
		}
		res = r
		return nil
	})
	if err != nil {
		c.logger.Warn(ctx, "breach corpus unreachable, degrading to unknown", "error", err.Error())
		return Result{Breached: false, Checked: false}
	}
	return res
}

func (c *Checker) query(ctx context.Context, prefix, suffix string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+prefix, nil)
	if err != nil {
		return Result{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	// Response body: one "SUFFIX:COUNT" entry per line for every digest
	// sharing the queried prefix.
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		entry, countStr, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok {
			continue
		}
		if strings.EqualFold(entry, suffix) {
			count, _ := strconv.Atoi(countStr)
			return Result{Breached: true, Checked: true, Count: count}, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return Result{}, err
	}

	return Result{Breached: false, Checked: true}, nil
}
