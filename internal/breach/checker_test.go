package breach

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/passguard/passguard/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logging.Logger {
	return logging.NewJSONLogger("error")
}

func hashParts(password string) (prefix, suffix string) {
	sum := sha1.Sum([]byte(password))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))
	return digest[:5], digest[5:]
}

// rangeFixture serves a corpus containing exactly the given passwords.
func rangeFixture(t *testing.T, passwords ...string) *httptest.Server {
	t.Helper()
	bySuffix := map[string][]string{}
	for _, p := range passwords {
		prefix, suffix := hashParts(p)
		bySuffix[prefix] = append(bySuffix[prefix], suffix+":42")
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := strings.TrimPrefix(r.URL.Path, "/")
		// Pad with an unrelated entry so the match is never positional.
		lines := append([]string{"0000000000000000000000000000000000A:1"}, bySuffix[prefix]...)
		fmt.Fprint(w, strings.Join(lines, "\r\n"))
	}))
}

func TestCheck_KnownBreachedPassword(t *testing.T) {
	srv := rangeFixture(t, "password123")
	defer srv.Close()

	c := NewChecker(srv.URL+"/", time.Second, testLogger())
	res := c.Check(context.Background(), "password123")

	assert.True(t, res.Breached)
	assert.True(t, res.Checked)
	assert.Equal(t, 42, res.Count)
}

func TestCheck_UnbreachedPassword(t *testing.T) {
	srv := rangeFixture(t, "password123")
	defer srv.Close()

	c := NewChecker(srv.URL+"/", time.Second, testLogger())
	res := c.Check(context.Background(), "mT7#qLw2$Zr9@Xv4kB5pNc8rY3uW6eJd")

	assert.False(t, res.Breached)
	assert.True(t, res.Checked)
	assert.Equal(t, 0, res.Count)
}

func TestCheck_UnreachableCorpusDegradesToUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	c := NewChecker(srv.URL+"/", 200*time.Millisecond, testLogger())
	res := c.Check(context.Background(), "password123")

	assert.False(t, res.Breached)
	assert.False(t, res.Checked)
}

func TestCheck_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	prefix, suffix := hashParts("password123")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		require.Equal(t, "/"+prefix, r.URL.Path)
		fmt.Fprintf(w, "%s:7\r\n", suffix)
	}))
	defer srv.Close()

	c := NewChecker(srv.URL+"/", time.Second, testLogger())
	res := c.Check(context.Background(), "password123")

	assert.True(t, res.Breached)
	assert.True(t, res.Checked)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCheck_GivesUpAfterBoundedRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewChecker(srv.URL+"/", time.Second, testLogger())
	res := c.Check(context.Background(), "anything")

	assert.False(t, res.Checked)
	assert.Equal(t, int32(3), calls.Load(), "initial attempt plus two retries")
}

func TestCheck_OnlyPrefixLeavesProcess(t *testing.T) {
	prefix, _ := hashParts("hunter2")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+prefix, r.URL.Path)
		assert.Len(t, strings.TrimPrefix(r.URL.Path, "/"), 5)
	}))
	defer srv.Close()

	c := NewChecker(srv.URL+"/", time.Second, testLogger())
	res := c.Check(context.Background(), "hunter2")
	assert.True(t, res.Checked)
}
