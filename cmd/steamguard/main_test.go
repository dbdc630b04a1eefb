package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/tidepool-org/steamguard/clients/steamtime"
	"github.com/tidepool-org/steamguard/utils/otp"
)

const (
	testing_secret = "PQTPTTHIK4I74W7PLCBKDYTFVBZ4WLPJ"
	testing_now    = 1700000000
)

// pinClock fixes the local clock at unix seconds ts for the duration of the test
func pinClock(t *testing.T, ts int64) {
	t.Helper()
	t.Cleanup(otp.SetClock(func() time.Time { return time.Unix(ts, 0) }))
}

// steamServer answers QueryTime with the given body
func steamServer(t *testing.T, code int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost || req.URL.Path != "/ITwoFactorService/QueryTime/v1/" {
			t.Errorf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		res.WriteHeader(code)
		res.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

// executeCommand runs a fresh root command with args and returns what it printed
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCodeCmd(t *testing.T) {
	pinClock(t, testing_now)

	tests := []struct {
		args     []string
		expected string
	}{
		{[]string{"code", "--secret", testing_secret}, "RTNH4 (10s)\n"},
		{[]string{"code", "--secret", testing_secret, "--offset", "30"}, "C3P5X (10s)\n"},
		{[]string{"code", "--secret", "7273a0bff29da4ba0fe8d6e1d063245e43d700b4"}, "X45RP (10s)\n"},
	}
	for _, test := range tests {
		got, err := executeCommand(t, test.args...)
		if err != nil {
			t.Fatalf("%v: %s", test.args, err)
		}
		if got != test.expected {
			t.Errorf("%v printed %q, expected %q", test.args, got, test.expected)
		}
	}
}

func TestCodeCmdSecretFromEnv(t *testing.T) {
	pinClock(t, testing_now)
	t.Setenv("STEAMGUARD_SECRET", testing_secret)

	got, err := executeCommand(t, "code")
	if err != nil {
		t.Fatal(err)
	}
	if got != "RTNH4 (10s)\n" {
		t.Errorf("printed %q", got)
	}
}

func TestCodeCmdErrors(t *testing.T) {
	pinClock(t, testing_now)

	if _, err := executeCommand(t, "code"); err == nil || !strings.Contains(err.Error(), "secret is required") {
		t.Errorf("a missing secret should be reported, got %v", err)
	}
	if _, err := executeCommand(t, "code", "--secret", "not*base64"); !errors.Is(err, otp.ErrInvalidSecretFormat) {
		t.Errorf("expected ErrInvalidSecretFormat, got %v", err)
	}
}

func TestCodeCmdSync(t *testing.T) {
	pinClock(t, testing_now)
	server := steamServer(t, http.StatusOK, `{"response":{"server_time":"1700000030"}}`)

	got, err := executeCommand(t, "code", "--secret", testing_secret, "--sync", "--host", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if got != "C3P5X (10s)\n" {
		t.Errorf("printed %q", got)
	}
}

func TestCodeCmdSyncFailure(t *testing.T) {
	pinClock(t, testing_now)
	server := steamServer(t, http.StatusServiceUnavailable, "")

	_, err := executeCommand(t, "code", "--secret", testing_secret, "--sync", "--host", server.URL)
	if !errors.Is(err, steamtime.ErrTimeSyncFailed) {
		t.Errorf("expected ErrTimeSyncFailed, got %v", err)
	}
}

func TestCodeCmdBeforeEpoch(t *testing.T) {
	pinClock(t, testing_now)

	_, err := executeCommand(t, "code", "--secret", testing_secret, "--offset=-1700000001")
	if !errors.Is(err, otp.ErrTimeBeforeEpoch) {
		t.Errorf("expected ErrTimeBeforeEpoch, got %v", err)
	}
}

func TestWatchCmd(t *testing.T) {
	pinClock(t, testing_now)
	saved := refreshInterval
	refreshInterval = time.Millisecond
	t.Cleanup(func() { refreshInterval = saved })

	got, err := executeCommand(t, "watch", "--secret", testing_secret, "--count", "3")
	if err != nil {
		t.Fatal(err)
	}
	if got != strings.Repeat("RTNH4 (10s)\n", 3) {
		t.Errorf("printed %q", got)
	}
}

func TestWatchCmdStopsOnCancel(t *testing.T) {
	pinClock(t, testing_now)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"watch", "--secret", testing_secret})
	if err := cmd.ExecuteContext(ctx); err != nil {
		t.Fatal(err)
	}
	// the first code is printed before the context is checked
	if out.String() != "RTNH4 (10s)\n" {
		t.Errorf("printed %q", out.String())
	}
}

func TestConfirmCmd(t *testing.T) {
	// the local clock runs 20 seconds behind Steam
	pinClock(t, testing_now-20)

	tests := []struct {
		args     []string
		expected string
	}{
		{[]string{"confirm", "--secret", testing_secret, "--time", "1700000000"}, "vPXP1quSKbj+Q1DcJDawxdATFs0= 1700000000\n"},
		{[]string{"confirm", "--secret", testing_secret, "--tag", "details", "--offset", "20"}, "YfUO+VsL2gO12T9KKKOLY/U8aGY= 1700000000\n"},
		{[]string{"confirm", "--secret", testing_secret, "--tag", "allow", "--offset", "20"}, "mVpLpgTZ69Fmt8ZziUN5tmvgRe0= 1700000000\n"},
		// an explicit time is signed as is
		{[]string{"confirm", "--secret", testing_secret, "--tag", "cancel", "--offset=-20", "--time", "1700000000"}, "nJ4h0XCdL8J3452NSGCnEbGKrdI= 1700000000\n"},
	}

	for _, test := range tests {
		got, err := executeCommand(t, test.args...)
		if err != nil {
			t.Fatalf("%v: %s", test.args, err)
		}
		if got != test.expected {
			t.Errorf("%v printed %q, expected %q", test.args, got, test.expected)
		}
	}
}

func TestTimeCmd(t *testing.T) {
	pinClock(t, testing_now)
	server := steamServer(t, http.StatusOK, `{"response":{"server_time":1699999995,"skew_tolerance_seconds":"60"}}`)

	got, err := executeCommand(t, "time", "--host", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if got != "offset: -5s latency: 0s\n" {
		t.Errorf("printed %q", got)
	}
}

func TestTimeCmdMalformed(t *testing.T) {
	pinClock(t, testing_now)
	server := steamServer(t, http.StatusOK, `{"response":{}}`)

	if _, err := executeCommand(t, "time", "--host", server.URL); !errors.Is(err, steamtime.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestDeviceCmd(t *testing.T) {
	got, err := executeCommand(t, "device", "--steamid", "76561197960287930")
	if err != nil {
		t.Fatal(err)
	}
	if got != "android:6d3f10d9-6369-a1ae-97a0-94df28b95192\n" {
		t.Errorf("printed %q", got)
	}

	if _, err := executeCommand(t, "device", "--steamid", "STEAM_0:0:11101"); err == nil {
		t.Error("a non numeric steam id should be rejected")
	}
}
