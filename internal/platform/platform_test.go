package platform

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffvpn/tunnelctl/internal/execution"
	"github.com/skiffvpn/tunnelctl/internal/shared/errors"
	"github.com/skiffvpn/tunnelctl/internal/shared/logger"
)

// fakeRunner scripts helper invocations for tests.
type fakeRunner struct {
	results   map[string]execution.Result
	errs      map[string]error
	missing   bool
	callCount int
	lastCmd   string
	lastArgs  []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string, _ time.Duration) (execution.Result, error) {
	f.callCount++
	f.lastCmd = name
	f.lastArgs = args

	key := name
	if len(args) > 0 {
		key = name + " " + args[0]
	}
	if err, ok := f.errs[key]; ok {
		return execution.Result{}, err
	}
	if res, ok := f.results[key]; ok {
		return res, nil
	}
	return execution.Result{}, nil
}

func (f *fakeRunner) LookPath(name string) (string, bool) {
	if f.missing {
		return "", false
	}
	return "/usr/bin/" + name, true
}

func newTestLinux(runner execution.Runner) Capability {
	cap, err := New("linux", runner, logger.NewDevelopment("test"), time.Second)
	if err != nil {
		panic(err)
	}
	return cap
}

func TestNewUnsupportedOS(t *testing.T) {
	_, err := New("plan9", &fakeRunner{}, logger.NewDevelopment("test"), time.Second)
	require.Error(t, err)
	assert.Equal(t, errors.KindPlatformUnsupported, errors.KindOf(err))
}

func TestLinuxBringUp(t *testing.T) {
	runner := &fakeRunner{}
	cap := newTestLinux(runner)

	iface, err := cap.BringUp(context.Background(), "/tmp/tc-123/wg0.conf")
	require.NoError(t, err)
	assert.Equal(t, "wg0", iface)
	assert.Equal(t, []string{"up", "/tmp/tc-123/wg0.conf"}, runner.lastArgs)
}

func TestLinuxBringUpToolMissing(t *testing.T) {
	runner := &fakeRunner{missing: true}
	cap := newTestLinux(runner)

	assert.False(t, cap.ToolAvailable())

	_, err := cap.BringUp(context.Background(), "/tmp/wg0.conf")
	require.Error(t, err)
	assert.Equal(t, errors.KindToolNotInstalled, errors.KindOf(err))
	assert.Zero(t, runner.callCount, "helper must not be invoked when the tool is missing")
}

func TestLinuxBringUpPermissionDenied(t *testing.T) {
	runner := &fakeRunner{results: map[string]execution.Result{
		"wg-quick up": {ExitCode: 1, Stderr: "wg-quick: `wg0' Operation not permitted"},
	}}
	cap := newTestLinux(runner)

	_, err := cap.BringUp(context.Background(), "/tmp/wg0.conf")
	require.Error(t, err)
	assert.Equal(t, errors.KindPermissionDenied, errors.KindOf(err))
}

func TestLinuxBringUpRedactsSecrets(t *testing.T) {
	secret := "hunter2hunter2hunter2hunter2hunter2hunter2k="
	runner := &fakeRunner{results: map[string]execution.Result{
		"wg-quick up": {ExitCode: 2, Stderr: "Line unrecognized: PrivateKey=" + secret},
	}}
	cap := newTestLinux(runner)

	_, err := cap.BringUp(context.Background(), "/tmp/wg0.conf", secret)
	require.Error(t, err)
	assert.Equal(t, errors.KindExecutionFailed, errors.KindOf(err))
	assert.NotContains(t, err.Error(), secret)
	assert.Contains(t, err.Error(), "[redacted]")
}

func TestLinuxBringUpTimeoutPassthrough(t *testing.T) {
	runner := &fakeRunner{errs: map[string]error{
		"wg-quick up": errors.NewTimeout("wg-quick"),
	}}
	cap := newTestLinux(runner)

	_, err := cap.BringUp(context.Background(), "/tmp/wg0.conf")
	require.Error(t, err)
	assert.Equal(t, errors.KindTimeout, errors.KindOf(err))
}

func TestLinuxBringUpTimeoutRollsBack(t *testing.T) {
	runner := &fakeRunner{errs: map[string]error{
		"wg-quick up": errors.NewTimeout("wg-quick"),
	}}
	cap := newTestLinux(runner)

	_, err := cap.BringUp(context.Background(), "/tmp/wg0.conf")
	require.Error(t, err)
	assert.Equal(t, errors.KindTimeout, errors.KindOf(err))

	// The killed helper cannot run its own rollback; a best-effort
	// down must follow so no half-created interface survives.
	assert.Equal(t, 2, runner.callCount)
	assert.Equal(t, []string{"down", "/tmp/wg0.conf"}, runner.lastArgs)
}

func TestLinuxBringDownNotFound(t *testing.T) {
	runner := &fakeRunner{results: map[string]execution.Result{
		"wg-quick down": {ExitCode: 1, Stderr: "wg-quick: `wg0' is not a WireGuard interface"},
	}}
	cap := newTestLinux(runner)

	err := cap.BringDown(context.Background(), "wg0", "")
	require.Error(t, err)
	assert.Equal(t, errors.KindInterfaceNotFound, errors.KindOf(err))
}

func TestLinuxBringDownPrefersArtifactPath(t *testing.T) {
	runner := &fakeRunner{}
	cap := newTestLinux(runner)

	require.NoError(t, cap.BringDown(context.Background(), "wg0", "/tmp/tc-1/wg0.conf"))
	assert.Equal(t, []string{"down", "/tmp/tc-1/wg0.conf"}, runner.lastArgs)
}

func TestLinuxQueryStatus(t *testing.T) {
	t.Run("named interface up", func(t *testing.T) {
		runner := &fakeRunner{results: map[string]execution.Result{
			"wg show": {ExitCode: 0, Stdout: "interface: wg0\n"},
		}}
		cap := newTestLinux(runner)

		st := cap.QueryStatus(context.Background(), "wg0")
		assert.True(t, st.Connected)
		assert.Equal(t, "wg0", st.Interface)
		assert.Equal(t, "wg0", st.ConfigName)
	})

	t.Run("nothing up", func(t *testing.T) {
		runner := &fakeRunner{results: map[string]execution.Result{
			"wg show": {ExitCode: 0, Stdout: ""},
		}}
		cap := newTestLinux(runner)

		st := cap.QueryStatus(context.Background(), "")
		assert.False(t, st.Connected)
		assert.Empty(t, st.Interface)
		assert.Empty(t, st.ConfigName)
	})

	t.Run("helper failure degrades to disconnected", func(t *testing.T) {
		runner := &fakeRunner{results: map[string]execution.Result{
			"wg show": {ExitCode: 1, Stderr: "Unable to access interface: No such device"},
		}}
		cap := newTestLinux(runner)

		st := cap.QueryStatus(context.Background(), "wg9")
		assert.False(t, st.Connected)
	})
}

func TestParseUtunName(t *testing.T) {
	cases := []struct {
		output string
		want   string
	}{
		{"[+] Interface for wg0 is utun6\n[#] wg setconf utun6", "utun6"},
		{"[#] ip link add wg0 type wireguard", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseUtunName(tc.output))
	}
}

func TestDarwinBringUpUsesKernelName(t *testing.T) {
	runner := &fakeRunner{results: map[string]execution.Result{
		"/usr/bin/wg-quick up": {ExitCode: 0, Stdout: "[+] Interface for wg0 is utun4\n"},
	}}
	cap, err := New("darwin", runner, logger.NewDevelopment("test"), time.Second)
	require.NoError(t, err)

	iface, err := cap.BringUp(context.Background(), "/tmp/wg0.conf")
	require.NoError(t, err)
	assert.Equal(t, "utun4", iface)
}

func TestWindowsBringUp(t *testing.T) {
	runner := &fakeRunner{}
	cap, err := New("windows", runner, logger.NewDevelopment("test"), time.Second)
	require.NoError(t, err)

	iface, err := cap.BringUp(context.Background(), `C:\temp\corp.conf`)
	require.NoError(t, err)
	assert.Equal(t, "corp", iface)
	assert.Equal(t, "/installtunnelservice", runner.lastArgs[0])
}
