package env

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/tickprog/pkg/bt"
	"github.com/robotalks/tickprog/pkg/periph"
	"github.com/robotalks/tickprog/pkg/sim"
)

func TestAddressFromID(t *testing.T) {
	a, b := AddressFromID("machine-a"), AddressFromID("machine-b")
	require.NotEqual(t, a, b)
	require.Equal(t, a, AddressFromID("machine-a"))
	require.Equal(t, byte(0x02), a[0]&0x03)
	require.False(t, LocalAddress().IsZero())
}

func TestFromEnv(t *testing.T) {
	vars := map[string]string{
		EnvProgram: "receiver",
		EnvPeer:    "00:16:53:01:02:03",
		EnvLink:    "tcp+listen://:7000",
		EnvMetrics: ":2112",
	}
	conf := NewConfig()
	require.NoError(t, conf.FromEnv(func(name string) string { return vars[name] }))
	require.Equal(t, "receiver", conf.Program)
	require.Equal(t, periph.MustParseAddress("00:16:53:01:02:03"), conf.Peer)
	require.Equal(t, "tcp+listen://:7000", conf.LinkURL)
	require.Equal(t, ":2112", conf.MetricsAddr)
	require.Empty(t, conf.MQTTBrokerURL)

	vars[EnvPeer] = "bad"
	require.Error(t, conf.FromEnv(func(name string) string { return vars[name] }))
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{name: "defaults", modify: func(*Config) {}, valid: true},
		{name: "no program", modify: func(c *Config) { c.Program = "" }},
		{name: "bad channel", modify: func(c *Config) { c.Channel = 0 }},
		{name: "bad motor", modify: func(c *Config) { c.Motor = periph.NumMotors + 1 }},
		{name: "bad button", modify: func(c *Config) { c.Button = 0 }},
		{name: "bad threshold", modify: func(c *Config) { c.Threshold = 0x8000 }},
		{name: "link without peer", modify: func(c *Config) { c.LinkURL, c.Peer = "mem://x", periph.Address{} }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			tc.modify(conf)
			if tc.valid {
				require.NoError(t, conf.Validate())
			} else {
				require.Error(t, conf.Validate())
			}
		})
	}
}

func TestResolveProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
program: sender
peer: "00:16:53:0a:0b:0c"
link: mem://profile
interval: 2ms
threshold: 500
dwell_ticks: 100
`), 0644))

	conf := NewConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	SetupFlagSet(fs, conf)
	require.NoError(t, fs.Parse([]string{"-profile", path, "-threshold", "200"}))

	resolved, err := Resolve(fs, conf)
	require.NoError(t, err)
	require.Equal(t, "sender", resolved.Program)
	require.Equal(t, periph.MustParseAddress("00:16:53:0a:0b:0c"), resolved.Peer)
	require.Equal(t, "mem://profile", resolved.LinkURL)
	require.Equal(t, 2*time.Millisecond, resolved.Interval)
	require.Equal(t, 200, resolved.Threshold)
	require.Equal(t, uint(100), resolved.DwellTicks)

	opts := resolved.Options()
	require.Equal(t, int16(200), opts.Threshold)
	require.Equal(t, uint32(100), opts.DwellTicks)
	require.Equal(t, bt.DefaultMotor, opts.Motor)

	t.Run("missing profile", func(t *testing.T) {
		conf := NewConfig()
		conf.Profile = filepath.Join(t.TempDir(), "missing.yaml")
		_, err := Resolve(flag.NewFlagSet("test", flag.ContinueOnError), conf)
		require.Error(t, err)
	})

	t.Run("no profile", func(t *testing.T) {
		conf := NewConfig()
		resolved, err := Resolve(flag.NewFlagSet("test", flag.ContinueOnError), conf)
		require.NoError(t, err)
		require.Equal(t, conf, resolved)
	})
}

func TestNodeUnknownProgram(t *testing.T) {
	conf := NewConfig()
	conf.Program = "unknown"
	_, err := conf.NewNode(context.Background(), sim.NewConfig())
	require.Error(t, err)
}

func TestNodesStopAndGo(t *testing.T) {
	senderAddr := periph.MustParseAddress("02:00:00:00:00:01")
	receiverAddr := periph.MustParseAddress("02:00:00:00:00:02")
	nodeConfig := func(program string, local, peer periph.Address, dwell uint) *Config {
		conf := NewConfig()
		conf.Program, conf.Local, conf.Peer = program, local, peer
		conf.LinkURL = "mem://stop-and-go-test"
		conf.Threshold, conf.DwellTicks = 20, dwell
		return conf
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	receiver, err := nodeConfig("receiver", receiverAddr, senderAddr, 200).NewNode(ctx, sim.NewConfig())
	require.NoError(t, err)
	sender, err := nodeConfig("sender", senderAddr, receiverAddr, 5).NewNode(ctx, sim.NewConfig())
	require.NoError(t, err)
	sender.Controller.Press(bt.DefaultButton-1, true)

	receiverErr := make(chan error, 1)
	go func() { receiverErr <- receiver.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, sender.Run(ctx))
	require.NoError(t, <-receiverErr)

	require.True(t, receiver.Program.(*bt.Receiver).Finished())
	require.True(t, sender.Program.(*bt.Sender).Finished())
	require.GreaterOrEqual(t, receiver.Controller.Counter(0), int16(20))
	require.Zero(t, receiver.Controller.Duty(0))
}
