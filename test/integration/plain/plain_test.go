package plain

import (
	"context"
	"testing"
	"time"

	"dominicbreuker/gosock/pkg/config"
	"dominicbreuker/gosock/pkg/entrypoint"
	"dominicbreuker/gosock/test/helpers"
)

// TestEndToEndDataExchange runs both modes against each other, like
//   - "gosock listen 'tcp://*:12345'"
//   - "gosock connect tcp://127.0.0.1:12345"
func TestEndToEndDataExchange(t *testing.T) {
	setup := helpers.SetupMockPeers(12345)
	defer setup.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	listenErr := make(chan error, 1)
	connectErr := make(chan error, 1)

	go func() {
		listenErr <- entrypoint.Listen(ctx, setup.Listener.Cfg, setup.ListenCfg)
	}()

	if err := setup.Network.WaitForListener(0, 12345, 2000); err != nil {
		t.Fatalf("listener did not start: %v", err)
	}

	go func() {
		connectErr <- entrypoint.Connect(ctx, setup.Connector.Cfg, &config.Connect{})
	}()

	setup.Listener.Stdio.WriteToStdin([]byte("Hello from the listener!\n"))
	if err := setup.Connector.Stdio.WaitForOutput("Hello from the listener!", 2000); err != nil {
		t.Errorf("data did not arrive at the connector: %v", err)
	}

	setup.Connector.Stdio.WriteToStdin([]byte("Hello from the connector!\n"))
	if err := setup.Listener.Stdio.WaitForOutput("Hello from the connector!", 2000); err != nil {
		t.Errorf("data did not arrive at the listener: %v", err)
	}

	// EOF on the connector's stdin half-closes the socket. The listener's
	// session ends on the FIN and closes, which ends the connector too.
	setup.Connector.Stdio.CloseStdin()
	select {
	case err := <-connectErr:
		if err != nil {
			t.Errorf("connect returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("connect did not return after EOF on stdin")
	}

	cancel()
	select {
	case err := <-listenErr:
		if err != nil {
			t.Errorf("listen returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Error("listen did not return after cancel")
	}

	if got := setup.Network.Calls("ShutdownWrite"); got < 1 {
		t.Errorf("ShutdownWrite calls = %d, want at least 1", got)
	}
}
