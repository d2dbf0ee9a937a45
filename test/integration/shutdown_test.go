package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/parley-chat/parley/internal/server"
	"github.com/parley-chat/parley/test/testhelpers"
)

func TestHubShutdownClosesConnections(t *testing.T) {
	stack := testhelpers.StartStack(t)
	token := stack.RegisterUser(t, "ana@example.com", "ana", "s3cret")

	conn := stack.Dial(t)
	testhelpers.Authenticate(t, conn, token)
	testhelpers.JoinRoom(t, conn, "general")

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- stack.Hub.Shutdown(5 * time.Second)
	}()

	testhelpers.ExpectClosed(t, conn)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("hub shutdown returned error: %v", err)
		}
		// The connection goroutines must finish well before the timeout,
		// not block until it elapses.
		if elapsed := time.Since(start); elapsed > 3*time.Second {
			t.Errorf("shutdown with a live connection took %v", elapsed)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("hub shutdown did not complete")
	}
}

func TestShutdownServerStopsAcceptingRequests(t *testing.T) {
	srv := server.CreateServer("127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	// Give the listener a moment to bind.
	time.Sleep(100 * time.Millisecond)

	if err := server.ShutdownServer(srv, 5*time.Second, zerolog.Nop()); err != nil {
		t.Fatalf("graceful shutdown failed: %v", err)
	}

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			t.Errorf("expected ErrServerClosed, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestShutdownWithNoConnectionsCompletesQuickly(t *testing.T) {
	stack := testhelpers.StartStack(t)

	start := time.Now()
	if err := stack.Hub.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("hub shutdown returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("idle shutdown took too long: %v", elapsed)
	}
}
