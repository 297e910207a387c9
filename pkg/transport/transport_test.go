package transport_test

import (
	"errors"
	"sync"
	"testing"

	mocktcp "dominicbreuker/gosock/mocks/tcp"
	"dominicbreuker/gosock/pkg/transport"
)

func TestEnsureInit_Once(t *testing.T) {
	t.Parallel()

	n := mocktcp.NewMockNetwork()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := transport.EnsureInit(n); err != nil {
				t.Errorf("EnsureInit(): %v", err)
			}
		}()
	}
	wg.Wait()

	if calls := n.Calls("Init"); calls != 1 {
		t.Errorf("Init called %d times, want 1", calls)
	}
}

func TestEnsureInit_RemembersFailure(t *testing.T) {
	t.Parallel()

	n := mocktcp.NewMockNetwork()
	boom := errors.New("boom")
	n.FailNext("Init", boom)

	if err := transport.EnsureInit(n); !errors.Is(err, boom) {
		t.Fatalf("EnsureInit() = %v, want %v", err, boom)
	}
	if err := transport.EnsureInit(n); !errors.Is(err, boom) {
		t.Errorf("second EnsureInit() = %v, want %v", err, boom)
	}
	if calls := n.Calls("Init"); calls != 1 {
		t.Errorf("Init called %d times, want 1", calls)
	}
}

func TestEnsureInit_PerProvider(t *testing.T) {
	t.Parallel()

	a, b := mocktcp.NewMockNetwork(), mocktcp.NewMockNetwork()
	transport.EnsureInit(a)
	transport.EnsureInit(b)

	if a.Calls("Init") != 1 || b.Calls("Init") != 1 {
		t.Errorf("Init calls = %d, %d, want 1, 1", a.Calls("Init"), b.Calls("Init"))
	}
}
