package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestLockIsExclusivePerKey(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()

	first := NewInventoryLock(client, 1, 1, "titular-1")
	second := NewInventoryLock(client, 1, 1, "titular-2")
	other := NewInventoryLock(client, 2, 1, "titular-3")

	if ok, err := first.TryLock(ctx); err != nil || !ok {
		t.Fatalf("TryLock inicial: ok=%v err=%v", ok, err)
	}
	if ok, _ := second.TryLock(ctx); ok {
		t.Fatal("la misma clave no debería adquirirse dos veces")
	}
	// Otra clave (otra plataforma) no compite.
	if ok, err := other.TryLock(ctx); err != nil || !ok {
		t.Fatalf("TryLock de otra clave: ok=%v err=%v", ok, err)
	}

	if err := first.Unlock(ctx); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if ok, err := second.TryLock(ctx); err != nil || !ok {
		t.Fatalf("TryLock tras liberar: ok=%v err=%v", ok, err)
	}
}

func TestUnlockOnlyReleasesOwnLock(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()

	holder := NewInventoryLock(client, 1, 1, "titular")
	impostor := NewInventoryLock(client, 1, 1, "impostor")

	if ok, _ := holder.TryLock(ctx); !ok {
		t.Fatal("TryLock inicial falló")
	}
	if err := impostor.Unlock(ctx); err != nil {
		t.Fatalf("Unlock ajeno: %v", err)
	}
	// El candado sigue en pie: el impostor no lo soltó.
	if ok, _ := impostor.TryLock(ctx); ok {
		t.Fatal("el candado debería seguir tomado")
	}
}

func TestLockGivesUpAfterRetries(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()

	holder := NewInventoryLock(client, 1, 1, "titular")
	waiter := NewInventoryLock(client, 1, 1, "en-espera")

	if ok, _ := holder.TryLock(ctx); !ok {
		t.Fatal("TryLock inicial falló")
	}

	err := waiter.Lock(ctx, time.Millisecond, 3)
	if !errors.Is(err, ErrLockFailed) {
		t.Fatalf("err = %v, want ErrLockFailed", err)
	}
}
