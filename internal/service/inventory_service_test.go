package service

import (
	"testing"

	"github.com/Josephquito/back-streaming/internal/model"
	"github.com/Josephquito/back-streaming/pkg/apperr"
)

func TestRecordEntryCreatesAggregate(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxT(t)
	business := env.seedBusiness(t, "Negocio A")
	platform := env.seedPlatform(t, "StreamFlix")
	user := env.seedUser(t, business.ID, "admin@a.com", model.RoleAdmin)
	svc := NewInventoryService(env.db, env.rdb, env.cfg, env.log)

	stock, err := svc.RecordEntry(ctx, EntryInput{
		PlatformID:  platform.ID,
		Qty:         10,
		TotalCost:   dec("100"),
		Description: "Compra inicial",
	}, identityFor(user))
	if err != nil {
		t.Fatalf("RecordEntry: %v", err)
	}

	if stock.Stock != 10 {
		t.Fatalf("stock = %d, want 10", stock.Stock)
	}
	requireDecimal(t, stock.AvgCost, "10", "costo promedio")
	requireDecimal(t, stock.TotalValue, "100", "valor total")

	if n := env.movementCount(t, business.ID); n != 1 {
		t.Fatalf("movimientos = %d, want 1", n)
	}
}

func TestRecordEntryFoldsWeightedAverage(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxT(t)
	business := env.seedBusiness(t, "Negocio A")
	platform := env.seedPlatform(t, "StreamFlix")
	user := env.seedUser(t, business.ID, "admin@a.com", model.RoleAdmin)
	svc := NewInventoryService(env.db, env.rdb, env.cfg, env.log)
	ident := identityFor(user)

	if _, err := svc.RecordEntry(ctx, EntryInput{PlatformID: platform.ID, Qty: 10, TotalCost: dec("100")}, ident); err != nil {
		t.Fatalf("primera entrada: %v", err)
	}
	stock, err := svc.RecordEntry(ctx, EntryInput{PlatformID: platform.ID, Qty: 5, TotalCost: dec("100")}, ident)
	if err != nil {
		t.Fatalf("segunda entrada: %v", err)
	}

	// (10×10 + 100) / 15 = 13.3333 a cuatro decimales.
	if stock.Stock != 15 {
		t.Fatalf("stock = %d, want 15", stock.Stock)
	}
	requireDecimal(t, stock.AvgCost, "13.3333", "costo promedio")
	requireDecimal(t, stock.TotalValue, "200.00", "valor total")
	requireDecimal(t, stock.TotalValue, stock.ExpectedValue().String(), "invariante del agregado")
}

func TestRecordExitKeepsAverage(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxT(t)
	business := env.seedBusiness(t, "Negocio A")
	platform := env.seedPlatform(t, "StreamFlix")
	user := env.seedUser(t, business.ID, "admin@a.com", model.RoleAdmin)
	svc := NewInventoryService(env.db, env.rdb, env.cfg, env.log)
	ident := identityFor(user)

	if _, err := svc.RecordEntry(ctx, EntryInput{PlatformID: platform.ID, Qty: 10, TotalCost: dec("100")}, ident); err != nil {
		t.Fatalf("entrada: %v", err)
	}
	stock, err := svc.RecordExit(ctx, ExitInput{PlatformID: platform.ID, Qty: 4, Description: "Ajuste"}, ident)
	if err != nil {
		t.Fatalf("salida: %v", err)
	}

	if stock.Stock != 6 {
		t.Fatalf("stock = %d, want 6", stock.Stock)
	}
	requireDecimal(t, stock.AvgCost, "10", "costo promedio")
	requireDecimal(t, stock.TotalValue, "60.00", "valor total")
}

func TestRecordExitInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxT(t)
	business := env.seedBusiness(t, "Negocio A")
	platform := env.seedPlatform(t, "StreamFlix")
	user := env.seedUser(t, business.ID, "admin@a.com", model.RoleAdmin)
	svc := NewInventoryService(env.db, env.rdb, env.cfg, env.log)
	ident := identityFor(user)

	if _, err := svc.RecordEntry(ctx, EntryInput{PlatformID: platform.ID, Qty: 3, TotalCost: dec("30")}, ident); err != nil {
		t.Fatalf("entrada: %v", err)
	}

	_, err := svc.RecordExit(ctx, ExitInput{PlatformID: platform.ID, Qty: 5}, ident)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflicto", err)
	}

	// La salida fallida no deja rastro: ni en el agregado ni en el historial.
	stock := env.stockFor(t, platform.ID, business.ID)
	if stock.Stock != 3 {
		t.Fatalf("stock = %d, want 3", stock.Stock)
	}
	if n := env.movementCount(t, business.ID); n != 1 {
		t.Fatalf("movimientos = %d, want 1", n)
	}
}

func TestRecordEntryValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxT(t)
	business := env.seedBusiness(t, "Negocio A")
	platform := env.seedPlatform(t, "StreamFlix")
	user := env.seedUser(t, business.ID, "admin@a.com", model.RoleAdmin)
	svc := NewInventoryService(env.db, env.rdb, env.cfg, env.log)
	ident := identityFor(user)

	if _, err := svc.RecordEntry(ctx, EntryInput{PlatformID: platform.ID, Qty: 0, TotalCost: dec("10")}, ident); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("cantidad cero: err = %v, want validación", err)
	}
	if _, err := svc.RecordEntry(ctx, EntryInput{PlatformID: platform.ID, Qty: 1, TotalCost: dec("-5")}, ident); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("costo negativo: err = %v, want validación", err)
	}
	if _, err := svc.RecordEntry(ctx, EntryInput{PlatformID: platform.ID, Qty: 1, TotalCost: dec("10")}, Identity{}); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("sin negocio: err = %v, want no autorizado", err)
	}
}

func TestMovementHistoryKeepsRunningBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxT(t)
	business := env.seedBusiness(t, "Negocio A")
	platform := env.seedPlatform(t, "StreamFlix")
	other := env.seedPlatform(t, "SeriesMax")
	user := env.seedUser(t, business.ID, "admin@a.com", model.RoleAdmin)
	svc := NewInventoryService(env.db, env.rdb, env.cfg, env.log)
	ident := identityFor(user)

	steps := []struct {
		entry bool
		qty   int
		cost  string
	}{
		{true, 10, "100"},
		{false, 4, ""},
		{true, 6, "90"},
	}
	for _, step := range steps {
		var err error
		if step.entry {
			_, err = svc.RecordEntry(ctx, EntryInput{PlatformID: platform.ID, Qty: step.qty, TotalCost: dec(step.cost)}, ident)
		} else {
			_, err = svc.RecordExit(ctx, ExitInput{PlatformID: platform.ID, Qty: step.qty}, ident)
		}
		if err != nil {
			t.Fatalf("aplicando paso %+v: %v", step, err)
		}
	}
	if _, err := svc.RecordEntry(ctx, EntryInput{PlatformID: other.ID, Qty: 2, TotalCost: dec("20")}, ident); err != nil {
		t.Fatalf("entrada en otra plataforma: %v", err)
	}

	movements, err := svc.ListMovements(ctx, &platform.ID, ident)
	if err != nil {
		t.Fatalf("ListMovements: %v", err)
	}
	if len(movements) != 3 {
		t.Fatalf("movimientos = %d, want 3", len(movements))
	}

	// 10@10 → saldo 10/100; −4 → saldo 6/60; +6@15 → promedio 12.5, saldo 12/150.
	wantBalances := []struct {
		qty   int
		total string
	}{
		{10, "100"},
		{6, "60"},
		{12, "150"},
	}
	for i, want := range wantBalances {
		m := movements[i]
		if m.BalanceQty != want.qty {
			t.Fatalf("movimiento %d: saldo = %d, want %d", i, m.BalanceQty, want.qty)
		}
		requireDecimal(t, m.BalanceTotal, want.total, "saldo en valor")
	}

	all, err := svc.ListMovements(ctx, nil, ident)
	if err != nil {
		t.Fatalf("ListMovements sin filtro: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("movimientos totales = %d, want 4", len(all))
	}
}

func TestLedgerEntriesQueueOutboxMessages(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxT(t)
	business := env.seedBusiness(t, "Negocio A")
	platform := env.seedPlatform(t, "StreamFlix")
	user := env.seedUser(t, business.ID, "admin@a.com", model.RoleAdmin)
	svc := NewInventoryService(env.db, env.rdb, env.cfg, env.log)

	if _, err := svc.RecordEntry(ctx, EntryInput{PlatformID: platform.ID, Qty: 5, TotalCost: dec("50")}, identityFor(user)); err != nil {
		t.Fatalf("RecordEntry: %v", err)
	}

	var messages []model.OutboxMessage
	if err := env.db.Find(&messages).Error; err != nil {
		t.Fatalf("leyendo outbox: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("mensajes en outbox = %d, want 1", len(messages))
	}
	msg := messages[0]
	if msg.Status != model.OutboxStatusPending {
		t.Fatalf("estado = %s, want PENDING", msg.Status)
	}
	if msg.Topic != env.cfg.Kafka.Topic.InventoryMovement {
		t.Fatalf("topic = %s, want %s", msg.Topic, env.cfg.Kafka.Topic.InventoryMovement)
	}
}

func TestAggregateReadIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxT(t)
	business := env.seedBusiness(t, "Negocio A")
	platform := env.seedPlatform(t, "StreamFlix")
	user := env.seedUser(t, business.ID, "admin@a.com", model.RoleAdmin)
	svc := NewInventoryService(env.db, env.rdb, env.cfg, env.log)
	ident := identityFor(user)

	if _, err := svc.RecordEntry(ctx, EntryInput{PlatformID: platform.ID, Qty: 7, TotalCost: dec("70")}, ident); err != nil {
		t.Fatalf("RecordEntry: %v", err)
	}

	first, err := svc.GetStock(ctx, platform.ID, ident)
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	second, err := svc.GetStock(ctx, platform.ID, ident)
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}

	if first.Stock != second.Stock || !first.AvgCost.Equal(second.AvgCost) || !first.TotalValue.Equal(second.TotalValue) {
		t.Fatalf("lecturas divergentes: %+v vs %+v", first, second)
	}
}
