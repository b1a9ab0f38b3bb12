package service

import (
	"testing"
	"time"

	"github.com/Josephquito/back-streaming/internal/model"
	"github.com/Josephquito/back-streaming/pkg/apperr"
)

func sellFixture(t *testing.T) (*testEnv, *AccountService, *ProfileService, *model.Account, *model.Client, Identity) {
	t.Helper()
	env := newTestEnv(t)
	business := env.seedBusiness(t, "Negocio A")
	platform := env.seedPlatform(t, "StreamFlix")
	client := env.seedClient(t, business.ID, "Cliente Uno")
	user := env.seedUser(t, business.ID, "admin@a.com", model.RoleAdmin)
	accounts := NewAccountService(env.db, env.rdb, env.cfg, env.log)
	profiles := NewProfileService(env.db, env.rdb, env.cfg, env.log)
	ident := identityFor(user)

	account, err := accounts.Create(ctxT(t), CreateAccountInput{
		Login:        "cuenta@proveedor.com",
		Secret:       "clave",
		PurchaseDate: date(2026, time.March, 1),
		AssignedTime: "2 meses",
		TotalCost:    dec("100"),
		SlotCount:    5,
		PlatformID:   platform.ID,
	}, ident)
	if err != nil {
		t.Fatalf("creando cuenta: %v", err)
	}
	return env, accounts, profiles, account, client, ident
}

func TestSellCapturesAverageCost(t *testing.T) {
	env, _, profiles, account, client, ident := sellFixture(t)
	ctx := ctxT(t)

	profile, err := profiles.Sell(ctx, SellProfileInput{
		AccountID:    account.ID,
		ClientID:     client.ID,
		Price:        dec("35"),
		AssignedTime: "1 mes",
		SaleDate:     date(2026, time.March, 2),
	}, ident)
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}

	requireDecimal(t, profile.Cost, "20", "costo capturado")
	requireDecimal(t, profile.Gain, "15", "ganancia")
	if profile.SaleNo == "" {
		t.Fatal("la venta debe llevar número")
	}
	if want := date(2026, time.April, 1); profile.CutoffDate == nil || !profile.CutoffDate.Equal(want) {
		t.Fatalf("fecha de corte = %v, want %v", profile.CutoffDate, want)
	}

	stock := env.stockFor(t, account.PlatformID, account.BusinessID)
	if stock.Stock != 4 {
		t.Fatalf("stock = %d, want 4", stock.Stock)
	}
	// La venta no mueve el promedio, solo la existencia.
	requireDecimal(t, stock.AvgCost, "20", "costo promedio")
}

func TestSellRespectsSlotCapacity(t *testing.T) {
	env, accounts, profiles, _, client, ident := sellFixture(t)
	ctx := ctxT(t)

	small, err := accounts.Create(ctx, CreateAccountInput{
		Login:        "chica@proveedor.com",
		Secret:       "clave",
		PurchaseDate: date(2026, time.March, 1),
		AssignedTime: "1 mes",
		TotalCost:    dec("10"),
		SlotCount:    1,
		PlatformID:   envPlatformID(t, env),
		Disabled:     false,
	}, ident)
	if err != nil {
		t.Fatalf("creando cuenta chica: %v", err)
	}

	sell := func() error {
		_, err := profiles.Sell(ctx, SellProfileInput{
			AccountID:    small.ID,
			ClientID:     client.ID,
			Price:        dec("15"),
			AssignedTime: "1 mes",
			SaleDate:     date(2026, time.March, 2),
		}, ident)
		return err
	}

	if err := sell(); err != nil {
		t.Fatalf("primera venta: %v", err)
	}
	if err := sell(); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("segunda venta: err = %v, want prohibido", err)
	}
}

func TestSellWithoutStock(t *testing.T) {
	env, _, profiles, account, client, ident := sellFixture(t)
	ctx := ctxT(t)

	inventory := NewInventoryService(env.db, env.rdb, env.cfg, env.log)
	if _, err := inventory.RecordExit(ctx, ExitInput{PlatformID: account.PlatformID, Qty: 5, Description: "Ajuste"}, ident); err != nil {
		t.Fatalf("drenando stock: %v", err)
	}

	_, err := profiles.Sell(ctx, SellProfileInput{
		AccountID:    account.ID,
		ClientID:     client.ID,
		Price:        dec("30"),
		AssignedTime: "1 mes",
		SaleDate:     date(2026, time.March, 2),
	}, ident)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflicto", err)
	}
}

func TestDeactivateReturnsRecordedCost(t *testing.T) {
	env, _, profiles, account, client, ident := sellFixture(t)
	ctx := ctxT(t)
	inventory := NewInventoryService(env.db, env.rdb, env.cfg, env.log)

	profile, err := profiles.Sell(ctx, SellProfileInput{
		AccountID:    account.ID,
		ClientID:     client.ID,
		Price:        dec("35"),
		AssignedTime: "1 mes",
		SaleDate:     date(2026, time.March, 2),
	}, ident)
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}

	// Una entrada cara sube el promedio muy por encima de los 20 del perfil.
	if _, err := inventory.RecordEntry(ctx, EntryInput{PlatformID: account.PlatformID, Qty: 4, TotalCost: dec("400")}, ident); err != nil {
		t.Fatalf("entrada cara: %v", err)
	}
	before := env.stockFor(t, account.PlatformID, account.BusinessID)
	if !before.AvgCost.GreaterThan(dec("20")) {
		t.Fatalf("el promedio debería superar 20, es %s", before.AvgCost)
	}

	got, err := profiles.Deactivate(ctx, profile.ID, ident)
	if err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	if got.Active {
		t.Fatal("el perfil debería quedar inactivo")
	}
	if got.AccountID != nil {
		t.Fatal("el perfil debería desprenderse de la cuenta")
	}
	if got.CutoffDate != nil {
		t.Fatal("la fecha de corte debería limpiarse")
	}
	if got.DeactivatedAt == nil {
		t.Fatal("debería registrarse la fecha de desactivación")
	}
	if got.AccountLogin != "cuenta@proveedor.com" || got.PlatformName != "StreamFlix" {
		t.Fatalf("instantánea incompleta: login=%q plataforma=%q", got.AccountLogin, got.PlatformName)
	}

	// El cupo regresa a su costo registrado y arrastra el promedio hacia él.
	after := env.stockFor(t, account.PlatformID, account.BusinessID)
	if after.Stock != before.Stock+1 {
		t.Fatalf("stock = %d, want %d", after.Stock, before.Stock+1)
	}
	if !after.AvgCost.LessThan(before.AvgCost) {
		t.Fatalf("el promedio debería bajar: antes %s, después %s", before.AvgCost, after.AvgCost)
	}

	if _, err := profiles.Deactivate(ctx, profile.ID, ident); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("segunda desactivación: err = %v, want conflicto", err)
	}
}

func TestUpdateProfileRecomputesGainAndCutoff(t *testing.T) {
	_, _, profiles, account, client, ident := sellFixture(t)
	ctx := ctxT(t)

	profile, err := profiles.Sell(ctx, SellProfileInput{
		AccountID:    account.ID,
		ClientID:     client.ID,
		Price:        dec("35"),
		AssignedTime: "1 mes",
		SaleDate:     date(2026, time.March, 2),
	}, ident)
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}

	newPrice := dec("50")
	newTime := "2 meses"
	updated, err := profiles.Update(ctx, profile.ID, UpdateProfileInput{Price: &newPrice, AssignedTime: &newTime}, ident)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	requireDecimal(t, updated.Gain, "30", "ganancia recalculada")
	if want := date(2026, time.May, 1); updated.CutoffDate == nil || !updated.CutoffDate.Equal(want) {
		t.Fatalf("fecha de corte = %v, want %v", updated.CutoffDate, want)
	}
}

// envPlatformID returns the only platform seeded by sellFixture.
func envPlatformID(t *testing.T, env *testEnv) int64 {
	t.Helper()
	var platform model.Platform
	if err := env.db.First(&platform).Error; err != nil {
		t.Fatalf("leyendo plataforma: %v", err)
	}
	return platform.ID
}
