package service

import (
	"testing"
	"time"
)

func TestSalesReportTotalsAndFilters(t *testing.T) {
	env, _, profiles, account, client, ident := sellFixture(t)
	ctx := ctxT(t)
	sales := NewSalesService(env.db, env.log)

	sell := func(price, saleDate string) {
		t.Helper()
		day, err := time.Parse("2006-01-02", saleDate)
		if err != nil {
			t.Fatalf("fecha de prueba: %v", err)
		}
		if _, err := profiles.Sell(ctx, SellProfileInput{
			AccountID:    account.ID,
			ClientID:     client.ID,
			Price:        dec(price),
			AssignedTime: "1 mes",
			SaleDate:     day,
		}, ident); err != nil {
			t.Fatalf("vendiendo a %s: %v", price, err)
		}
	}
	sell("35", "2026-03-02")
	sell("40", "2026-04-10")

	report, err := sales.Report(ctx, SalesFilter{}, ident)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.Count != 2 {
		t.Fatalf("ventas = %d, want 2", report.Count)
	}
	requireDecimal(t, report.TotalPrice, "75", "precio total")
	requireDecimal(t, report.TotalCost, "40", "costo total")
	requireDecimal(t, report.TotalGain, "35", "ganancia total")

	from := date(2026, time.April, 1)
	filtered, err := sales.Report(ctx, SalesFilter{From: &from}, ident)
	if err != nil {
		t.Fatalf("Report filtrado: %v", err)
	}
	if filtered.Count != 1 {
		t.Fatalf("ventas desde abril = %d, want 1", filtered.Count)
	}
	requireDecimal(t, filtered.TotalPrice, "40", "precio filtrado")
}
