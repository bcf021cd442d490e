package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/app"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/orders"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/platform/db"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

var (
	seedAdmin    = shared.Actor{ID: "admin-seed", Role: shared.RoleAdmin}
	seedCustomer = shared.Actor{ID: "cust-seed", Role: shared.RoleUser}
	seedVendor   = shared.Actor{ID: "vendor-seed", Role: shared.RoleVendor}
)

type booking struct {
	pickup, dropoff string
	fare, cost      string
	advance         string
	settle          bool
}

var bookings = []booking{
	{pickup: "Andheri East, Mumbai", dropoff: "Hinjewadi, Pune", fare: "5800", cost: "4500", advance: "1800", settle: true},
	{pickup: "Whitefield, Bengaluru", dropoff: "Hosur", fare: "3200", cost: "2400", advance: "1000"},
	{pickup: "Gachibowli, Hyderabad", dropoff: "Secunderabad", fare: "1500", cost: "1100"},
}

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.SequenceBackend = app.SequencePostgres

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 2})
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()
	if _, err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	svc, err := app.NewOrderService(app.OrderServiceParams{Config: cfg, Infra: &app.Infra{Pool: pool}, Logger: app.NewLogger(cfg)})
	if err != nil {
		log.Fatalf("order service: %v", err)
	}

	for _, b := range bookings {
		id, err := seedBooking(ctx, svc, b)
		if err != nil {
			log.Fatalf("seed %s → %s: %v", b.pickup, b.dropoff, err)
		}
		fmt.Printf("→ seeded %s (%s → %s)\n", id, b.pickup, b.dropoff)
	}
}

func seedBooking(ctx context.Context, svc *orders.Service, b booking) (string, error) {
	order, err := svc.CreateOrder(ctx, seedAdmin, orders.CreateInput{
		CustomerID: seedCustomer.ID,
		Contact:    orders.Contact{Name: "Demo Customer", Email: "demo@example.com"},
		Pickup:     b.pickup,
		Dropoff:    b.dropoff,
	})
	if err != nil {
		return "", err
	}
	line := func(desc, price string) []documents.LineInput {
		return []documents.LineInput{{Description: desc, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString(price)}}
	}
	if _, err := svc.CreateQuotation(ctx, seedAdmin, order.ID, orders.QuotationRequest{Lines: line("Transport", b.fare)}); err != nil {
		return order.ID, err
	}
	if _, err := svc.ShareQuotation(ctx, seedAdmin, order.ID); err != nil {
		return order.ID, err
	}
	if _, err := svc.ApproveQuotation(ctx, seedCustomer, order.ID); err != nil {
		return order.ID, err
	}
	if b.advance != "" {
		if _, err := svc.PostTransaction(ctx, seedAdmin, order.ID, orders.PaymentInput{Type: ledger.CustomerAdvance, Amount: decimal.RequireFromString(b.advance), Method: "upi"}); err != nil {
			return order.ID, err
		}
	}
	if _, err := svc.CreateSalesOrder(ctx, seedAdmin, order.ID, documents.Overrides{}); err != nil {
		return order.ID, err
	}
	if _, err := svc.CreatePurchaseOrder(ctx, seedAdmin, order.ID, seedVendor.ID, documents.Overrides{Lines: line("Vehicle hire", b.cost)}); err != nil {
		return order.ID, err
	}
	if _, err := svc.AcknowledgePurchaseOrder(ctx, seedVendor, order.ID); err != nil {
		return order.ID, err
	}
	inv, err := svc.GenerateInvoice(ctx, seedAdmin, order.ID, documents.Overrides{})
	if err != nil {
		return order.ID, err
	}
	if _, err := svc.GenerateBill(ctx, seedAdmin, order.ID, documents.Overrides{}); err != nil {
		return order.ID, err
	}
	if b.settle && inv.BalanceDue.IsPositive() {
		if _, err := svc.PostTransaction(ctx, seedAdmin, order.ID, orders.PaymentInput{Type: ledger.CustomerBalance, Amount: inv.BalanceDue, Method: "bank"}); err != nil {
			return order.ID, err
		}
	}
	return order.ID, nil
}
