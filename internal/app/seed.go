package app

import (
	"context"
	"errors"
	"fmt"

	"apexify/internal/models"
	"apexify/internal/repositories"
	"apexify/internal/services"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const demoVendor = "demo-vendor"

// seed provisions the configured admin and, when asked to, a demo vendor with
// a small catalog. Both steps are skipped when their data already exists.
func (a *App) seed(ctx context.Context) error {
	if a.cfg.AdminPassword != "" {
		_, err := a.services.Auth.CreateAdmin(ctx, a.cfg.AdminUsername, a.cfg.AdminEmail, a.cfg.AdminPassword)
		switch {
		case err == nil:
			a.log.Info("admin_seeded", zap.String("username", a.cfg.AdminUsername))
		case errors.Is(err, models.ErrConflict):
		default:
			return fmt.Errorf("seed admin: %w", err)
		}
	}
	if a.cfg.SeedDemoData {
		return a.seedProducts(ctx)
	}
	return nil
}

func (a *App) seedProducts(ctx context.Context) error {
	existing, err := a.services.Products.ListProducts(ctx, repositories.ProductFilter{})
	if err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	if existing.TotalCount > 0 {
		return nil
	}

	vendor, err := a.services.Auth.RegisterUser(ctx, services.RegisterInput{
		Username: demoVendor,
		Email:    demoVendor + "@apexify.local",
		Password: "demo-vendor-password",
		Role:     models.RoleVendor,
	})
	if errors.Is(err, models.ErrConflict) {
		a.log.Info("demo_data_skipped", zap.String("reason", "demo vendor exists"))
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed vendor: %w", err)
	}
	actor := models.Actor{ID: vendor.ID, Role: vendor.Role}

	products := []services.ProductInput{
		{Name: "Laptop", Description: "High performance laptop", Price: decimal.NewFromInt(1200), Category: models.CategoryElectronics, Stock: 10},
		{Name: "Keyboard", Description: "Mechanical keyboard", Price: decimal.NewFromInt(75), Category: models.CategoryElectronics, Stock: 25},
		{Name: "Running Shoes", Description: "Lightweight trail runners", Price: decimal.NewFromInt(90), Category: models.CategorySports, Stock: 40},
		{Name: "Cookbook", Description: "Weeknight dinners", Price: decimal.RequireFromString("24.50"), Category: models.CategoryBooks, Stock: 50},
	}
	for _, in := range products {
		p, err := a.services.Products.CreateProduct(ctx, actor, in)
		if err != nil {
			return fmt.Errorf("seed product %s: %w", in.Name, err)
		}
		a.log.Debug("product_seeded", zap.String("name", p.Name), zap.String("id", p.ID))
	}
	a.log.Info("demo_data_seeded", zap.Int("products", len(products)))
	return nil
}
