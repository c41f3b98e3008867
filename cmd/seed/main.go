package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/freshbox/freshbox-backend/internal/categories"
	"github.com/freshbox/freshbox-backend/internal/products"
	"github.com/freshbox/freshbox-backend/internal/schedule"
	"github.com/freshbox/freshbox-backend/internal/users"
	"github.com/freshbox/freshbox-backend/pkg/config"
	"github.com/freshbox/freshbox-backend/pkg/db"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/logger"
	"github.com/freshbox/freshbox-backend/pkg/security"
)

type seedCategory struct {
	input    categories.CategoryInput
	products []products.ProductInput
}

func strPtr(s string) *string { return &s }

var demoCatalog = []seedCategory{
	{
		input: categories.CategoryInput{Name: "Fruit Boxes", Description: strPtr("Seasonal fruit, packed the morning it ships."), SortOrder: 1},
		products: []products.ProductInput{
			{
				Name:                "Summer Fruit Box",
				Description:         strPtr("Strawberries, cherries, peaches and whatever else is ripe this week."),
				BasePricePence:      2499,
				Tags:                strPtr("seasonal,bestseller"),
				MaxFreeAddons:       1,
				MaxPaidAddons:       3,
				AvailabilityOneTime: true,
				AvailabilityWeekly:  true,
				Addons: []products.AddonInput{
					{Name: "Extra Berries", PricePence: 250},
					{Name: "Nuts", PricePence: 300},
					{Name: "Herbal Tea", PricePence: 0},
					{Name: "Protein Shot", PricePence: 150},
				},
			},
		},
	},
	{
		input: categories.CategoryInput{Name: "Diet Boxes", Description: strPtr("Calorie-counted meals for the week."), SortOrder: 2},
		products: []products.ProductInput{
			{
				Name:               "Lean Week Box",
				BasePricePence:     3999,
				MaxPaidAddons:      2,
				AvailabilityWeekly: true,
				Addons: []products.AddonInput{
					{Name: "Protein Shot", PricePence: 150},
				},
			},
		},
	},
	{
		input: categories.CategoryInput{Name: "Juices", SortOrder: 3},
		products: []products.ProductInput{
			{
				Name:                "Green Juice Pack",
				BasePricePence:      1299,
				AvailabilityOneTime: true,
				AvailabilityWeekly:  true,
			},
		},
	},
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})
	_ = godotenv.Load()

	adminEmail := flag.String("admin-email", "", "email of the admin user to create")
	adminName := flag.String("admin-name", "FreshBox Admin", "display name of the admin user")
	adminPassword := flag.String("admin-password", "", "admin password; a temporary one is generated when empty")
	openDays := flag.Int("open-days", 14, "mark the next N days available for delivery (0 to skip)")
	skipCatalog := flag.Bool("skip-catalog", false, "do not insert the demo catalog")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if !*skipCatalog {
		if err := seedCatalog(ctx, dbClient, logg); err != nil {
			logg.Error(ctx, "failed to seed catalog", err)
			os.Exit(1)
		}
	}

	if *openDays > 0 {
		if err := seedAvailability(ctx, dbClient, cfg.Delivery.TimeLocation(), *openDays); err != nil {
			logg.Error(ctx, "failed to seed delivery dates", err)
			os.Exit(1)
		}
	}

	if email := strings.ToLower(strings.TrimSpace(*adminEmail)); email != "" {
		if err := seedAdmin(ctx, dbClient, cfg.Password, email, *adminName, *adminPassword); err != nil {
			logg.Error(ctx, "failed to seed admin", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "seed complete")
}

func seedCatalog(ctx context.Context, dbClient *db.Client, logg *logger.Logger) error {
	categoryRepo := categories.NewRepository(dbClient.DB())
	categoryService, err := categories.NewService(categoryRepo)
	if err != nil {
		return err
	}
	productService, err := products.NewService(products.NewRepository(dbClient.DB()), dbClient, categoryRepo)
	if err != nil {
		return err
	}

	for _, entry := range demoCatalog {
		category, err := categoryService.Create(ctx, entry.input)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
				logg.Info(logg.WithField(ctx, "category", entry.input.Name), "category already seeded, skipping")
				continue
			}
			return fmt.Errorf("create category %q: %w", entry.input.Name, err)
		}
		for _, input := range entry.products {
			input.CategoryID = category.ID
			if _, err := productService.Create(ctx, input); err != nil {
				return fmt.Errorf("create product %q: %w", input.Name, err)
			}
		}
		logg.Info(logg.WithFields(ctx, map[string]any{"category": category.Slug, "products": len(entry.products)}), "category seeded")
	}
	return nil
}

func seedAvailability(ctx context.Context, dbClient *db.Client, loc *time.Location, days int) error {
	scheduleService, err := schedule.NewService(schedule.NewRepository(dbClient.DB()), loc)
	if err != nil {
		return err
	}
	today := time.Now().In(loc)
	for i := 1; i <= days; i++ {
		day := today.AddDate(0, 0, i)
		if _, err := scheduleService.UpsertAvailability(ctx, schedule.AvailabilityInput{
			Date:      schedule.FormatDate(day),
			Available: true,
		}); err != nil {
			return err
		}
	}
	return nil
}

func seedAdmin(ctx context.Context, dbClient *db.Client, pwCfg config.PasswordConfig, email, name, password string) error {
	repo := users.NewRepository(dbClient.DB())
	if _, err := repo.FindByEmail(ctx, email); err == nil {
		fmt.Printf("admin %s already exists\n", email)
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	generated := password == ""
	if generated {
		var err error
		if password, err = security.GenerateTempPassword(16); err != nil {
			return err
		}
	}
	hash, err := security.HashPassword(password, pwCfg)
	if err != nil {
		return err
	}
	if _, err := repo.Create(ctx, users.CreateAdminDTO{Email: email, PasswordHash: hash, Name: name}); err != nil {
		return err
	}
	if generated {
		fmt.Printf("admin %s created with temporary password: %s\n", email, password)
	} else {
		fmt.Printf("admin %s created\n", email)
	}
	return nil
}
