package mock

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "barkeep/internal/log"
	"barkeep/models"
)

// New returns an in-memory sqlite database seeded with a representative
// home bar: a few bottles, two recipes, and a host account.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	db, err := gorm.Open(sqlite.Open("file:barkeep-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.StockItem{},
		&models.Drink{},
		&models.DrinkIngredient{},
		&models.ShoppingListItem{},
		&models.GuestOrder{},
		&models.CachedRecipe{},
		&models.User{},
	); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte("speakeasy"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:         "Sam Host",
		Email:        "sam@barkeep.app",
		PasswordHash: string(password),
	}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}

	gin := models.StockItem{
		Name:      "London Dry Gin",
		Category:  models.CategorySpirits,
		CurrentML: 650,
		TotalML:   700,
		Aliases:   "gin,dry gin",
	}

	campari := models.StockItem{
		Name:      "Campari",
		Category:  models.CategoryLiqueurs,
		CurrentML: 150,
		TotalML:   700,
	}

	vermouth := models.StockItem{
		Name:      "Sweet Vermouth",
		Category:  models.CategoryWine,
		CurrentML: 400,
		TotalML:   750,
		Aliases:   "vermouth rosso,red vermouth",
	}

	limeJuice := models.StockItem{
		Name:      "Lime Juice",
		Category:  models.CategoryMixers,
		CurrentML: 200,
		TotalML:   250,
		Aliases:   "juice of lime",
	}

	bottles := []*models.StockItem{&gin, &campari, &vermouth, &limeJuice}
	for _, bottle := range bottles {
		if err := db.WithContext(ctx).Create(bottle).Error; err != nil {
			return err
		}
	}

	negroni := models.Drink{
		Name:         "Negroni",
		Category:     "Cocktail",
		Instructions: "Stir with ice, strain over a large cube, garnish with orange peel.",
		Ingredients: []models.DrinkIngredient{
			{Name: "Gin", StockItemID: &gin.ID, AmountML: intPtr(30), AmountText: "1 oz"},
			{Name: "Campari", StockItemID: &campari.ID, AmountML: intPtr(30), AmountText: "1 oz"},
			{Name: "Sweet Vermouth", StockItemID: &vermouth.ID, AmountML: intPtr(30), AmountText: "1 oz"},
		},
	}

	gimlet := models.Drink{
		Name:         "Gimlet",
		Category:     "Cocktail",
		Instructions: "Shake hard with ice and double strain into a chilled coupe.",
		Ingredients: []models.DrinkIngredient{
			{Name: "Gin", StockItemID: &gin.ID, AmountML: intPtr(60), AmountText: "2 oz"},
			{Name: "Lime Juice", StockItemID: &limeJuice.ID, AmountML: intPtr(23), AmountText: "3/4 oz"},
			{Name: "Simple Syrup", AmountML: intPtr(15), AmountText: "1/2 oz"},
		},
	}

	for _, drink := range []*models.Drink{&negroni, &gimlet} {
		if err := db.WithContext(ctx).Create(drink).Error; err != nil {
			return err
		}
	}

	shopping := models.ShoppingListItem{
		Name:        "Campari",
		StockItemID: &campari.ID,
		Suggested:   true,
	}
	if err := db.WithContext(ctx).Create(&shopping).Error; err != nil {
		return err
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}

func intPtr(v int) *int {
	return &v
}
