package configs

import (
	"mealflow/entity"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

func SeedAdmin() error {
	db := DB()
	email := getEnv("ADMIN_EMAIL", "")
	pass := getEnv("ADMIN_PASSWORD", "")
	if email == "" || pass == "" {
		log.Warn().Msg("skip seeding admin: missing ADMIN_EMAIL/ADMIN_PASSWORD")
		return nil
	}

	var count int64
	db.Model(&entity.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		log.Info().Str("email", email).Msg("admin already exists")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := entity.User{
		Email:    email,
		Password: string(hash),
		Name:     "Admin",
		Role:     "admin",
	}
	return db.Create(&admin).Error
}

// SeedCatalog creates starter categories and a few menu items so the
// storefront is not empty on a fresh database.
func SeedCatalog() error {
	db := DB()

	categories := map[string]*entity.Category{}
	for _, name := range []string{"Starters", "Mains", "Sides", "Drinks", "Desserts"} {
		cat := &entity.Category{}
		if err := db.FirstOrCreate(cat, entity.Category{Name: name}).Error; err != nil {
			return err
		}
		categories[name] = cat
	}

	var count int64
	if err := db.Model(&entity.MenuItem{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	items := []entity.MenuItem{
		{CategoryID: categories["Starters"].ID, Name: "Vegetable Samosa", Price: 4.50, Available: true},
		{CategoryID: categories["Mains"].ID, Name: "Chicken Tikka Masala", Price: 11.95, Available: true},
		{CategoryID: categories["Mains"].ID, Name: "Vegetable Curry", Price: 9.50, Available: true},
		{CategoryID: categories["Sides"].ID, Name: "Pilau Rice", Price: 3.25, Available: true},
		{CategoryID: categories["Sides"].ID, Name: "Garlic Naan", Price: 3.50, Available: true},
		{CategoryID: categories["Drinks"].ID, Name: "Mango Lassi", Price: 3.95, Available: true},
		{CategoryID: categories["Desserts"].ID, Name: "Gulab Jamun", Price: 4.25, Available: true},
	}
	return db.Create(&items).Error
}
