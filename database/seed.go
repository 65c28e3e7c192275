package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type AdminAccount struct {
	Username string
	Email    string
	Password string
}

type menuSeed struct {
	name, description, price, category, image string
}

var defaultMenu = []menuSeed{
	{"Saffron & Sage Risotto", "Arborio rice infused with premium saffron and crispy sage butter.", "850", "Mains",
		"https://images.unsplash.com/photo-1476124369491-e7addf5db371?auto=format&fit=crop&w=800&q=80"},
	{"Wild Mushroom Pappardelle", "Hand-cut pasta with foraged mushrooms and truffle cream.", "720", "Mains",
		"https://images.unsplash.com/photo-1473093226795-af9932fe5856?auto=format&fit=crop&w=800&q=80"},
	{"Herb-Crusted Sea Bass", "Fresh sea bass with a citrus herb crust and roasted asparagus.", "1200", "Mains",
		"https://images.unsplash.com/photo-1519708227418-c8fd9a32b7a2?auto=format&fit=crop&w=800&q=80"},
	{"Truffle Infused Burrata", "Creamy burrata served with heritage tomatoes and truffle balsamic.", "550", "Starters",
		"https://images.unsplash.com/photo-1608897013039-887f21d8c804?auto=format&fit=crop&w=800&q=80"},
	{"Smoked Duck Salad", "Maple-smoked duck breast with micro-greens and pomegranate.", "650", "Starters", ""},
	{"Artisanal Bread Basket", "Selection of sourdough and rye with house-churned sea salt butter.", "250", "Starters", ""},
	{"Dark Chocolate Fondant", "70% cocoa lava cake with Madagascar vanilla bean gelato.", "450", "Desserts",
		"https://images.unsplash.com/photo-1541992224050-70bc16388439?auto=format&fit=crop&w=800&q=80"},
	{"Rosemary & honey Panna Cotta", "Silky cream infused with local rosemary and wild honey.", "380", "Desserts", ""},
	{"Elderflower Lemonade", "Sparkling house-made lemonade with delicate elderflower notes.", "220", "Beverages", ""},
	{"Smoked Old Fashioned", "Classic bourbon cocktail smoked with cherry wood chips.", "650", "Beverages", ""},
}

// Seed makes sure the admin account exists and fills an empty menu.
func Seed(db *gorm.DB, admin AdminAccount) error {
	if err := seedAdmin(db, admin); err != nil {
		return err
	}
	return seedMenu(db)
}

func seedAdmin(db *gorm.DB, admin AdminAccount) error {
	var existing models.User
	err := db.Where("username = ?", admin.Username).First(&existing).Error
	switch {
	case err == nil:
		if existing.Role != models.RoleAdmin {
			utils.InfoLogger.Printf("Promoting existing user %s to admin", admin.Username)
			return db.Model(&existing).Update("role", models.RoleAdmin).Error
		}
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("look up admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	user := models.User{
		Username: admin.Username,
		Email:    strings.ToLower(admin.Email),
		Password: string(hash),
		FullName: "Admin User",
		Role:     models.RoleAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	utils.InfoLogger.Printf("Admin user %s created", admin.Username)
	return nil
}

func seedMenu(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.MenuItem{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count menu: %w", err)
	}
	if count > 0 {
		return nil
	}

	items := make([]models.MenuItem, 0, len(defaultMenu))
	for _, s := range defaultMenu {
		items = append(items, models.MenuItem{
			Name:        s.name,
			Description: s.description,
			Price:       decimal.RequireFromString(s.price),
			Category:    s.category,
			ImageURL:    s.image,
			Available:   true,
		})
	}
	if err := db.Create(&items).Error; err != nil {
		return fmt.Errorf("seed menu: %w", err)
	}
	utils.InfoLogger.Printf("Seeded %d menu items", len(items))
	return nil
}
