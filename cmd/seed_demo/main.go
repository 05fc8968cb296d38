package main

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/vinspect/vinspectgo/internal/config"
	"github.com/vinspect/vinspectgo/internal/database"
	"github.com/vinspect/vinspectgo/internal/models"
	"github.com/vinspect/vinspectgo/internal/utils"
)

func main() {
	fmt.Println("🌱 VInspect Demo Data Seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")

	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.User{},
		&models.Counter{},
		&models.ChecklistTemplate{},
		&models.InspectionRequest{},
		&models.InspectionRecord{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")

	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	if userCount > 0 {
		fmt.Printf("⚠️  Database already has %d users. Aborting, nothing modified.\n", userCount)
		return
	}

	fmt.Println("👤 Creating demo users...")
	users := []struct {
		username string
		email    string
		role     string
	}{
		{"admin", "admin@vinspect.local", models.RoleAdmin},
		{"inspector.mike", "mike@vinspect.local", models.RoleInspector},
		{"inspector.sara", "sara@vinspect.local", models.RoleInspector},
		{"demo.user", "demo@vinspect.local", models.RoleUser},
	}
	for _, u := range users {
		hashed, err := utils.HashPassword("changeme123")
		if err != nil {
			log.Fatalf("❌ Failed to hash password: %v", err)
		}
		user := models.User{
			ID:       uuid.NewString(),
			Username: u.username,
			Email:    u.email,
			Password: hashed,
			Role:     u.role,
			Status:   models.UserStatusActive,
		}
		if err := db.Create(&user).Error; err != nil {
			log.Printf("⚠️  Failed to create user %s: %v", u.username, err)
		} else {
			fmt.Printf("   ✓ Created %s (%s)\n", u.username, u.role)
		}
	}

	fmt.Println("📋 Creating default checklist template...")
	template := models.ChecklistTemplate{
		Name:     "Standard Vehicle Inspection",
		Version:  1,
		IsActive: true,
		Types: models.TemplateTypeList{
			{
				TypeName:  "Exterior",
				MaxPhotos: 10,
				ChecklistItems: []models.TemplateItem{
					{Position: 1, Label: "Body panels and paint"},
					{Position: 2, Label: "Windshield and glass"},
					{Position: 3, Label: "Lights and indicators"},
					{Position: 4, Label: "Tires and wheels"},
				},
			},
			{
				TypeName:   "Engine",
				AllowVideo: true,
				MaxPhotos:  8,
				ChecklistItems: []models.TemplateItem{
					{Position: 1, Label: "Engine oil level and condition"},
					{Position: 2, Label: "Coolant system"},
					{Position: 3, Label: "Belts and hoses"},
					{Position: 4, Label: "Battery and terminals"},
				},
			},
			{
				TypeName:  "Interior",
				MaxPhotos: 6,
				ChecklistItems: []models.TemplateItem{
					{Position: 1, Label: "Seats and upholstery"},
					{Position: 2, Label: "Dashboard and controls"},
					{Position: 3, Label: "Air conditioning"},
				},
			},
		},
	}
	if err := db.Create(&template).Error; err != nil {
		log.Printf("⚠️  Failed to create template: %v", err)
	} else {
		fmt.Printf("   ✓ Created template %q with %d types\n", template.Name, len(template.Types))
	}

	fmt.Println()
	fmt.Println("✅ Demo data seeded. Default password for all users: changeme123")
}
