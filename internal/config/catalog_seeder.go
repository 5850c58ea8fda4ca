package config

import (
	"log"

	"openshelf/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// SeedMasterData seeds initial catalog master data
func SeedMasterData(db *gorm.DB) error {
	// Seed Categories
	if err := seedCategories(db); err != nil {
		return err
	}

	// Seed Books
	if err := seedBooks(db); err != nil {
		return err
	}

	log.Println("✅ Master data seeded successfully")
	return nil
}

func seedCategories(db *gorm.DB) error {
	categories := []models.Category{
		{
			Code:        "FIC",
			Name:        "Fiction",
			Description: "Novels, short stories and literary fiction",
			IsActive:    true,
		},
		{
			Code:        "SCI",
			Name:        "Science",
			Description: "Natural sciences, mathematics and engineering",
			IsActive:    true,
		},
		{
			Code:        "HIS",
			Name:        "History",
			Description: "History, biography and social sciences",
			IsActive:    true,
		},
		{
			Code:        "TEC",
			Name:        "Technology",
			Description: "Computing, programming and applied technology",
			IsActive:    true,
		},
		{
			Code:        "CHI",
			Name:        "Children",
			Description: "Picture books and early readers",
			IsActive:    true,
		},
	}

	for _, c := range categories {
		var existing models.Category
		if err := db.Where("code = ?", c.Code).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&c).Error; err != nil {
					return err
				}
				log.Printf("   Created category: %s", c.Name)
			}
		}
	}
	return nil
}

func seedBooks(db *gorm.DB) error {
	// Skip if the catalog already has entries
	var count int64
	db.Model(&models.Book{}).Count(&count)
	if count > 0 {
		return nil
	}

	categoryID := func(code string) *uint {
		var c models.Category
		if err := db.Where("code = ?", code).First(&c).Error; err != nil {
			return nil
		}
		return &c.ID
	}

	books := []models.Book{
		{
			ISBN:            "9780134190440",
			Title:           "The Go Programming Language",
			Author:          "Alan A. A. Donovan",
			Publisher:       "Addison-Wesley",
			CategoryID:      categoryID("TEC"),
			TotalCopies:     3,
			AvailableCopies: 3,
			Status:          models.BookStatusActive,
		},
		{
			ISBN:            "9780141439518",
			Title:           "Pride and Prejudice",
			Author:          "Jane Austen",
			Publisher:       "Penguin Classics",
			CategoryID:      categoryID("FIC"),
			TotalCopies:     2,
			AvailableCopies: 2,
			Status:          models.BookStatusActive,
		},
		{
			ISBN:            "9780553380163",
			Title:           "A Brief History of Time",
			Author:          "Stephen Hawking",
			Publisher:       "Bantam",
			CategoryID:      categoryID("SCI"),
			TotalCopies:     2,
			AvailableCopies: 2,
			Status:          models.BookStatusActive,
		},
		{
			ISBN:            "9780062316097",
			Title:           "Sapiens: A Brief History of Humankind",
			Author:          "Yuval Noah Harari",
			Publisher:       "Harper",
			CategoryID:      categoryID("HIS"),
			TotalCopies:     4,
			AvailableCopies: 4,
			Status:          models.BookStatusActive,
		},
		{
			ISBN:            "9780064430173",
			Title:           "Where the Wild Things Are",
			Author:          "Maurice Sendak",
			Publisher:       "HarperCollins",
			CategoryID:      categoryID("CHI"),
			TotalCopies:     1,
			AvailableCopies: 1,
			Status:          models.BookStatusActive,
		},
	}

	for _, b := range books {
		if err := db.Create(&b).Error; err != nil {
			return err
		}
		log.Printf("   Created book: %s", b.Title)
	}
	return nil
}
