package db

import (
	"context"

	"creditmart/internal/domain/model"
	repo "creditmart/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	catProduce    = "Fruits & Vegetables"
	catInstant    = "Instant Foods"
	catGrains     = "Rice & Grains"
	catProteins   = "Proteins"
	catSeasonings = "Seasonings"
	catBeverages  = "Dairy & Beverages"
	catOils       = "Cooking Oils"
)

func item(name, desc, price, image, category string) model.Product {
	return model.Product{
		Name:        name,
		Description: desc,
		Price:       decimal.RequireFromString(price),
		ImageURL:    image,
		Category:    category,
		InStock:     true,
	}
}

// DefaultProducts is the starter catalog of Nigerian groceries.
func DefaultProducts() []model.Product {
	return []model.Product{
		item("Fresh Tomatoes", "Premium quality Roma tomatoes - 1kg", "2500.00",
			"https://images.unsplash.com/photo-1592924357228-91a4daadcfea?auto=format&fit=crop&w=400&h=300", catProduce),
		item("Indomie Instant Noodles", "Chicken flavour instant noodles - pack of 5", "1200.00",
			"https://images.unsplash.com/photo-1585032226651-759b368d7246?auto=format&fit=crop&w=400&h=300", catInstant),
		item("Golden Penny Macaroni", "Premium macaroni pasta - 500g pack", "800.00",
			"https://images.unsplash.com/photo-1551892374-ecf8754cf8b0?auto=format&fit=crop&w=400&h=300", catInstant),
		item("Local Rice", "Premium Abakaliki rice - 5kg bag", "8500.00",
			"https://images.unsplash.com/photo-1586201375761-83865001e31c?auto=format&fit=crop&w=400&h=300", catGrains),
		item("Fresh Chicken", "Whole chicken - cleaned and fresh", "5200.00",
			"https://images.unsplash.com/photo-1604503468506-a8da13d82791?auto=format&fit=crop&w=400&h=300", catProteins),
		item("Ripe Plantain", "Sweet ripe plantains - bunch of 5", "1800.00",
			"https://images.unsplash.com/photo-1603833665858-e61d17a86224?auto=format&fit=crop&w=400&h=300", catProduce),
		item("Maggi Seasoning Cubes", "Chicken flavour seasoning - 50 cubes", "600.00",
			"https://images.unsplash.com/photo-1596040033229-a9821ebd058d?auto=format&fit=crop&w=400&h=300", catSeasonings),
		item("Peak Milk", "Full cream powdered milk - 400g tin", "3200.00",
			"https://images.unsplash.com/photo-1563636619-e9143da7973b?auto=format&fit=crop&w=400&h=300", catBeverages),
		item("Yam Tuber", "Large fresh yam tuber - 2kg", "3500.00",
			"https://images.unsplash.com/photo-1518977676601-b53f82aba655?auto=format&fit=crop&w=400&h=300", catProduce),
		item("Semovita", "Golden Penny Semovita - 1kg pack", "1500.00",
			"https://images.unsplash.com/photo-1574323347407-f5e1ad6d020b?auto=format&fit=crop&w=400&h=300", catGrains),
		item("Palm Oil", "Pure red palm oil - 1 liter bottle", "2200.00",
			"https://images.unsplash.com/photo-1474979266404-7eaacbcd87c5?auto=format&fit=crop&w=400&h=300", catOils),
		item("Brown Beans", "Quality brown beans - 2kg pack", "4200.00",
			"https://images.unsplash.com/photo-1559181567-c3190ca9959b?auto=format&fit=crop&w=400&h=300", catGrains),
		item("Coca-Cola", "Soft drinks - pack of 6 bottles", "3600.00",
			"https://images.unsplash.com/photo-1543362906-acfc16c67564?auto=format&fit=crop&w=400&h=300", catBeverages),
		item("Groundnut Oil", "Pure groundnut cooking oil - 1 liter", "1800.00",
			"https://images.unsplash.com/photo-1474979266404-7eaacbcd87c5?auto=format&fit=crop&w=400&h=300", catOils),
		item("Gari", "Premium white garri - 2kg pack", "2000.00",
			"https://images.unsplash.com/photo-1574323347407-f5e1ad6d020b?auto=format&fit=crop&w=400&h=300", catGrains),
		item("Dano Milk", "Full cream instant milk powder - 400g", "2800.00",
			"https://images.unsplash.com/photo-1563636619-e9143da7973b?auto=format&fit=crop&w=400&h=300", catBeverages),
		item("Milo Chocolate Drink", "Nestle Milo energy drink - 400g tin", "3500.00",
			"https://images.unsplash.com/photo-1578662996442-48f60103fc96?auto=format&fit=crop&w=400&h=300", catBeverages),
		item("Honeywell Noodles", "Chicken pepper soup flavour - pack of 5", "1100.00",
			"https://images.unsplash.com/photo-1585032226651-759b368d7246?auto=format&fit=crop&w=400&h=300", catInstant),
		item("Knorr Seasoning", "Chicken seasoning cubes - 50 pieces", "750.00",
			"https://images.unsplash.com/photo-1596040033229-a9821ebd058d?auto=format&fit=crop&w=400&h=300", catSeasonings),
		item("Sardines", "Geisha canned sardines in tomato sauce", "900.00",
			"https://images.unsplash.com/photo-1544551763-46a013bb70d5?auto=format&fit=crop&w=400&h=300", catProteins),
		item("Sweet Potato", "Fresh sweet potatoes - 2kg", "2500.00",
			"https://images.unsplash.com/photo-1518977676601-b53f82aba655?auto=format&fit=crop&w=400&h=300", catProduce),
		item("Lipton Tea", "Yellow label tea bags - 100 pieces", "1600.00",
			"https://images.unsplash.com/photo-1556679343-c7306c1976bc?auto=format&fit=crop&w=400&h=300", catBeverages),
	}
}

// SeedProducts fills an empty catalog. A non-empty catalog is left alone.
func SeedProducts(ctx context.Context, products repo.ProductRepository) (int, error) {
	n, err := products.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	inserted := 0
	for _, p := range DefaultProducts() {
		if _, err := products.Create(ctx, p); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
