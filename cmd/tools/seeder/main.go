// Seeder loads a small sample catalog for local development.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

type sampleProduct struct {
	Title    string
	Slug     string
	Price    string
	Stock    int
	Category string
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	categories := []string{"Apparel", "Electronics", "Home"}
	categoryIDs := map[string]string{}
	for _, name := range categories {
		var id string
		err := pool.QueryRow(ctx, `
INSERT INTO categories (name, slug) VALUES ($1, lower($1))
ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text`, name).Scan(&id)
		if err != nil {
			log.Fatalf("Failed to seed category %s: %v", name, err)
		}
		categoryIDs[name] = id
	}

	products := []sampleProduct{
		{"Plain Black Tee", "plain-black-tee", "24.90", 120, "Apparel"},
		{"Canvas Tote Bag", "canvas-tote-bag", "14.50", 80, "Apparel"},
		{"Wireless Earbuds", "wireless-earbuds", "89.00", 35, "Electronics"},
		{"Mechanical Keyboard", "mechanical-keyboard", "129.99", 18, "Electronics"},
		{"Ceramic Mug", "ceramic-mug", "9.99", 200, "Home"},
		{"Scented Candle", "scented-candle", "19.00", 64, "Home"},
	}
	for _, p := range products {
		_, err := pool.Exec(ctx, `
INSERT INTO products (title, slug, price, stock, category_id)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (slug) DO UPDATE SET
    title = EXCLUDED.title,
    price = EXCLUDED.price,
    stock = EXCLUDED.stock,
    category_id = EXCLUDED.category_id,
    updated_at = now()`,
			p.Title, p.Slug, p.Price, p.Stock, categoryIDs[p.Category])
		if err != nil {
			log.Fatalf("Failed to seed product %s: %v", p.Slug, err)
		}
	}

	log.Printf("Seeded %d categories and %d products", len(categories), len(products))
}
