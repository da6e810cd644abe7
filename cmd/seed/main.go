package main

import (
	"context"
	"fmt"
	"log"

	"slotwise/internal/catalog"
	"slotwise/internal/customers"
	"slotwise/internal/shared/config"
	"slotwise/internal/shared/database"

	"github.com/google/uuid"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Slotwise Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"webhook_events",
		"transactions",
		"secured_payments",
		"order_items",
		"orders",
		"bookings",
		"customers",
		"staff_members",
		"service_offerings",
		"products",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to restore constraints: %w", err)
	}

	return tx.Commit().Error
}

// SeedAll seeds a demo store catalog plus a returning customer
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	storeID := uuid.New()
	fmt.Printf("  🏪 Demo store: %s\n", storeID)

	offeringIDs, err := s.SeedCatalog(storeID)
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	if err := s.SeedStaff(offeringIDs); err != nil {
		return fmt.Errorf("failed to seed staff: %w", err)
	}

	if err := s.SeedCustomers(storeID); err != nil {
		return fmt.Errorf("failed to seed customers: %w", err)
	}

	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		log.Printf("Warning: Failed to clear Redis cache: %v", err)
	}

	return nil
}

// SeedCatalog creates products with service offerings covering every pricing
// and payment type, so manual checkout runs exercise all saga branches.
func (s *Seeder) SeedCatalog(storeID uuid.UUID) (map[string]uuid.UUID, error) {
	fmt.Println("  💇 Seeding products and offerings...")

	intPtr := func(v int) *int { return &v }

	catalogData := []struct {
		key             string
		name            string
		price           float64
		paymentType     catalog.PaymentType
		percentagePaid  float64
		pricingType     catalog.PricingType
		durationMinutes int
		maxParticipants *int
		advanceDays     *int
		maxPerDay       *int
		bufferBefore    int
		bufferAfter     int
	}{
		{
			key:             "haircut",
			name:            "Signature Haircut",
			price:           45.0,
			paymentType:     catalog.PaymentFull,
			pricingType:     catalog.PricingFlat,
			durationMinutes: 45,
			advanceDays:     intPtr(30),
			bufferAfter:     10,
		},
		{
			key:             "massage",
			name:            "Deep Tissue Massage",
			price:           120.0,
			paymentType:     catalog.PaymentPercentage,
			percentagePaid:  30.0,
			pricingType:     catalog.PricingFlat,
			durationMinutes: 60,
			advanceDays:     intPtr(60),
			maxPerDay:       intPtr(8),
			bufferBefore:    5,
			bufferAfter:     15,
		},
		{
			key:             "workshop",
			name:            "Pottery Workshop",
			price:           35.0,
			paymentType:     catalog.PaymentFull,
			pricingType:     catalog.PricingPerParticipant,
			durationMinutes: 120,
			maxParticipants: intPtr(10),
			advanceDays:     intPtr(90),
		},
		{
			key:             "studio",
			name:            "Recording Studio Session",
			price:           80.0,
			paymentType:     catalog.PaymentDeliverySecured,
			pricingType:     catalog.PricingPerHour,
			durationMinutes: 180,
			advanceDays:     intPtr(14),
			maxPerDay:       intPtr(3),
		},
	}

	offeringIDs := make(map[string]uuid.UUID)

	for _, item := range catalogData {
		product := catalog.Product{
			ID:             uuid.New(),
			StoreID:        storeID,
			Name:           item.name,
			ProductType:    catalog.ProductTypeService,
			Price:          item.price,
			Currency:       "USD",
			PaymentType:    item.paymentType,
			PercentagePaid: item.percentagePaid,
		}
		if err := s.db.PostgreSQL.Create(&product).Error; err != nil {
			return nil, fmt.Errorf("failed to create product %s: %w", product.Name, err)
		}

		offering := catalog.ServiceOffering{
			ID:                 uuid.New(),
			ProductID:          product.ID,
			DurationMinutes:    item.durationMinutes,
			MaxParticipants:    item.maxParticipants,
			AdvanceBookingDays: item.advanceDays,
			MaxBookingsPerDay:  item.maxPerDay,
			BufferBeforeMin:    item.bufferBefore,
			BufferAfterMin:     item.bufferAfter,
			PricingType:        item.pricingType,
		}
		if err := s.db.PostgreSQL.Create(&offering).Error; err != nil {
			return nil, fmt.Errorf("failed to create offering for %s: %w", product.Name, err)
		}

		offeringIDs[item.key] = offering.ID
		fmt.Printf("    ✅ Created offering: %s (%s, %s)\n", product.Name, item.pricingType, item.paymentType)
	}

	return offeringIDs, nil
}

// SeedStaff assigns staff members to the offerings that are staff-pinned
func (s *Seeder) SeedStaff(offeringIDs map[string]uuid.UUID) error {
	fmt.Println("  🧑 Seeding staff members...")

	staffData := []struct {
		offeringKey string
		name        string
		active      bool
	}{
		{"haircut", "Alice Carter", true},
		{"haircut", "Ben Okafor", true},
		{"massage", "Carla Mendez", true},
		{"massage", "Dan Wright", false},
	}

	for _, data := range staffData {
		offeringID, ok := offeringIDs[data.offeringKey]
		if !ok {
			continue
		}

		member := catalog.StaffMember{
			ID:                uuid.New(),
			ServiceOfferingID: offeringID,
			Name:              data.name,
			Active:            data.active,
		}
		if err := s.db.PostgreSQL.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to create staff member %s: %w", member.Name, err)
		}
		fmt.Printf("    ✅ Created staff member: %s (active: %v)\n", member.Name, member.Active)
	}

	return nil
}

// SeedCustomers creates a returning customer so guest-checkout dedup can be
// exercised against an existing row
func (s *Seeder) SeedCustomers(storeID uuid.UUID) error {
	fmt.Println("  👤 Seeding customers...")

	customer := customers.Customer{
		ID:      uuid.New(),
		StoreID: storeID,
		Email:   "ada@example.com",
		Name:    "Ada Lovelace",
		Phone:   "+1-555-0100",
	}
	if err := s.db.PostgreSQL.Create(&customer).Error; err != nil {
		return fmt.Errorf("failed to create customer %s: %w", customer.Email, err)
	}
	fmt.Printf("    ✅ Created customer: %s\n", customer.Email)

	return nil
}
