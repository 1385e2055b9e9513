package main

import (
	"context"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bloodlink/internal/config"
	"bloodlink/internal/db"
	"bloodlink/internal/model"
	"bloodlink/internal/repository"
)

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewSQLite(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	centerRepo := repository.NewCenterRepository(gormDB)

	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), 10)

	donors := []model.User{
		donor("Aisha Khan", "aisha@example.com", model.BloodONeg, 40.7128, -74.0060, string(hash)),
		donor("Ben Ortiz", "ben@example.com", model.BloodAPos, 40.7306, -73.9352, string(hash)),
		donor("Chen Wei", "chen@example.com", model.BloodBNeg, 40.6782, -73.9442, string(hash)),
	}
	for i := range donors {
		if err := userRepo.Create(ctx, &donors[i]); err != nil {
			log.Printf("Skipping donor %s: %v", donors[i].Email, err)
			continue
		}
		log.Printf("Seeded donor %s", donors[i].Email)
	}

	org := model.User{
		Name:        "City Blood Bank",
		Email:       "bank@example.com",
		PhoneNumber: "+1-555-0100",
		Type:        model.UserTypeOrganization,
		Organization: &model.OrganizationProfile{
			Description:  "Municipal blood bank",
			WorkingHours: "Mon-Fri 08:00-18:00",
		},
		PasswordHash: string(hash),
	}
	if err := userRepo.Create(ctx, &org); err != nil {
		log.Printf("Skipping organization: %v", err)
	} else {
		log.Printf("Seeded organization %s", org.Email)
	}

	lat, lng := 40.7580, -73.9855
	center := model.DonationCenter{
		Name:        "Midtown Donation Center",
		AddressLine: "350 W 42nd St",
		City:        "New York",
		Region:      "NY",
		PostalCode:  "10036",
		Country:     "US",
		Latitude:    &lat,
		Longitude:   &lng,
		AcceptedBloodTypes: []model.BloodType{
			model.BloodOPos, model.BloodONeg, model.BloodAPos, model.BloodANeg,
		},
		CurrentNeed: map[model.BloodType]model.NeedLevel{
			model.BloodONeg: model.NeedCritical,
			model.BloodAPos: model.NeedLow,
		},
		OperatingHours: weeklySchedule(),
	}
	if err := centerRepo.Create(ctx, &center); err != nil {
		log.Printf("Skipping center: %v", err)
	} else {
		log.Printf("Seeded center %s", center.Name)
	}

	log.Println("Seed script completed")
}

func donor(name, email string, bt model.BloodType, lat, lng float64, hash string) model.User {
	lastDonation := time.Now().AddDate(0, -3, 0)
	return model.User{
		Name:         name,
		Email:        email,
		PhoneNumber:  "+1-555-0199",
		Type:         model.UserTypeDonor,
		PasswordHash: hash,
		Donor: &model.DonorProfile{
			BloodType:        bt,
			Latitude:         &lat,
			Longitude:        &lng,
			DonationCount:    2,
			LastDonationDate: &lastDonation,
		},
	}
}

func weeklySchedule() []model.OperatingHour {
	hours := make([]model.OperatingHour, 0, 7)
	for weekday := 0; weekday < 7; weekday++ {
		hours = append(hours, model.OperatingHour{
			Weekday:   weekday,
			OpenTime:  "09:00",
			CloseTime: "17:00",
			IsClosed:  weekday == 0,
		})
	}
	return hours
}
