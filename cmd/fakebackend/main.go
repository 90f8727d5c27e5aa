package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"github.com/iliyamo/carpool-gateway/internal/fakebackend"
	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
)

// fakebackend serves the six backend services from memory on one port,
// seeded with an admin, a driver and a passenger.
func main() {
	_ = godotenv.Load(".env")
	port := cast.ToInt(os.Getenv("FAKE_BACKEND_PORT"))
	if port <= 0 {
		port = 8090
	}
	secret := os.Getenv("FAKE_BACKEND_SECRET")
	if secret == "" {
		secret = "fakebackend-dev-secret"
	}
	log := logger.New("fakebackend", os.Getenv("LOG_LEVEL"), os.Getenv("APP_ENV"))

	srv := fakebackend.New(secret, log)
	seed := []struct {
		email  string
		role   model.Role
		gender model.Gender
	}{
		{"admin@carpool.local", model.RoleAdmin, model.GenderMale},
		{"driver@carpool.local", model.RoleDriver, model.GenderMale},
		{"passenger@carpool.local", model.RolePassenger, model.GenderFemale},
	}
	for _, u := range seed {
		if _, err := srv.SeedUser(u.email, "password", u.role, u.gender); err != nil {
			log.Error("seed user", logger.String("email", u.email), logger.Error(err))
			os.Exit(1)
		}
	}

	log.Info("fake backend listening", logger.Int("port", port))
	if err := srv.Echo().Start(":" + strconv.Itoa(port)); err != nil {
		log.Error("fake backend stopped", logger.Error(err))
		os.Exit(1)
	}
}
