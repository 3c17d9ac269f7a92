package main

import (
	"os"
	"testing"

	"github.com/joho/godotenv"
)

// TestMain loads .env so DATABASE_URL and BOARD_STAGES_FILE reach the commands under test.
func TestMain(m *testing.M) {
	_ = godotenv.Load()
	os.Exit(m.Run())
}
