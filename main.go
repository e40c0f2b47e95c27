package main

import (
	"os"

	"go-schedule-api/core/logger"
	"go-schedule-api/core/server"
)

// @title Schedule API
// @version 1.0
// @description Group event scheduling: candidate dates, attendance responses and a confirmed date

// @host localhost:7070
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Optional organizer JWT. Example: "Bearer {token}"

// @securityDefinitions.apikey OwnerToken
// @in header
// @name X-Owner-Token
// @description Capability token returned when the event was created

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", "error", err)
		os.Exit(1)
	}
}
