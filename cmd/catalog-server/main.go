package main

import (
	"log"
	"net/http"

	"steam-buff-tracker/internal/api"
	"steam-buff-tracker/internal/catalog"
	"steam-buff-tracker/internal/config"
	"steam-buff-tracker/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Initialize(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
	}

	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api.SetupRoutes(r.Group("/api/v1"), catalog.NewStore(cfg.DataPath), db)

	log.Printf("Server starting on port %s (data: %s)", cfg.Port, cfg.DataPath)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
