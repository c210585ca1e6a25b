package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/satyam-chhatrala/gamma-ortho/catalog"
	"github.com/satyam-chhatrala/gamma-ortho/controllers"
	"github.com/satyam-chhatrala/gamma-ortho/database"
	"github.com/satyam-chhatrala/gamma-ortho/mailer"
	"github.com/satyam-chhatrala/gamma-ortho/storage"
	"github.com/satyam-chhatrala/gamma-ortho/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	initLogger()

	ctx := context.Background()

	repo := catalog.NewRepository(database.OpenCollection("products"))
	if err := repo.EnsureIndexes(ctx); err != nil {
		zap.S().Fatalf("ensure indexes: %v", err)
	}

	store := storage.NewFromEnv(ctx)
	if !store.Available() {
		zap.S().Warn("object storage not configured, image uploads will be rejected")
	}
	mail := mailer.NewFromEnv()
	if !mail.Available() {
		zap.S().Warn("smtp relay not configured, orders and inquiries will be rejected")
	}

	coordinator := catalog.NewCoordinator(repo, store)
	projector := catalog.NewProjector(repo)
	filter := utils.NewImageFilter()

	r := gin.New()

	origins := os.Getenv("ALLOWED_ORIGINS")
	allowedOrigins := map[string]bool{}
	for _, origin := range strings.Split(origins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}
	zap.S().Infow("cors configured", "origins", origins)
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	r.GET("/products", controllers.GetCatalog(projector))
	r.POST("/orders", controllers.PlaceOrder(repo, mail))
	r.POST("/inquiries", controllers.CreateInquiry(mail))

	// Admin routes rely on network-level access control.
	admin := r.Group("/admin")
	{
		admin.GET("/products", controllers.GetProducts(repo))
		admin.GET("/products/:id", controllers.GetProduct(repo))
		admin.POST("/products/add", controllers.AddProduct(coordinator, filter))
		admin.PUT("/products/update/:id", controllers.UpdateProduct(coordinator, filter))
		admin.DELETE("/products/:id", controllers.DeleteProduct(coordinator))
	}

	// Start server on port 8080 (default)
	r.Run()
}

func initLogger() {
	var zapConfig zap.Config
	if gin.Mode() == gin.ReleaseMode {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Log to a rotated file alongside stdout when LOG_FILE is set.
	var logger *zap.Logger
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}
