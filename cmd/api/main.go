package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"storefront/internal/accounts"
	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/cart"
	"storefront/internal/categories"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/mail"
	"storefront/internal/orders"
	"storefront/internal/products"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	pool, err := db.NewPostgres(db.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: int32(cfg.DBMaxConns),
		MinConns: int32(cfg.DBMinConns),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	rdb, err := cache.NewRedis(cfg.RedisAddr)
	if err != nil {
		// trending degrades to latest products without redis
		log.Printf("redis unavailable: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	mailer := mail.NewSMTPMailer(mail.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	})

	jwtMgr := auth.NewJWTManager(auth.JWTConfig{
		Issuer:         cfg.JWTIssuer,
		AccessSecret:   cfg.JWTAccessSecret,
		RefreshSecret:  cfg.JWTRefreshSecret,
		AccessTTLMin:   cfg.AccessTokenTTLMin,
		RefreshTTLDays: cfg.RefreshTokenTTLDays,
	})

	// Repos
	userRepo := auth.NewUserRepo(pool)
	refreshRepo := auth.NewRefreshRepo(pool)
	resetRepo := auth.NewResetRepo(pool)

	authHandler := auth.NewHandler(auth.Dependencies{
		Cfg:     cfg,
		JWT:     jwtMgr,
		Users:   userRepo,
		Refresh: refreshRepo,
		Resets:  resetRepo,
		Mailer:  mailer,
	})

	accountsRepo := accounts.NewRepo(pool)
	accountsHandler := accounts.NewHandler(accountsRepo, userRepo, refreshRepo)

	prodRepo := products.NewRepo(pool)
	activity := products.NewActivity(rdb)
	prodHandler := products.NewHandler(prodRepo, activity)

	catRepo := categories.NewRepo(pool)
	catHandler := categories.NewHandler(catRepo, prodRepo)

	cartRepo := cart.NewRepo(pool)
	cartHandler := cart.NewHandler(cartRepo)

	orderRepo := orders.NewRepo(pool)
	orderHandler := orders.NewHandler(orderRepo)

	r := gin.Default()

	api := r.Group("/api")

	// Auth routes
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/token/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
	}

	// Public catalog routes
	api.GET("/products", prodHandler.List)
	api.GET("/products/trending", prodHandler.Trending)
	api.GET("/products/:id", prodHandler.Get)
	api.GET("/search", prodHandler.Search)
	api.GET("/categories", catHandler.List)
	api.GET("/categories/:slug", catHandler.Get)
	api.GET("/categories/:slug/:sub", catHandler.GetSubCategory)

	// Account routes (login required)
	acct := api.Group("/accounts")
	acct.Use(auth.AuthMiddleware(jwtMgr))
	{
		acct.GET("/profile", accountsHandler.GetProfile)
		acct.PATCH("/profile", accountsHandler.UpdateProfile)
		acct.POST("/change-password", accountsHandler.ChangePassword)

		acct.GET("/addresses", accountsHandler.ListAddresses)
		acct.POST("/addresses", accountsHandler.CreateAddress)
		acct.PATCH("/addresses/:id", accountsHandler.UpdateAddress)
		acct.DELETE("/addresses/:id", accountsHandler.DeleteAddress)
		acct.POST("/addresses/:id/default", accountsHandler.SetDefaultAddress)
	}

	// Cart + order routes (login required)
	ord := api.Group("/orders")
	ord.Use(auth.AuthMiddleware(jwtMgr))
	{
		ord.GET("/cart", cartHandler.GetCart)
		ord.POST("/cart/add", cartHandler.AddItem)
		ord.POST("/cart/update/:id", cartHandler.UpdateItem)
		ord.DELETE("/cart/remove/:id", cartHandler.RemoveItem)
		ord.DELETE("/cart/clear", cartHandler.Clear)

		ord.POST("/create", orderHandler.Create)
		ord.GET("/my-orders", orderHandler.ListMine)
		ord.GET("/:id", orderHandler.Get)
	}

	log.Printf("listening on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}
