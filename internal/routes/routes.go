package routes

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/courier/internal/config"
	"github.com/example/courier/internal/handlers"
	"github.com/example/courier/internal/middleware"
	"github.com/example/courier/internal/models"
	"github.com/example/courier/internal/repository"
	"github.com/example/courier/internal/services"
)

// Deps are the collaborators shared by every handler.
type Deps struct {
	DB           *gorm.DB
	Config       *config.Config
	Registry     repository.AccountRegistry
	Verification *services.VerificationService
	Mailer       services.Mailer
	Documents    services.DocumentStore
	Telegram     *services.TelegramService
	Log          *slog.Logger
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, d Deps) {
	riderAuth := handlers.NewAuthHandler(models.KindRider, d.Verification, d.Documents, d.Log)
	userAuth := handlers.NewAuthHandler(models.KindUser, d.Verification, nil, d.Log)
	profileHandler := handlers.NewProfileHandler(d.DB, d.Registry, d.Verification)
	orderHandler := handlers.NewOrderHandler(d.DB, d.Telegram)
	resetHandler := handlers.NewPasswordResetHandler(d.DB, d.Mailer, d.Config.PublicBaseURL, d.Log)

	authRider := middleware.RequireAccount(d.Verification, models.KindRider)
	authUser := middleware.RequireAccount(d.Verification, models.KindUser)
	verified := middleware.RequireVerified()

	api := app.Group("/api")

	// Rider routes
	riders := api.Group("/riders")
	riders.Post("/riders-signup", riderAuth.RiderSignup)
	riders.Post("/login", riderAuth.Login)
	riders.Post("/verify/:signature", riderAuth.Verify)
	riders.Get("/resend-otp/:signature", riderAuth.ResendOTP)
	riders.Patch("/update-rider", authRider, profileHandler.UpdateRiderProfile)

	riders.Get("/rider-order-profile/:riderId", profileHandler.GetRiderProfile)
	riders.Get("/get-order-owner-name-by-id/:orderOwnerId", profileHandler.GetOrderOwnerName)
	riders.Get("/all-biddings", authRider, orderHandler.ListBiddings)
	riders.Get("/rider-history", authRider, orderHandler.RiderHistory)
	riders.Get("/get-order-by-id/:orderId", authRider, orderHandler.GetOrderForRider)
	riders.Patch("/accept-bid/:orderId", authRider, verified, orderHandler.AcceptBid)

	// User routes
	users := api.Group("/users")
	users.Post("/signup", userAuth.UserSignup)
	users.Post("/login", userAuth.Login)
	users.Post("/verify/:signature", userAuth.Verify)
	users.Get("/resend-otp/:signature", userAuth.ResendOTP)
	users.Patch("/update-profile", authUser, profileHandler.UpdateUserProfile)

	users.Post("/forgot-password", resetHandler.ForgotPassword)
	users.Get("/reset-password/:token", resetHandler.ResetPasswordGet)
	users.Post("/reset-password/:token", resetHandler.ResetPasswordPost)

	users.Post("/order-ride", authUser, verified, orderHandler.CreateOrder)
	users.Get("/my-orders", authUser, orderHandler.ListMyOrders)
	users.Get("/completed-orders", authUser, orderHandler.ListCompletedOrders)
	users.Get("/my-order/:id", authUser, orderHandler.GetMyOrder)
	users.Patch("/update-payment-method/:id", authUser, orderHandler.UpdatePaymentMethod)
	users.Delete("/delete-order/:id", authUser, orderHandler.DeleteOrder)
}
