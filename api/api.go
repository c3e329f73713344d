package api

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehub-api/database"
)

type APIServer struct {
	app           *fiber.App
	listenAddress string
	store         database.Storage
}

func NewAPIServer(listenAddress string, store database.Storage) *APIServer {
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:      "coursehub-api",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			// Webhook signatures are computed over the raw body
			BodyLimit: 1 * 1024 * 1024,
		}),
		listenAddress: listenAddress,
		store:         store,
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

// Run listens until SIGINT/SIGTERM, then drains in-flight requests
func (s *APIServer) Run() error {
	log.Println("Starting API Server")
	log.Printf("Listening on %s", s.listenAddress)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.listenAddress)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("Received %s, shutting down", sig)
	}

	return s.app.ShutdownWithTimeout(10 * time.Second)
}
