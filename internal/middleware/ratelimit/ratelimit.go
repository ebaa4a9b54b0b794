package rateLimit

import (
	"net/http"
	"time"

	httprate "github.com/go-chi/httprate"
)

func Login() func(http.Handler) http.Handler {
	return limitByIP(10, 5*time.Minute)
}

func Register() func(http.Handler) http.Handler {
	return limitByIP(5, time.Hour)
}

func SendCode() func(http.Handler) http.Handler {
	return limitByIP(3, 15*time.Minute)
}

func API() func(http.Handler) http.Handler {
	return limitByIP(100, 15*time.Minute)
}

func limitByIP(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window)
}
