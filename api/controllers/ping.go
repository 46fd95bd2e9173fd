package controllers

import (
	"net/http"

	"github.com/gurudev-engicon/gallery-backend/api/middleware"
	"github.com/gurudev-engicon/gallery-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "public", "status": "ok"}
		if id := middleware.RequestIDFromContext(r.Context()); id != "" {
			payload["request_id"] = id
		}
		responses.WriteSuccess(w, payload)
	}
}
