// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/packstudio/internal/middleware"
)

// RouterOptions configure the HTTP router.
type RouterOptions struct {
	// RequestTimeout bounds each request; zero disables the timeout.
	RequestTimeout time.Duration
	// UploadRate and UploadBurst limit image uploads per operator.
	UploadRate  float64
	UploadBurst int
	// UploadsDir is served under UploadsPath when both are set and
	// UploadsPath is a local path.
	UploadsDir  string
	UploadsPath string
}

// Router builds the HTTP routes of the API.
func (h *Handler) Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(chimw.Timeout(opts.RequestTimeout))
	}
	r.Use(middleware.Identity)

	r.Get("/health", h.Health)

	if p := strings.TrimSuffix(opts.UploadsPath, "/"); opts.UploadsDir != "" && strings.HasPrefix(p, "/") {
		r.Handle(p+"/*", http.StripPrefix(p, http.FileServer(http.Dir(opts.UploadsDir))))
	}

	uploadRate, uploadBurst := opts.UploadRate, opts.UploadBurst
	if uploadRate <= 0 {
		uploadRate = 2
	}
	if uploadBurst <= 0 {
		uploadBurst = 5
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", h.GetCatalog)
			r.Post("/tab", h.SelectTab)
			r.Post("/packs/{id}", h.EnterPack)
			r.Post("/back", h.Back)
			r.Post("/refresh", h.Refresh)

			r.Route("/editor", func(r chi.Router) {
				r.Get("/", h.GetEditor)
				r.Post("/", h.OpenEditor)
				r.Patch("/", h.UpdateEditor)
				r.Delete("/", h.CloseEditor)
				r.Post("/save", h.SaveEditor)
				r.With(middleware.OperatorRateLimit(uploadRate, uploadBurst)).
					Post("/images/{field}", h.UploadImage)
			})

			r.Delete("/{entity}/{id}", h.DeleteRecord)
		})

		r.Get("/pages/{pageID}", h.GetPage)
		r.Get("/pages/{pageID}/html", h.GetPageHTML)

		r.Route("/favorites", func(r chi.Router) {
			r.Use(middleware.RequireViewer)
			r.Get("/", h.ListFavorites)
			r.Post("/{itemID}/toggle", h.ToggleFavorite)
			r.Put("/{itemID}", h.SetFavorite)
		})

		r.Get("/jobs", h.ListJobs)
		r.Post("/jobs/{name}/run", h.RunJob)
		r.Get("/events", h.ListEvents)
	})

	return r
}
