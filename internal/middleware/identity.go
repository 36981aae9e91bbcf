// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/olegiv/packstudio/internal/model"
)

// Identity headers set by the hosting shell.
const (
	HeaderOperatorID  = "X-Operator-ID"
	HeaderViewerID    = "X-Viewer-ID"
	HeaderViewerName  = "X-Viewer-Name"
	HeaderViewerPlan  = "X-Viewer-Plan"
	DefaultOperatorID = "default"
)

type contextKey string

const (
	operatorKey contextKey = "operator"
	viewerKey   contextKey = "viewer"
)

// Identity reads the operator and viewer identity headers into the request context.
// A request without X-Viewer-ID is anonymous.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		operator := strings.TrimSpace(r.Header.Get(HeaderOperatorID))
		if operator == "" {
			operator = DefaultOperatorID
		}
		ctx = context.WithValue(ctx, operatorKey, operator)

		if id := strings.TrimSpace(r.Header.Get(HeaderViewerID)); id != "" {
			ctx = context.WithValue(ctx, viewerKey, &model.Viewer{
				ID:          id,
				DisplayName: strings.TrimSpace(r.Header.Get(HeaderViewerName)),
				Plan:        strings.TrimSpace(r.Header.Get(HeaderViewerPlan)),
			})
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetOperator returns the operator id of the request.
func GetOperator(r *http.Request) string {
	if op, ok := r.Context().Value(operatorKey).(string); ok {
		return op
	}
	return DefaultOperatorID
}

// GetViewer returns the viewer of the request, or nil when anonymous.
func GetViewer(r *http.Request) *model.Viewer {
	v, _ := r.Context().Value(viewerKey).(*model.Viewer)
	return v
}

// RequireViewer rejects anonymous requests.
func RequireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetViewer(r).Anonymous() {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Viewer identity required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
