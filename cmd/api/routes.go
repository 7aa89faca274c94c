package main

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"receptionist-platform/internal/auth"
	"receptionist-platform/internal/bridge"
	"receptionist-platform/internal/business"
	"receptionist-platform/internal/callstore"
	"receptionist-platform/internal/config"
	"receptionist-platform/internal/finalize"
	"receptionist-platform/internal/httpapi"
	"receptionist-platform/internal/reporting"
	"receptionist-platform/internal/session"
	"receptionist-platform/internal/telephony"
)

type routeDeps struct {
	cfg         config.Config
	auth        *auth.Manager
	sessions    *session.Store
	store       callstore.Repo
	businesses  *business.Service
	mediaStream *bridge.Handler
	finalizer   *finalize.Workflow
	reports     *reporting.Service
	rdb         *redis.Client
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public).
	// NOTE: These endpoints should be protected by Twilio signature validation in production.
	{
		inbound := telephony.InboundHandler{
			Businesses: d.businesses,
			Sessions:   d.sessions,
			Store:      d.store,
			StreamURL:  d.cfg.App.PublicStreamURL,
			RDB:        d.rdb,
		}
		r.POST("/webhooks/twilio/voice", inbound.HandleInboundCall)

		status := telephony.StatusHandler{Finalizer: d.finalizer}
		r.POST("/webhooks/twilio/status", status.HandleStatusCallback)
	}

	// Twilio connects the call audio here.
	r.GET("/media-stream", d.mediaStream.HandleMediaStream)

	h := httpapi.Handlers{
		Auth:     d.auth,
		Sessions: d.sessions,
		Store:    d.store,
		Reports:  d.reports,
	}

	// AUTH routes (token issuance).
	// NOTE: This is a placeholder login route; real credential validation is not implemented.
	r.POST("/v1/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(auth.RequireToken(d.auth))
	{
		v1.GET("/me", func(c *gin.Context) {
			oid, _ := auth.OperatorID(c.Request.Context())
			bid, _ := auth.BusinessID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(200, gin.H{"operator_id": oid, "business_id": bid, "role": role})
		})

		v1.GET("/sessions", h.ListSessions)
		v1.GET("/calls/:call_sid/transcript", h.GetTranscript)
		v1.GET("/reports/calls", h.GetCallsSummary)
		v1.GET("/reports/bookings", h.GetBookingMetrics)
	}
}
