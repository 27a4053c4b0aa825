package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, `# Polymarket Portfolio Dashboard

Reads a wallet's positions, trades and activity from the Polymarket data API
and serves them as a live view model, a PDF report or an XLSX workbook.

## Viewing an address

1. POST /api/lookup with {"address": "0x..."} (40 hex characters, 0x optional).
   Invalid input answers 400 with meta.field; nothing is fetched.
2. Connect to GET /api/current/stream (websocket). Every frame carries the
   event type, the lookup generation and the rebuilt view.
3. GET /api/current returns the same view on demand. Sections still loading
   are empty; summary and winners/losers appear once open and closed
   positions have arrived.

If every core endpoint fails the stream sends a single lookup_failed frame
and the view returns to the empty entry state.

## Routes

- GET /healthz
- GET /readyz
- GET /swagger/index.html
- POST /api/lookup
- GET /api/current
- DELETE /api/current
- POST /api/current/refresh
- GET /api/current/stream
- GET /api/current/export/{pdf|xlsx}
- GET /api/recent
- GET /api/portfolio/{address}
- GET /api/portfolio/{address}/export/{pdf|xlsx}
`)
	})
}
