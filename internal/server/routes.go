package server

import (
	"net/http"
	"time"

	"github.com/danmuck/tramctl/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "0.1.0"

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status":   "ok",
			"uptime":   time.Since(s.Appeared).String(),
			"service":  "tramctl",
			"version":  version,
			"entities": s.reg.Len(),
		}
		if s.stats != nil {
			st := s.stats.Stats()
			body["connection"] = st.State.String()
			body["bytes"] = st.Bytes
			body["records"] = st.Records
			body["errors"] = st.Errors
			body["reconnects"] = st.Reconnects
			if st.LastError != "" {
				body["last_error"] = st.LastError
			}
		}
		c.JSON(http.StatusOK, body)
	})

	api := s.router.Group("/")
	if s.auth != nil {
		api.Use(auth.Middleware(s.auth))
	}

	api.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api.GET("/trams", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"trams": s.reg.Snapshot(),
		})
	})

	api.GET("/trams/:id", func(c *gin.Context) {
		state, ok := s.reg.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "tram not found"})
			return
		}
		c.JSON(http.StatusOK, state)
	})
}
