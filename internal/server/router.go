package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"cubetimer/internal/storage"
)

//go:embed web
var webFS embed.FS

// New builds the collaborator engine.
func New(store storage.Store, hub *Hub, logger zerolog.Logger, corsOrigins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(RequestLogger(logger), gin.Recovery(), CORS(corsOrigins))

	engine.SetHTMLTemplate(template.Must(template.ParseFS(webFS, "web/index.html")))
	static, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}
	engine.StaticFS("/static", http.FS(static))

	records := NewRecordHandler(store, hub, logger)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine.GET("/", records.Index)
	engine.POST("/save", records.Save)
	engine.POST("/delete", records.Delete)
	engine.GET("/times", records.Times)
	engine.GET("/records", records.Records)
	engine.GET("/events", hub.Events(originPatterns(corsOrigins)))

	return engine
}

// originPatterns converts CORS origins to the host patterns websocket.Accept
// matches against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			patterns = append(patterns, "*")
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}
