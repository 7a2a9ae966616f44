package rest

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/dashkeeper/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "dashkeeper"

func init() {
	// Report JSON names in validation messages.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(s.requestLogger())
	r.Use(metricsMiddleware())

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := s.requireToken(auth.ParseSessionToken)

	d := r.Group("/dashboards")
	d.GET("/dashboard", authed, s.getDashboard)
	d.GET("/dashboards", authed, s.listDashboards)
	d.POST("/create-dashboard", authed, s.createDashboard)
	d.POST("/check-password-needed", s.checkPasswordNeeded)
	d.POST("/check-password", s.checkPassword)
	d.POST("/share-dashboard", authed, s.shareDashboard)
	d.POST("/change-password", authed, s.changeDashboardPassword)
	d.POST("/save-dashboard", authed, s.saveDashboard)
	d.POST("/clone-dashboard", authed, s.cloneDashboard)
	d.POST("/delete-dashboard", authed, s.deleteDashboard)
	d.POST("/export-dashboard", authed, s.exportDashboard)

	src := r.Group("/sources", authed)
	src.GET("/sources", s.listSources)
	src.POST("/create-source", s.createSource)
	src.POST("/change-source", s.changeSource)
	src.POST("/delete-source", s.deleteSource)
	src.POST("/check-sources", s.checkSources)

	u := r.Group("/users")
	u.POST("/create", s.register)
	u.POST("/authenticate", s.authenticate)
	u.POST("/resetpassword", s.resetPassword)
	// Redeeming a reset takes the mailed reset token or a session token.
	u.POST("/changepassword", s.requireToken(auth.ParseToken), s.changePassword)

	g := r.Group("/general")
	g.GET("/statistics", s.statistics)
	g.GET("/test-url", s.testURL)
	g.GET("/test-url-request", s.testURLRequest)

	return r
}
