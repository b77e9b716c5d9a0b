package router

import (
	"net/http"
	"time"

	"employee-directory/docs"
	"employee-directory/internal/handlers"
	"employee-directory/internal/metrics"
	"employee-directory/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Deps struct {
	Logger         *logrus.Logger
	Metrics        *metrics.Metrics
	Auth           *middleware.AuthMiddleware
	Employees      *handlers.EmployeeHandler
	Login          *handlers.AuthHandler
	DB             handlers.Pinger
	AllowedOrigins []string
}

func Setup(r *gin.Engine, d Deps) {
	handlers.RegisterValidators()

	r.Use(
		middleware.RequestID(d.Logger),
		middleware.RequestLogger(d.Logger, d.Metrics),
		cors.New(corsConfig(d.AllowedOrigins)),
		d.Auth.Authenticate(),
	)

	// public
	r.GET("/health", handlers.Health(d.DB))
	r.POST("/migrate-passwords", d.Employees.MigratePasswords)
	r.GET("/migrate-passwords", d.Employees.MigratePasswords)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{})))

	docs.SwaggerInfo.BasePath = "/"
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.POST("/api/auth/login", d.Login.Login)

	// role checks come from auth.DefaultRules
	employees := r.Group("/api/employees")
	{
		employees.POST("/add", d.Employees.CreateEmployee)
		employees.POST("/add-Multiple", d.Employees.CreateEmployees)
		employees.POST("/bulk-upload", d.Employees.BulkUpload)
		employees.GET("/search", d.Employees.SearchEmployees)
		employees.GET("/:id", d.Employees.GetEmployee)
		employees.PUT("/update/:id", d.Employees.UpdateEmployee)
		employees.DELETE("/delete/:id", d.Employees.DeleteEmployee)
	}
}

// corsConfig echoes any origin when "*" is configured so credentials still work.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
