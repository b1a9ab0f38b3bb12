package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Josephquito/back-streaming/internal/config"
	"github.com/Josephquito/back-streaming/internal/service"
)

// SetupRouter wires the HTTP surface: public auth endpoints plus the
// business API behind the JWT middleware.
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config, log *logrus.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(RecoveryMiddleware(log))
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware())

	h := NewHandler(db, rdb, cfg, log)
	auth := service.NewAuthService(db, cfg, log)

	api := r.Group("/api/v1")
	{
		public := api.Group("/auth")
		{
			public.POST("/registro", h.Register)
			public.POST("/login", h.Login)
		}

		protected := api.Group("")
		protected.Use(AuthMiddleware(auth))
		{
			protected.POST("/auth/empleados", h.RegisterEmployee)

			cuentas := protected.Group("/cuentas")
			{
				cuentas.POST("", h.CreateAccount)
				cuentas.GET("", h.ListAccounts)
				cuentas.GET("/disponibles", h.ListDonorCandidates)
				cuentas.GET("/:id", h.GetAccount)
				cuentas.PATCH("/:id", h.UpdateAccount)
				cuentas.DELETE("/:id", h.DeleteAccount)
				cuentas.POST("/:id/reemplazo", h.ReplaceAccount)
				cuentas.GET("/:id/perfiles", h.ListAccountProfiles)
			}

			perfiles := protected.Group("/perfiles")
			{
				perfiles.POST("", h.SellProfile)
				perfiles.GET("", h.ListProfiles)
				perfiles.GET("/:id", h.GetProfile)
				perfiles.PATCH("/:id", h.UpdateProfile)
				perfiles.POST("/:id/desocupar", h.DeactivateProfile)
			}

			inventario := protected.Group("/inventario")
			{
				inventario.GET("", h.ListStock)
				inventario.POST("/entradas", h.RecordEntry)
				inventario.POST("/salidas", h.RecordExit)
				inventario.GET("/:plataformaId", h.GetStock)
			}

			protected.GET("/movimientos", h.ListMovements)

			protected.POST("/plataformas", h.CreatePlatform)
			protected.GET("/plataformas", h.ListPlatforms)
			protected.POST("/clientes", h.CreateClient)
			protected.GET("/clientes", h.ListClients)
			protected.GET("/ventas", h.SalesReport)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
