package middleware

import (
	"errors"
	"net/http"

	"github.com/Cozta1/sistema-encomendas-V2/internal/apierror"
	"github.com/Cozta1/sistema-encomendas-V2/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const TenantKey = "tenant"

// Tenant resolves the :team_id path parameter into a service.TenantContext
// for the authenticated user. Non-members get 404 so foreign teams are
// indistinguishable from missing ones.
func Tenant(tenants service.TenantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		teamID, err := uuid.Parse(c.Param("team_id"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, apierror.New("Equipe não encontrada"))
			return
		}

		tc, err := tenants.Context(c.Request.Context(), UserID(c), teamID)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, apierror.New("Equipe não encontrada"))
				return
			}
			log.Error().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("tenant: resolve failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Erro interno do servidor"))
			return
		}

		c.Set(TenantKey, tc)
		c.Next()
	}
}

// GetTenant returns the context stored by Tenant.
func GetTenant(c *gin.Context) service.TenantContext {
	tc, _ := c.MustGet(TenantKey).(*service.TenantContext)
	return *tc
}
