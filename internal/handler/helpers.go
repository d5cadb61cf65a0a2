package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/Cozta1/sistema-encomendas-V2/internal/apierror"
	"github.com/Cozta1/sistema-encomendas-V2/internal/middleware"
	"github.com/Cozta1/sistema-encomendas-V2/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Report fields by their JSON / query names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parâmetros inválidos: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fe.Tag()
	}
	c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
	return false
}

// fieldPath drops the root struct name: "CreateOrderRequest.lines[0].quantity" → "lines[0].quantity".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// paramID parses a UUID path parameter, writing 404 when it is malformed:
// an unparsable id cannot name an existing record.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Registro não encontrado"))
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps domain errors to HTTP statuses. Anything unknown
// is logged and answered with a generic 500.
func handleServiceError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(verr.Fields))
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, apierror.WithCode("validation", err.Error()))
	case errors.Is(err, service.ErrTenantMismatch):
		c.JSON(http.StatusUnprocessableEntity, apierror.WithCode("tenant_mismatch", err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))

	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, apierror.WithCode("permission_denied", err.Error()))
	case errors.Is(err, service.ErrMainAdministrator):
		c.JSON(http.StatusForbidden, apierror.WithCode("main_administrator", err.Error()))
	case errors.Is(err, service.ErrEmailMismatch):
		c.JSON(http.StatusForbidden, apierror.WithCode("email_mismatch", err.Error()))

	case errors.Is(err, service.ErrDuplicateInvitation):
		c.JSON(http.StatusConflict, apierror.NewWarning("duplicate_invitation", err.Error()))
	case errors.Is(err, service.ErrDuplicateMembership):
		c.JSON(http.StatusConflict, apierror.NewWarning("duplicate_membership", err.Error()))
	case errors.Is(err, service.ErrAlreadyExists):
		c.JSON(http.StatusConflict, apierror.NewWarning("already_exists", err.Error()))
	case errors.Is(err, service.ErrDuplicateCode):
		c.JSON(http.StatusConflict, apierror.WithCode("duplicate_code", err.Error()))
	case errors.Is(err, service.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, apierror.WithCode("duplicate_email", err.Error()))
	case errors.Is(err, service.ErrLastAdministrator):
		c.JSON(http.StatusConflict, apierror.WithCode("last_administrator", err.Error()))

	case errors.Is(err, service.ErrInvalidInvitation):
		c.JSON(http.StatusGone, apierror.WithCode("invalid_invitation", err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))

	default:
		log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("unexpected service error")
		c.JSON(http.StatusInternalServerError, apierror.New("Erro interno do servidor"))
	}
}
