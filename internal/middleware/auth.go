package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"WeatherMetrics.influxDB/internal/models"
	"WeatherMetrics.influxDB/internal/utils"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"go.uber.org/zap"
)

const jwksCacheTTL = 5 * time.Minute

// NewJWTMiddleware returns a middleware that only lets through requests
// carrying a bearer token signed by the issuer's JWKS for the audience.
func NewJWTMiddleware(issuer, audience string, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	issuerURL, err := url.Parse(issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to parse the issuer url: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, jwksCacheTTL)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up the jwt validator: %w", err)
	}

	return newJWTMiddleware(jwtValidator.ValidateToken, logger), nil
}

func newJWTMiddleware(validate jwtmiddleware.ValidateToken, logger *zap.Logger) func(http.Handler) http.Handler {
	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("JWT authentication failed",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))

		if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
			utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeUnauthorized,
				"Authorization header missing", nil, http.StatusUnauthorized))
			return
		}
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInvalidToken,
			"Invalid token", nil, http.StatusUnauthorized))
	}

	m := jwtmiddleware.New(validate, jwtmiddleware.WithErrorHandler(errorHandler))
	return m.CheckJWT
}

// ClaimsFromContext returns the validated claims of the caller, if any.
func ClaimsFromContext(ctx context.Context) (*validator.ValidatedClaims, bool) {
	claims, ok := ctx.Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	return claims, ok
}
