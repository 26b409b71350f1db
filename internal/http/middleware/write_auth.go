package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httpUtil "qroute/internal/http/util"
)

// TokenHeader is the alternative header for presenting the write token when
// Authorization is already claimed by a proxy.
const TokenHeader = "X-Qroute-Token"

// WriteAuthConfig controls the write-authentication gate.
type WriteAuthConfig struct {
	// Token is the shared write secret. Empty means no secret is configured.
	Token string
	// Production marks the deployment as production; with no token configured
	// writes are then refused unless AllowUnauthenticated is set.
	Production bool
	// AllowUnauthenticated explicitly opens writes without a token.
	AllowUnauthenticated bool
}

// WriteAuth gates mutating routes behind a constant-time token check. With no
// token configured the gate fails closed in production: a deployment that
// forgot to set the secret must not accept anonymous writes.
func WriteAuth(cfg WriteAuthConfig, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Token == "" {
			if cfg.AllowUnauthenticated || !cfg.Production {
				return c.Next()
			}
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "writes are disabled: no write token is configured",
			})
		}

		presented := httpUtil.BearerToken(c.Get(fiber.HeaderAuthorization))
		if presented == "" {
			presented = c.Get(TokenHeader)
		}

		if !httpUtil.SecureCompare(presented, cfg.Token) {
			logger.Debug("rejected write with bad or missing token",
				zap.String("ip", c.IP()), zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or missing write token",
			})
		}

		return c.Next()
	}
}
