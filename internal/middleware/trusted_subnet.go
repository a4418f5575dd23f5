package middleware

import (
	"net/http"
	"net/netip"

	"github.com/rs/zerolog/log"

	"github.com/idudko/storefront-latency/internal/netutil"
)

// TrustedSubnetMiddleware restricts the metrics read endpoints to clients
// inside trustedSubnet (CIDR notation). The client address is resolved the
// same way the ingest rate limiter does it, so a reverse proxy's
// X-Forwarded-For or X-Real-IP is honoured and direct callers are matched by
// their remote address.
//
// An empty subnet disables the check. An unparsable subnet is logged and
// also disables the check so a configuration mistake cannot hide the
// summary endpoint from operators.
func TrustedSubnetMiddleware(trustedSubnet string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if trustedSubnet == "" {
			return next
		}

		prefix, err := netip.ParsePrefix(trustedSubnet)
		if err != nil {
			log.Warn().Err(err).Str("trusted_subnet", trustedSubnet).Msg("invalid trusted subnet, metrics reads are unrestricted")
			return next
		}
		prefix = prefix.Masked()

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := netutil.ClientIP(r)
			addr, err := netip.ParseAddr(client)
			if err != nil {
				log.Warn().Str("client_ip", client).Str("uri", r.RequestURI).Msg("metrics read from unparsable client address")
				http.Error(w, "Invalid client address", http.StatusForbidden)
				return
			}

			if !prefix.Contains(addr.Unmap()) {
				log.Warn().Str("client_ip", addr.String()).Str("trusted_subnet", prefix.String()).Str("uri", r.RequestURI).Msg("metrics read outside trusted subnet")
				http.Error(w, "Client is not in trusted subnet", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
