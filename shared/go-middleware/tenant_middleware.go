package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

type contextKey string

const ContextKeyTenant = contextKey("tenant")

// TenantResolver maps a request host to a tenant slug. Explicit host
// entries win; otherwise a single-label subdomain of baseDomain is the
// tenant (north.example.com -> north).
type TenantResolver struct {
	hosts      map[string]string
	baseDomain string
}

func NewTenantResolver(hosts map[string]string, baseDomain string) *TenantResolver {
	normalized := make(map[string]string, len(hosts))
	for h, t := range hosts {
		normalized[utils.NormalizeKey(h)] = utils.NormalizeKey(t)
	}
	return &TenantResolver{
		hosts:      normalized,
		baseDomain: strings.TrimPrefix(utils.NormalizeKey(baseDomain), "."),
	}
}

// Resolve returns the tenant for host, or "" if the host is not served.
func (tr *TenantResolver) Resolve(host string) string {
	host = utils.NormalizeKey(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return ""
	}

	if t, ok := tr.hosts[host]; ok {
		return t
	}
	if tr.baseDomain == "" || !strings.HasSuffix(host, "."+tr.baseDomain) {
		return ""
	}
	sub := strings.TrimSuffix(host, "."+tr.baseDomain)
	if sub == "" || sub == "www" || strings.Contains(sub, ".") {
		return ""
	}
	return sub
}

// TenantMiddleware resolves the tenant from the Host header and stores it
// in the request context. Unknown hosts are rejected before any handler runs.
func TenantMiddleware(resolver *TenantResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenant := resolver.Resolve(r.Host)
			if tenant == "" {
				utils.Logger.WithFields(logrus.Fields{
					"host": r.Host,
					"path": r.URL.Path,
				}).Warn("Request for unknown tenant host")
				utils.RespondErrorWithCode(
					w, http.StatusBadRequest, utils.ErrCodeUnknownTenant, "Unknown tenant", nil,
				)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant)))
		})
	}
}

func WithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, ContextKeyTenant, tenant)
}

// TenantFromContext returns the tenant set by TenantMiddleware.
func TenantFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(ContextKeyTenant).(string)
	return t, ok && t != ""
}
