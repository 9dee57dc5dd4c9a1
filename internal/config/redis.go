package config

import (
	"net"
	neturl "net/url"
	"strconv"
	"strings"
)

// Enabled reports whether a redis server was configured at all.
func (c RedisRuntimeConfig) Enabled() bool {
	return c.URL != "" || c.Host != ""
}

// URLValue returns a redis:// URL for the configured server, or "" when redis is disabled.
func (c RedisRuntimeConfig) URLValue() string {
	if u := normalizeRedisRawURL(c.URL); u != "" {
		return u
	}
	host := strings.TrimSpace(c.Host)
	if host == "" {
		return ""
	}
	port := c.Port
	if port == 0 {
		port = defaultRedisPort
	}

	scheme := "redis"
	if c.TLS {
		scheme = "rediss"
	}
	u := &neturl.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + strconv.Itoa(c.DB),
	}
	username := strings.TrimSpace(c.Username)
	password := strings.TrimSpace(c.Password)
	if username != "" {
		if password != "" {
			u.User = neturl.UserPassword(username, password)
		} else {
			u.User = neturl.User(username)
		}
	} else if password != "" {
		u.User = neturl.UserPassword("", password)
	}
	return u.String()
}
