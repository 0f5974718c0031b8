package util

import (
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

var (
	geoOnce sync.Once
	geoDB   *geoip2.Reader
)

// InitGeoIP opens the MaxMind country database. Lookup is optional: when the
// database is absent every lookup returns "".
func InitGeoIP(path string) error {
	var err error
	geoOnce.Do(func() {
		if path == "" {
			return
		}
		geoDB, err = geoip2.Open(path)
	})
	return err
}

// CountryForIP resolves a client IP to an ISO country code ("US", "CN", ...).
func CountryForIP(ip string) string {
	if geoDB == nil {
		return ""
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	rec, err := geoDB.Country(parsed)
	if err != nil {
		return ""
	}
	return rec.Country.IsoCode
}
