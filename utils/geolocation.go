package utils

import (
	"fmt"
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// GeoLocation is the resolved origin of an analytics event.
type GeoLocation struct {
	Country string
	City    string
}

// GeoResolver maps visitor IPs to country/city for analytics segmentation.
// Private and unparseable addresses resolve to "Unknown".
type GeoResolver struct {
	db    *geoip2.Reader
	cache sync.Map // map[string]GeoLocation
}

// NewGeoResolver opens the GeoIP database at dbPath. A missing database is
// not fatal - every lookup resolves to "Unknown" and analytics events simply
// carry no geography.
func NewGeoResolver(dbPath string) *GeoResolver {
	var db *geoip2.Reader

	if dbPath != "" {
		var err error
		db, err = geoip2.Open(dbPath)
		if err != nil {
			fmt.Printf("Warning: Could not open GeoIP database at %s: %v. Events will not be geo-tagged.\n", dbPath, err)
			db = nil
		}
	}

	return &GeoResolver{db: db}
}

func (g *GeoResolver) Close() {
	if g != nil && g.db != nil {
		g.db.Close()
	}
}

// Lookup is safe to call even if GeoResolver is nil or has no database
func (g *GeoResolver) Lookup(ipStr string) GeoLocation {
	if g == nil || g.db == nil {
		return GeoLocation{Country: "Unknown", City: "Unknown"}
	}

	if val, ok := g.cache.Load(ipStr); ok {
		return val.(GeoLocation)
	}

	loc := GeoLocation{Country: "Unknown", City: "Unknown"}

	ip := net.ParseIP(ipStr)
	if ip != nil {
		record, err := g.db.City(ip)
		if err == nil {
			if name := record.Country.Names["en"]; name != "" {
				loc.Country = name
			}
			if name := record.City.Names["en"]; name != "" {
				loc.City = name
			}
		}
	}

	g.cache.Store(ipStr, loc)
	return loc
}
