package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/zenstory/internal/fetch"
)

// DefaultIPTimeout bounds the geolocation lookup.
const DefaultIPTimeout = 3 * time.Second

// ErrNoCoordinates is returned when the geolocation service answers without
// a latitude or longitude.
var ErrNoCoordinates = errors.New("geolocation response has no coordinates")

// IPLocator finds the caller's approximate position from their public IP.
type IPLocator struct {
	client  *fetch.Client
	url     string
	timeout time.Duration
}

func NewIPLocator(client *fetch.Client, url string) *IPLocator {
	return &IPLocator{client: client, url: url, timeout: DefaultIPTimeout}
}

type ipapiResponse struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	City        string   `json:"city"`
	CountryName string   `json:"country_name"`
	CountryCode string   `json:"country_code"`
	Timezone    string   `json:"timezone"`
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
}

// Locate returns "{city}, {country}" and coordinates for the current IP.
func (l *IPLocator) Locate(ctx context.Context) (Location, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var resp ipapiResponse
	if err := l.client.GetJSON(ctx, l.url, nil, nil, &resp); err != nil {
		return Location{}, fmt.Errorf("ip geolocation: %w", err)
	}
	if resp.Error {
		return Location{}, fmt.Errorf("ip geolocation: %s", resp.Reason)
	}
	if resp.Latitude == nil || resp.Longitude == nil {
		return Location{}, ErrNoCoordinates
	}

	city := resp.City
	if city == "" {
		city = "Unknown"
	}
	country := resp.CountryName
	if country == "" {
		country = resp.CountryCode
	}
	if country == "" {
		country = "Unknown"
	}
	return Location{
		Name:     city + ", " + country,
		Lat:      *resp.Latitude,
		Lon:      *resp.Longitude,
		Timezone: resp.Timezone,
		Source:   SourceIP,
	}, nil
}
