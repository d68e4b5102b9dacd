// Package geoip resolves the country of a server address from a MaxMind format database.
package geoip

import (
	"context"
	"errors"

	"github.com/leighmacdonald/bf4-status/internal/network"
	"github.com/oschwald/maxminddb-golang/v2"
)

var (
	ErrInvalidIP = errors.New("invalid ip")
	ErrLookup    = errors.New("error trying to lookup address")
	ErrOpen      = errors.New("failed to open geoip database")
)

type Record struct {
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
}

// Locator looks up addresses in an opened database.
type Locator struct {
	db *maxminddb.Reader
}

// Open loads the database at dbPath, for example a GeoLite2-Country or Geoacumen-Country file.
func Open(dbPath string) (*Locator, error) {
	reader, err := maxminddb.Open(dbPath)
	if err != nil {
		return nil, errors.Join(err, ErrOpen)
	}

	return &Locator{db: reader}, nil
}

func (l *Locator) Close() error {
	return l.db.Close()
}

// Lookup resolves address, which may be a hostname, to its database record.
func (l *Locator) Lookup(address string) (Record, error) {
	var record Record

	ip, err := network.ResolveIP(context.Background(), address)
	if err != nil {
		return record, errors.Join(err, ErrInvalidIP)
	}

	if err = l.db.Lookup(ip).Decode(&record); err != nil {
		return record, errors.Join(err, ErrLookup)
	}

	return record, nil
}

// Country returns the ISO country code of address.
func (l *Locator) Country(address string) (string, error) {
	record, err := l.Lookup(address)
	if err != nil {
		return "", err
	}

	return record.Country.ISOCode, nil
}
