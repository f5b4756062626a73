package types

import (
	"database/sql/driver"
	"fmt"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lng)
}

// Location is a textual place plus optional coordinates. Farms, transporter
// bases and product origins use it.
type Location struct {
	Address     string       `json:"address,omitempty"`
	District    string       `json:"district,omitempty"`
	City        string       `json:"city,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Point returns the coordinates of a possibly nil location.
func (l *Location) Point() *Coordinates {
	if l == nil {
		return nil
	}
	return l.Coordinates
}

func (l Location) Value() (driver.Value, error) {
	return marshalJSONB(l)
}

func (l *Location) Scan(value any) error {
	var out Location
	if _, err := scanJSONB(value, &out, "location"); err != nil {
		return err
	}
	*l = out
	return nil
}

// DeliveryAddress is where the buyer receives the order.
type DeliveryAddress struct {
	Address     string       `json:"address"`
	District    string       `json:"district"`
	City        string       `json:"city,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

func (a DeliveryAddress) Value() (driver.Value, error) {
	return marshalJSONB(a)
}

func (a *DeliveryAddress) Scan(value any) error {
	var out DeliveryAddress
	if _, err := scanJSONB(value, &out, "delivery address"); err != nil {
		return err
	}
	*a = out
	return nil
}
