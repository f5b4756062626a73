package delivery

import (
	"fmt"
	"math"
	"sort"

	"github.com/Nafis5858/Krishak/internal/orders"
	"github.com/Nafis5858/Krishak/pkg/geo"
	"github.com/Nafis5858/Krishak/pkg/types"
)

const (
	LegPickup   = "pickup"
	LegDelivery = "delivery"
)

// Distances are kilometres from the transporter's base, one decimal place.
// A nil leg means one of its endpoints has no coordinates.
type Distances struct {
	ToFarmer    *float64 `json:"toFarmer"`
	ToBuyer     *float64 `json:"toBuyer"`
	MaxDistance float64  `json:"maxDistance"`
}

// LegWarning names a leg that exceeds the service radius.
type LegWarning struct {
	Leg        string  `json:"leg"`
	DistanceKM float64 `json:"distanceKm"`
	ExcessKM   float64 `json:"excessKm"`
}

// Candidate is an unassigned order with the endpoints of both legs.
type Candidate struct {
	Order   orders.OrderDTO
	Pickup  *types.Coordinates
	Dropoff *types.Coordinates
}

// Job is a candidate annotated for one transporter.
type Job struct {
	orders.OrderDTO
	Distances       Distances    `json:"distances"`
	IsWithinRange   bool         `json:"isWithinRange"`
	DistanceWarning *string      `json:"distanceWarning"`
	Warnings        []LegWarning `json:"warnings"`
}

// JobsResult is the job board for one transporter.
type JobsResult struct {
	Count               int                `json:"count"`
	Jobs                []Job              `json:"jobs"`
	TransporterLocation *types.Coordinates `json:"transporterLocation"`
	MaxServiceRadius    float64            `json:"maxServiceRadius"`
}

type legReport struct {
	distances Distances
	within    bool
	warnings  []LegWarning
	text      *string
}

// evaluateLegs is the single range check used both when listing and when
// accepting a job. The radius is compared against raw distances; only the
// reported values are rounded.
func evaluateLegs(base, pickup, dropoff *types.Coordinates) legReport {
	report := legReport{within: true, warnings: []LegWarning{}}
	toFarmer := geo.DistanceFrom(base, pickup)
	toBuyer := geo.DistanceFrom(base, dropoff)
	maxDistance := math.Max(valueOrZero(toFarmer), valueOrZero(toBuyer))

	pickupFar := !geo.WithinRadius(toFarmer)
	dropoffFar := !geo.WithinRadius(toBuyer)
	if pickupFar {
		report.warnings = append(report.warnings, legWarning(LegPickup, *toFarmer))
	}
	if dropoffFar {
		report.warnings = append(report.warnings, legWarning(LegDelivery, *toBuyer))
	}

	var text string
	switch {
	case pickupFar && dropoffFar:
		text = fmt.Sprintf("Both locations are too far (%.1fkm)", maxDistance)
	case pickupFar:
		text = fmt.Sprintf("Pickup location is %.1fkm away", *toFarmer)
	case dropoffFar:
		text = fmt.Sprintf("Delivery location is %.1fkm away", *toBuyer)
	}
	if text != "" {
		report.within = false
		report.text = &text
	}

	report.distances = Distances{
		ToFarmer:    rounded(toFarmer),
		ToBuyer:     rounded(toBuyer),
		MaxDistance: geo.Round1(maxDistance),
	}
	return report
}

func legWarning(leg string, distance float64) LegWarning {
	return LegWarning{Leg: leg, DistanceKM: geo.Round1(distance), ExcessKM: geo.Round1(distance - geo.MaxDistanceKM)}
}

func rounded(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := geo.Round1(*v)
	return &r
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// FilterJobs annotates every candidate against base and ranks in-range jobs
// first, then by ascending maximum leg distance. Nothing is dropped. With no
// base every job is in range with nil distances and the input order is kept.
func FilterJobs(base *types.Coordinates, candidates []Candidate) []Job {
	jobs := make([]Job, 0, len(candidates))
	for _, c := range candidates {
		report := evaluateLegs(base, c.Pickup, c.Dropoff)
		jobs = append(jobs, Job{
			OrderDTO:        c.Order,
			Distances:       report.distances,
			IsWithinRange:   report.within,
			DistanceWarning: report.text,
			Warnings:        report.warnings,
		})
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		if jobs[i].IsWithinRange != jobs[j].IsWithinRange {
			return jobs[i].IsWithinRange
		}
		return jobs[i].Distances.MaxDistance < jobs[j].Distances.MaxDistance
	})
	return jobs
}
