package controllers

import (
	"net/http"

	"github.com/Nafis5858/Krishak/api/responses"
	"github.com/Nafis5858/Krishak/api/validators"
	"github.com/Nafis5858/Krishak/internal/geocode"
	"github.com/Nafis5858/Krishak/pkg/logger"
)

func GeocodeSearch(svc geocode.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		places, err := svc.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, places)
	}
}

func GeocodeReverse(svc geocode.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lat, err := validators.ParseQueryFloat(r, "lat", -90, 90)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lon, err := validators.ParseQueryFloat(r, "lon", -180, 180)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		place, err := svc.Reverse(r.Context(), lat, lon)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, place)
	}
}
