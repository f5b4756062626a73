package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Nafis5858/Krishak/api/middleware"
	"github.com/Nafis5858/Krishak/internal/orders"
	"github.com/Nafis5858/Krishak/pkg/enums"
	pkgerrors "github.com/Nafis5858/Krishak/pkg/errors"
)

func callerID(r *http.Request) (uuid.UUID, error) {
	id, _, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return id, nil
}

func callerActor(r *http.Request) (orders.Actor, error) {
	id, role, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return orders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return orders.Actor{UserID: id, Role: role}, nil
}

func parseDeliveryStatusFilter(raw string) (*enums.DeliveryStatus, error) {
	if raw == "" {
		return nil, nil
	}
	status, err := enums.ParseDeliveryStatus(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").WithDetails(map[string]any{"field": "status"})
	}
	return &status, nil
}
