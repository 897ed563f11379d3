package controllers

import (
	"net/http"

	"github.com/angelmondragon/bizops-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/bizops-backend/pkg/errors"
)

func requireActor(r *http.Request) (middleware.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return middleware.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}
	return actor, nil
}
