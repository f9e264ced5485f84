package app

import (
	"github.com/google/uuid"

	"app-packager/internal/adapters"
	"app-packager/internal/ports"
)

type Service struct {
	Store        ports.GraphStorePort
	InvocationID func() string
}

func NewService() Service {
	return Service{
		Store:        adapters.NewGraphFileAdapter(),
		InvocationID: uuid.NewString,
	}
}
