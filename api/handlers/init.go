package handlers

import (
	"github.com/supportos/complaintstack/internal/repository"
	"github.com/supportos/complaintstack/services"
)

type APIHandlers struct {
	Complaints *ComplaintsHandler
	Pipeline   *PipelineHandler
}

func InitHandlers(r *repository.Repositories, s *services.Services) *APIHandlers {
	return &APIHandlers{
		Complaints: NewComplaintsHandler(r, s.StorageService, s.PipelineService),
		Pipeline:   NewPipelineHandler(s.PipelineService),
	}
}
