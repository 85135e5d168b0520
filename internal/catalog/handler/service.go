package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"venivici/internal/catalog/service"
	httputil "venivici/pkg/http"
	"venivici/pkg/logger"
	"venivici/pkg/model"
)

const (
	servicesPath  = "/api/v1/services"
	serviceIDPath = servicesPath + "/id/:id"
)

type ServiceHandler struct {
	service service.CatalogService
	log     *logger.Logger
}

func NewServiceHandler(service service.CatalogService, log *logger.Logger) *ServiceHandler {
	return &ServiceHandler{
		service: service,
		log:     log,
	}
}

func (h *ServiceHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET(servicesPath, h.GetAll)
	router.POST(servicesPath, h.Create)
	router.GET(serviceIDPath, h.GetByID)
	router.PATCH(serviceIDPath, h.Update)
	router.DELETE(serviceIDPath, h.Delete)
}

func (h *ServiceHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	services, err := h.service.GetAll(r.Context())
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, services); err != nil {
		h.log.Error("failed to write JSON response", "handler", "GetAll", "operation", "WriteJSON", "error", err)
	}
}

func (h *ServiceHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	svc, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, svc); err != nil {
		h.log.Error("failed to write JSON response", "handler", "GetByID", "operation", "WriteJSON", "error", err)
	}
}

func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var svc model.Service
	if err := httputil.DecodeJSON(r, &svc); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &svc); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, svc); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.ServiceUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	svc, err := h.service.Update(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, svc); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", err)
	}
}

func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ServiceHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
