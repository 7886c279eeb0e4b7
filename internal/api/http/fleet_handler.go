package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/service"
)

type FleetHandler struct {
	fleetSvc service.FleetService
}

func NewFleetHandler(fleetSvc service.FleetService) *FleetHandler {
	return &FleetHandler{fleetSvc: fleetSvc}
}

func (h *FleetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req VehicleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v := req.toDomain(staffFrom(r.Context()).ShopID)
	if err := h.fleetSvc.AddVehicle(r.Context(), v); err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusCreated, "vehicle added", v)
}

func (h *FleetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := h.fleetSvc.GetVehicle(r.Context(), staffFrom(r.Context()).ShopID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "", v)
}

func (h *FleetHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req VehicleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v := req.toDomain(staffFrom(r.Context()).ShopID)
	v.ID = id
	if err := h.fleetSvc.UpdateVehicle(r.Context(), v); err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "vehicle updated", v)
}

func (h *FleetHandler) List(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"
	vehicles, err := h.fleetSvc.ListVehicles(r.Context(), staffFrom(r.Context()).ShopID, includeArchived)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if vehicles == nil {
		vehicles = []domain.Vehicle{}
	}
	success(w, http.StatusOK, "", vehicles)
}

func (h *FleetHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := h.fleetSvc.ArchiveVehicle(r.Context(), staffFrom(r.Context()).ShopID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "vehicle archived", v)
}

func (h *FleetHandler) Maintenance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req MaintenanceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := h.fleetSvc.SetMaintenance(r.Context(), staffFrom(r.Context()).ShopID, id, req.On)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "", v)
}

func (h *FleetHandler) ReportDamage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req DamageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	d := req.toDomain()
	d.VehicleID = id
	if err := h.fleetSvc.ReportDamage(r.Context(), staffFrom(r.Context()), &d); err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusCreated, "damage recorded", d)
}

func (h *FleetHandler) Available(w http.ResponseWriter, r *http.Request) {
	if err := requireQuery(r, "date"); err != nil {
		writeError(w, r, err)
		return
	}
	vehicles, err := h.fleetSvc.AvailableOn(r.Context(), staffFrom(r.Context()).ShopID, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if vehicles == nil {
		vehicles = []domain.Vehicle{}
	}
	success(w, http.StatusOK, "", vehicles)
}

func (h *FleetHandler) Block(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req BlockRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.fleetSvc.Block(r.Context(), staffFrom(r.Context()), id, req.Date, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusCreated, "vehicle blocked", o)
}

func (h *FleetHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.fleetSvc.Unblock(r.Context(), staffFrom(r.Context()).ShopID, id, mux.Vars(r)["date"]); err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "vehicle unblocked", nil)
}

func (h *FleetHandler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	if err := requireQuery(r, "from", "to"); err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	blocks, err := h.fleetSvc.ListBlocks(r.Context(), staffFrom(r.Context()).ShopID, q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if blocks == nil {
		blocks = []domain.AvailabilityOverride{}
	}
	success(w, http.StatusOK, "", blocks)
}
