package http

import (
	"net/http"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/service"
)

type CustomerHandler struct {
	customerSvc service.CustomerService
}

func NewCustomerHandler(customerSvc service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerSvc: customerSvc}
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c := req.toDomain(staffFrom(r.Context()).ShopID)
	if err := h.customerSvc.CreateCustomer(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusCreated, "customer created", c)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.customerSvc.GetCustomer(r.Context(), staffFrom(r.Context()).ShopID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "", c)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req CustomerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c := req.toDomain(staffFrom(r.Context()).ShopID)
	c.ID = id
	if err := h.customerSvc.UpdateCustomer(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "customer updated", c)
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	customers, total, err := h.customerSvc.ListCustomers(r.Context(), staffFrom(r.Context()).ShopID, r.URL.Query().Get("q"), page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	success(w, http.StatusOK, "", Page{Items: customers, Total: total, Page: page, PageSize: size})
}
