package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safar/storefront/internal/service"
)

func (h *handler) createUser(c *gin.Context) {
	var req service.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.Users.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *handler) getUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	user, err := h.Users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.Catalog.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *handler) listProducts(c *gin.Context) {
	page, err := h.Catalog.ListProducts(c.Request.Context(), queryInt(c, "page"), queryInt(c, "page_size"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *handler) getProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	product, err := h.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *handler) setProductWarranties(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		WarrantyPlanIDs []int64 `json:"warranty_plan_ids"`
	}
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.Catalog.SetWarrantyPlans(c.Request.Context(), id, req.WarrantyPlanIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *handler) restockProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req service.RestockRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.Catalog.Restock(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *handler) createWarrantyPlan(c *gin.Context) {
	var req service.CreateWarrantyPlanRequest
	if !bindJSON(c, &req) {
		return
	}

	plan, err := h.Warranties.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, plan)
}

func (h *handler) listWarrantyPlans(c *gin.Context) {
	plans, err := h.Warranties.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": plans})
}

func (h *handler) getWarrantyPlan(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	plan, err := h.Warranties.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (h *handler) lookupWarranty(c *gin.Context) {
	lookup, err := h.Warranties.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, lookup)
}
