package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/service"
	"github.com/safar/storefront/internal/store"
)

func (h *handler) getCart(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	cart, err := h.Carts.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

func (h *handler) addCartItem(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req service.AddItemRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := h.Carts.AddItem(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

func (h *handler) setCartQuantity(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if !bindJSON(c, &req) {
		return
	}

	cart, err := h.Carts.SetQuantity(c.Request.Context(), userID, productID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

func (h *handler) setCartQuantities(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req service.SetQuantitiesRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := h.Carts.SetQuantities(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

func (h *handler) removeCartItem(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}

	cart, err := h.Carts.RemoveItem(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

func (h *handler) clearCart(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	cart, err := h.Carts.Clear(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

func (h *handler) checkout(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req service.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.Orders.Checkout(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *handler) listUserOrders(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	page, err := h.Orders.ListForUser(c.Request.Context(), userID, c.Query("cursor"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.Orders.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *handler) listOrders(c *gin.Context) {
	filter := store.OrderFilter{
		Phone:  c.Query("phone"),
		Status: models.OrderStatus(c.Query("status")),
	}

	page, err := h.Orders.List(c.Request.Context(), filter, queryInt(c, "page"), queryInt(c, "page_size"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *handler) getOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := h.Orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *handler) updateOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.Orders.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}
