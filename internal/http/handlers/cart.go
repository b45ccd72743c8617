package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopgrid/server/internal/middleware"
	"github.com/shopgrid/server/internal/model"
	"github.com/shopgrid/server/internal/repo"
)

// CartHandler handles shopping cart endpoints. Every mutation is recorded in
// the audit trail for the acting user.
type CartHandler struct {
	carts    repo.CartRepo
	products repo.ProductRepo
	audit    repo.AuditRepo
	validate *validator.Validate
}

// NewCartHandler creates a new cart handler
func NewCartHandler(
	carts repo.CartRepo,
	products repo.ProductRepo,
	audit repo.AuditRepo,
	validate *validator.Validate,
) *CartHandler {
	return &CartHandler{carts: carts, products: products, audit: audit, validate: validate}
}

// cartAddRequest is the request body for POST /cartItem/add
type cartAddRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"omitempty,gte=1"`
}

// cartUpdateRequest is the request body for PUT /cartItem/update/{cartItemID}
type cartUpdateRequest struct {
	Quantity int `json:"quantity"`
}

// cartItemData is the cart line shape in responses, with the nested product
type cartItemData struct {
	ID       int64       `json:"id"`
	Quantity int         `json:"quantity"`
	Product  productData `json:"product"`
}

// recordAudit writes an audit entry; failures are logged, not surfaced.
func (h *CartHandler) recordAudit(ctx context.Context, userID int64, action string, productID, cartItemID *int64, details string) {
	entry := model.AuditEntry{
		UserID:     userID,
		Action:     action,
		EntityType: "cart_item",
		EntityID:   productID,
		CartItemID: cartItemID,
	}
	if details != "" {
		entry.Details = &details
	}
	if err := h.audit.Insert(ctx, entry); err != nil {
		log.Printf("audit insert failed for user %d action %s: %v", userID, action, err)
	}
}

func cartItemID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "cartItemID"), 10, 64)
}

// HandleAdd handles POST /cartItem/add
func (h *CartHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req cartAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Printf("cart add: product lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to add item to cart")
		return
	}

	// Check stock before adding
	if req.Quantity > product.AvailableQuantity {
		respondError(w, http.StatusBadRequest, "Requested quantity exceeds stock")
		return
	}

	item, err := h.carts.GetByUserAndProduct(r.Context(), user.ID, req.ProductID)
	switch {
	case err == nil:
		// Merge with the existing line; total must not exceed stock
		if item.Quantity+req.Quantity > product.AvailableQuantity {
			respondError(w, http.StatusBadRequest, "Not enough stock to add more to cart")
			return
		}
		if err := h.carts.UpdateQuantity(r.Context(), item.ID, item.Quantity+req.Quantity); err != nil {
			log.Printf("cart add: merge failed: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to add item to cart")
			return
		}
		item.Quantity += req.Quantity
	case errors.Is(err, repo.ErrNotFound):
		item, err = h.carts.Insert(r.Context(), user.ID, req.ProductID, req.Quantity)
		if err != nil {
			log.Printf("cart add: insert failed: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to add item to cart")
			return
		}
	default:
		log.Printf("cart add: lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to add item to cart")
		return
	}

	h.recordAudit(r.Context(), user.ID, "add_to_cart", &product.ID, &item.ID,
		fmt.Sprintf("quantity=%d", req.Quantity))

	respondSuccess(w, http.StatusOK, "Item added to cart successfully", nil)
}

// HandleView handles GET /cartItem/view
func (h *CartHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	items, err := h.carts.ListForUser(r.Context(), user.ID)
	if err != nil {
		log.Printf("cart view failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch cart")
		return
	}

	data := make([]cartItemData, 0, len(items))
	for _, item := range items {
		data = append(data, cartItemData{
			ID:       item.ID,
			Quantity: item.Quantity,
			Product:  productFor(*item.Product),
		})
	}

	respondSuccess(w, http.StatusOK, "Cart fetched successfully.", data)
}

// HandleUpdate handles PUT /cartItem/update/{cartItemID}. A quantity of zero
// or less removes the line.
func (h *CartHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := cartItemID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid cart item id")
		return
	}

	var req cartUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.carts.GetForUser(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Cart item not found")
			return
		}
		log.Printf("cart update: lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update cart item")
		return
	}

	product, err := h.products.GetByID(r.Context(), item.ProductID)
	if err != nil {
		log.Printf("cart update: product lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update cart item")
		return
	}

	if req.Quantity > product.AvailableQuantity {
		respondError(w, http.StatusBadRequest, "Requested quantity exceeds available stock")
		return
	}

	if req.Quantity <= 0 {
		if err := h.carts.Delete(r.Context(), item.ID); err != nil {
			log.Printf("cart update: delete failed: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to update cart item")
			return
		}
	} else {
		if err := h.carts.UpdateQuantity(r.Context(), item.ID, req.Quantity); err != nil {
			log.Printf("cart update: update failed: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to update cart item")
			return
		}
	}

	h.recordAudit(r.Context(), user.ID, "update_cart_item", &item.ProductID, &item.ID,
		fmt.Sprintf("quantity=%d", req.Quantity))

	respondSuccess(w, http.StatusOK, "Cart item updated successfully", nil)
}

// HandleIncrease handles PATCH /cartItem/{cartItemID}/increase
func (h *CartHandler) HandleIncrease(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := cartItemID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid cart item id")
		return
	}

	item, err := h.carts.GetForUser(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Cart item not found")
			return
		}
		log.Printf("cart increase: lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update cart item")
		return
	}

	product, err := h.products.GetByID(r.Context(), item.ProductID)
	if err != nil {
		log.Printf("cart increase: product lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update cart item")
		return
	}

	if item.Quantity >= product.AvailableQuantity {
		respondError(w, http.StatusBadRequest, "Cannot increase. Product out of stock.")
		return
	}

	if err := h.carts.UpdateQuantity(r.Context(), item.ID, item.Quantity+1); err != nil {
		log.Printf("cart increase: update failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update cart item")
		return
	}

	h.recordAudit(r.Context(), user.ID, "increase_quantity", &item.ProductID, &item.ID,
		fmt.Sprintf("quantity=%d", item.Quantity+1))

	respondSuccess(w, http.StatusOK, "Quantity increased", map[string]int{"quantity": item.Quantity + 1})
}

// HandleDecrease handles PATCH /cartItem/{cartItemID}/decrease. Quantity
// never drops below 1.
func (h *CartHandler) HandleDecrease(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := cartItemID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid cart item id")
		return
	}

	item, err := h.carts.GetForUser(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Cart item not found")
			return
		}
		log.Printf("cart decrease: lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update cart item")
		return
	}

	if item.Quantity <= 1 {
		respondError(w, http.StatusBadRequest, "Quantity cannot be less than 1")
		return
	}

	if err := h.carts.UpdateQuantity(r.Context(), item.ID, item.Quantity-1); err != nil {
		log.Printf("cart decrease: update failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update cart item")
		return
	}

	h.recordAudit(r.Context(), user.ID, "decrease_quantity", &item.ProductID, &item.ID,
		fmt.Sprintf("quantity=%d", item.Quantity-1))

	respondSuccess(w, http.StatusOK, "Quantity decreased", map[string]int{"quantity": item.Quantity - 1})
}

// HandleDelete handles DELETE /cartItem/delete/{cartItemID}
func (h *CartHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := cartItemID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid cart item id")
		return
	}

	item, err := h.carts.GetForUser(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Cart item not found")
			return
		}
		log.Printf("cart delete: lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to remove cart item")
		return
	}

	if err := h.carts.Delete(r.Context(), item.ID); err != nil {
		log.Printf("cart delete: delete failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to remove cart item")
		return
	}

	h.recordAudit(r.Context(), user.ID, "remove_from_cart", &item.ProductID, &item.ID, "")

	respondSuccess(w, http.StatusOK, "Item removed from cart", nil)
}

// HandleClear handles DELETE /cartItem/clear
func (h *CartHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.carts.ClearForUser(r.Context(), user.ID); err != nil {
		log.Printf("cart clear failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to clear cart")
		return
	}

	h.recordAudit(r.Context(), user.ID, "clear_cart", nil, nil, "")

	respondSuccess(w, http.StatusOK, "Cart cleared successfully", nil)
}
