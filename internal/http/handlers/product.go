package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shopgrid/server/internal/model"
	"github.com/shopgrid/server/internal/repo"
)

// ProductHandler handles catalog endpoints
type ProductHandler struct {
	products repo.ProductRepo
	validate *validator.Validate
}

// NewProductHandler creates a new product handler
func NewProductHandler(products repo.ProductRepo, validate *validator.Validate) *ProductHandler {
	return &ProductHandler{products: products, validate: validate}
}

// createProductRequest is the request body for POST /products/addProduct
type createProductRequest struct {
	Name              string   `json:"name" validate:"required,max=200"`
	MRPPrice          float64  `json:"mrp_price" validate:"required,gt=0"`
	SalePrice         float64  `json:"sale_price" validate:"required,gt=0"`
	PriceUnit         string   `json:"price_unit" validate:"required,max=50"`
	ShippingInfo      string   `json:"shipping_info" validate:"required,max=200"`
	SampleRequirement string   `json:"sample_requirement" validate:"required,max=200"`
	LongDescription   string   `json:"long_description" validate:"required,max=1000"`
	Features          []string `json:"features" validate:"required"`
	AvailableQuantity int      `json:"available_quantity" validate:"gte=0"`
}

// productData is the product shape in responses
type productData struct {
	ID                int64    `json:"id"`
	Name              string   `json:"name"`
	MRPPrice          float64  `json:"mrp_price"`
	SalePrice         float64  `json:"sale_price"`
	PriceUnit         string   `json:"price_unit"`
	ShippingInfo      string   `json:"shipping_info"`
	SampleRequirement string   `json:"sample_requirement"`
	LongDescription   string   `json:"long_description"`
	Features          []string `json:"features"`
	AvailableQuantity int      `json:"available_quantity"`
}

func productFor(p model.Product) productData {
	return productData{
		ID:                p.ID,
		Name:              p.Name,
		MRPPrice:          p.MRPPrice,
		SalePrice:         p.SalePrice,
		PriceUnit:         p.PriceUnit,
		ShippingInfo:      p.ShippingInfo,
		SampleRequirement: p.SampleRequirement,
		LongDescription:   p.LongDescription,
		Features:          p.Features,
		AvailableQuantity: p.AvailableQuantity,
	}
}

// HandleCreate handles POST /products/addProduct
func (h *ProductHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.products.Create(r.Context(), model.Product{
		Name:              req.Name,
		MRPPrice:          req.MRPPrice,
		SalePrice:         req.SalePrice,
		PriceUnit:         req.PriceUnit,
		ShippingInfo:      req.ShippingInfo,
		SampleRequirement: req.SampleRequirement,
		LongDescription:   req.LongDescription,
		Features:          req.Features,
		AvailableQuantity: req.AvailableQuantity,
	})
	if err != nil {
		log.Printf("product create failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	respondSuccess(w, http.StatusOK, "Product created successfully.", productFor(product))
}

// HandleList handles GET /products/viewProduct
func (h *ProductHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		log.Printf("product list failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}

	data := make([]productData, 0, len(products))
	for _, p := range products {
		data = append(data, productFor(p))
	}

	respondSuccess(w, http.StatusOK, "Products fetched successfully.", data)
}
