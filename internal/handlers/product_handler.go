package handlers

import (
	"strconv"

	"marketplace/internal/apperror"
	"marketplace/internal/middleware"
	"marketplace/internal/models"
	"marketplace/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the product routes. Reads are public.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, guard middleware.Guard) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Post("/", guard(models.RoleSeller), h.HandleCreateProduct)
	productRoutes.Put("/:id", guard(models.RoleSeller), h.HandleUpdateProduct)
	productRoutes.Post("/:id/buy", guard(models.RoleShopper), h.HandleBuyProduct)
}

// ProductRequest is the editable part of a product. It is accepted as JSON or
// as a form.
type ProductRequest struct {
	Name        string          `json:"name" form:"name" validate:"required,max=100"`
	Description string          `json:"description" form:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price" form:"price" validate:"dgte0"`
	Quantity    int             `json:"quantity" form:"quantity" validate:"gte=0"`
	ImageURL    string          `json:"image_url" form:"image_url" validate:"omitempty,max=512"`
}

// HandleListProducts lists the catalog, optionally filtered with ?seller=<id>.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	var sellerID uint
	if raw := c.Query("seller"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return respondError(c, "Could not retrieve products", apperror.Invalid("seller", "must be a positive integer"))
		}
		sellerID = uint(id)
	}

	products, err := h.service.ListProducts(c.UserContext(), sellerID)
	if err != nil {
		return respondError(c, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleGetProduct retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, "Could not retrieve product", err)
	}
	product, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// HandleCreateProduct lists a product for the calling seller.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	claim, err := currentClaim(c)
	if err != nil {
		return respondError(c, "Could not create product", err)
	}
	var req ProductRequest
	if ok, err := validateBody(c, h.validate, &req); !ok {
		return err
	}

	product := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		ImageURL:    req.ImageURL,
	}
	if err := h.service.CreateProduct(c.UserContext(), claim.SubjectID, &product); err != nil {
		return respondError(c, "Could not create product", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Product created successfully",
		"productId": product.ID,
		"product":   product,
	})
}

// HandleUpdateProduct edits a product owned by the calling seller. A product
// owned by someone else is reported as not found.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	claim, err := currentClaim(c)
	if err != nil {
		return respondError(c, "Could not update product", err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, "Could not update product", err)
	}
	var req ProductRequest
	if ok, err := validateBody(c, h.validate, &req); !ok {
		return err
	}

	product, err := h.service.UpdateProduct(c.UserContext(), id, claim.SubjectID, models.ProductFields{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
	})
	if err != nil {
		return respondError(c, "Could not update product", err)
	}

	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"product": product,
	})
}

// BuyRequest asks whether a quantity of a product can be bought.
type BuyRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// HandleBuyProduct checks stock for a single product. Nothing is reserved;
// the purchase itself goes through POST /orders.
func (h *ProductHandler) HandleBuyProduct(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, "Could not process purchase", err)
	}
	var req BuyRequest
	if ok, err := validateBody(c, h.validate, &req); !ok {
		return err
	}

	product, err := h.service.CheckAvailability(c.UserContext(), id, req.Quantity)
	if err != nil {
		return respondError(c, "Could not process purchase", err)
	}

	return c.JSON(fiber.Map{
		"message":  "Product available",
		"product":  product,
		"quantity": req.Quantity,
	})
}
