package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strconv"
	"strings"

	"fwstore/internal/httpx"
	"fwstore/internal/models"
	"fwstore/internal/services"
	"fwstore/internal/storage"
	"fwstore/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ProductHandler handles HTTP requests for the catalog and its reviews.
type ProductHandler struct {
	service  *services.ProductService
	uploads  *storage.Uploads
	validate *validation.Validator
	maxFiles int
}

// NewProductHandler creates a new ProductHandler. At most maxFiles images are
// accepted per request.
func NewProductHandler(service *services.ProductService, uploads *storage.Uploads, v *validation.Validator, maxFiles int) *ProductHandler {
	return &ProductHandler{
		service:  service,
		uploads:  uploads,
		validate: v,
		maxFiles: maxFiles,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, g Guards) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Get("/:id/reviews", h.HandleGetReviews)
	productRoutes.Post("/:id/reviews", h.HandleCreateReview)

	productRoutes.Post("/", g.Auth, g.Admin, h.HandleCreateProduct)
	productRoutes.Put("/:id", g.Auth, g.Admin, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", g.Auth, g.Admin, h.HandleDeleteProduct)
}

// HandleGetProducts lists the catalog. Supported query parameters are
// category, q, color, minPrice, maxPrice and sort.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	filter := models.ProductFilter{
		Category: strings.TrimSpace(c.Query("category")),
		Query:    strings.TrimSpace(c.Query("q")),
		Color:    strings.TrimSpace(c.Query("color")),
		Sort:     c.Query("sort"),
	}
	for _, bound := range []struct {
		key string
		dst **decimal.Decimal
	}{
		{"minPrice", &filter.MinPrice},
		{"maxPrice", &filter.MaxPrice},
	} {
		raw := strings.TrimSpace(c.Query(bound.key))
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return httpx.FieldInvalid(c, bound.key, bound.key+" must be a number")
		}
		*bound.dst = &d
	}

	products, err := h.service.ListProducts(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return httpx.OK(c, "", products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return httpx.Fail(c, fiber.StatusNotFound, "Product not found")
		}
		return err
	}
	return httpx.OK(c, "", product)
}

// productInput is a create or update body. Nil fields were not sent.
type productInput struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	Price        *decimal.Decimal `json:"price"`
	MonthlyPrice *decimal.Decimal `json:"monthly_price"`
	Category     *string          `json:"category"`
	Stock        *int             `json:"stock"`
	Colors       json.RawMessage  `json:"colors"`
	Rating       *decimal.Decimal `json:"rating"`
	Reviews      *int             `json:"reviews"`

	colors    models.Colors
	hasColors bool
	files     []*multipart.FileHeader
}

// readProductInput decodes a multipart form or a JSON body and checks every
// field that was sent. With requireAll set, name, price, stock and colors
// must all be present.
func (h *ProductHandler) readProductInput(c *fiber.Ctx, requireAll bool) (*productInput, validation.Errors, error) {
	in := &productInput{}
	var errs validation.Errors
	fail := func(field, msg string) { errs = append(errs, validation.FieldError{Field: field, Message: msg}) }

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, nil, err
		}
		value := func(key string) *string {
			if vs, ok := form.Value[key]; ok && len(vs) > 0 {
				v := vs[0]
				return &v
			}
			return nil
		}
		in.Name = value("name")
		in.Description = value("description")
		in.Category = value("category")
		if v := value("colors"); v != nil {
			in.Colors = json.RawMessage(*v)
		}
		parseDecimal := func(key, msg string) *decimal.Decimal {
			v := value(key)
			if v == nil || strings.TrimSpace(*v) == "" {
				return nil
			}
			d, err := decimal.NewFromString(strings.TrimSpace(*v))
			if err != nil {
				fail(key, msg)
				return nil
			}
			return &d
		}
		parseInt := func(key, msg string) *int {
			v := value(key)
			if v == nil || strings.TrimSpace(*v) == "" {
				return nil
			}
			n, err := strconv.Atoi(strings.TrimSpace(*v))
			if err != nil {
				fail(key, msg)
				return nil
			}
			return &n
		}
		in.Price = parseDecimal("price", "Valid price is required")
		in.MonthlyPrice = parseDecimal("monthly_price", "Monthly price must be a number")
		in.Rating = parseDecimal("rating", "Rating must be a number")
		in.Stock = parseInt("stock", "Valid stock quantity is required")
		in.Reviews = parseInt("reviews", "Reviews must be a whole number")
		in.files = form.File["images"]
	} else if len(c.Body()) > 0 {
		if err := c.BodyParser(in); err != nil {
			return nil, nil, err
		}
	}

	if requireAll && (in.Name == nil || strings.TrimSpace(*in.Name) == "") {
		fail("name", "Product name is required")
	}
	if in.Price != nil && in.Price.IsNegative() {
		fail("price", "Valid price is required")
	} else if in.Price == nil && requireAll && !errs.Has("price") {
		fail("price", "Valid price is required")
	}
	if in.Stock != nil && *in.Stock < 0 {
		fail("stock", "Valid stock quantity is required")
	} else if in.Stock == nil && requireAll && !errs.Has("stock") {
		fail("stock", "Valid stock quantity is required")
	}
	if in.Rating != nil && (in.Rating.IsNegative() || in.Rating.GreaterThan(decimal.NewFromInt(5))) {
		fail("rating", "Rating must be between 0 and 5")
	}
	if in.Reviews != nil && *in.Reviews < 0 {
		fail("reviews", "Reviews must be a whole number")
	}

	if raw := strings.TrimSpace(string(in.Colors)); raw != "" && raw != "null" {
		colors, err := models.ParseColors(in.Colors)
		if err == nil {
			err = h.validate.Struct(struct {
				Colors models.Colors `json:"colors" validate:"dive"`
			}{colors})
		}
		if err != nil {
			fail("colors", "Invalid colors format")
		} else {
			in.colors = colors
			in.hasColors = true
		}
	}
	if requireAll && !in.hasColors && !errs.Has("colors") {
		fail("colors", "At least one color is required")
	}
	if len(in.files) > h.maxFiles {
		fail("images", fmt.Sprintf("You can upload at most %d images", h.maxFiles))
	}
	return in, errs, nil
}

// saveImages stores the uploaded files. On failure the files already written
// are removed again.
func (h *ProductHandler) saveImages(files []*multipart.FileHeader) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p, err := h.uploads.SaveImage(f)
		if err != nil {
			h.removeImages(paths)
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func (h *ProductHandler) removeImages(paths []string) {
	for _, p := range paths {
		if err := h.uploads.Remove(p); err != nil {
			slog.Warn("failed to remove product image", "path", p, "error", err)
		}
	}
}

// HandleCreateProduct creates a new product from a multipart form or JSON.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	in, verrs, err := h.readProductInput(c, true)
	if err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if len(verrs) > 0 {
		return httpx.Invalid(c, verrs)
	}

	images, err := h.saveImages(in.files)
	if err != nil {
		if msg, ok := uploadErrorMessage(err); ok {
			return httpx.FieldInvalid(c, "images", msg)
		}
		return err
	}

	product := &models.Product{
		Name:   strings.TrimSpace(*in.Name),
		Price:  *in.Price,
		Stock:  *in.Stock,
		Colors: in.colors,
		Images: models.Images(images),
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Category != nil {
		product.Category = strings.TrimSpace(*in.Category)
	}
	if in.MonthlyPrice != nil {
		product.MonthlyPrice = decimal.NewNullDecimal(*in.MonthlyPrice)
	}
	if in.Rating != nil {
		product.Rating = *in.Rating
	}
	if in.Reviews != nil {
		product.Reviews = *in.Reviews
	}

	if err := h.service.CreateProduct(c.UserContext(), product); err != nil {
		h.removeImages(images)
		if errors.Is(err, services.ErrInvalidProductInput) {
			return httpx.FieldInvalid(c, "colors", "At least one color is required")
		}
		return err
	}
	return httpx.Created(c, "Product created successfully", product)
}

// HandleUpdateProduct merges the sent fields into the stored product. New
// images are appended.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	in, verrs, err := h.readProductInput(c, false)
	if err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if len(verrs) > 0 {
		return httpx.Invalid(c, verrs)
	}

	images, err := h.saveImages(in.files)
	if err != nil {
		if msg, ok := uploadErrorMessage(err); ok {
			return httpx.FieldInvalid(c, "images", msg)
		}
		return err
	}

	product, err := h.service.UpdateProduct(c.UserContext(), id, services.ProductPatch{
		Name:         in.Name,
		Description:  in.Description,
		Price:        in.Price,
		MonthlyPrice: in.MonthlyPrice,
		Category:     in.Category,
		Stock:        in.Stock,
		Colors:       in.colors,
		Rating:       in.Rating,
		Reviews:      in.Reviews,
		NewImages:    images,
	})
	if err != nil {
		h.removeImages(images)
		if errors.Is(err, services.ErrNotFound) {
			return httpx.Fail(c, fiber.StatusNotFound, "Product not found")
		}
		return err
	}
	return httpx.OK(c, "Product updated successfully", product)
}

// HandleDeleteProduct deletes a product and its image files.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.service.GetProduct(c.UserContext(), id)
	if err == nil {
		err = h.service.DeleteProduct(c.UserContext(), id)
	}
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return httpx.Fail(c, fiber.StatusNotFound, "Product not found")
		}
		return err
	}
	h.removeImages(product.Images)
	return httpx.OK(c, "Product deleted successfully", nil)
}

// HandleGetReviews lists a product's reviews, newest first.
func (h *ProductHandler) HandleGetReviews(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	reviews, err := h.service.ListReviews(c.UserContext(), id)
	if err != nil {
		return err
	}
	return httpx.OK(c, "", reviews)
}

// CreateReviewRequest is the body of POST /products/:id/reviews.
type CreateReviewRequest struct {
	UserName string `json:"user_name" validate:"notblank,max=255" msg:"notblank=Name is required|Name must be at most 255 characters"`
	Rating   int    `json:"rating" validate:"min=1,max=5" msg:"Rating must be between 1 and 5"`
	Comment  string `json:"comment" validate:"max=5000" msg:"Comment must be at most 5000 characters"`
}

// HandleCreateReview stores a review and refreshes the product's rating.
func (h *ProductHandler) HandleCreateReview(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return httpx.Invalid(c, err)
	}

	review := &models.Review{
		ProductID: id,
		UserName:  req.UserName,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}
	if err := h.service.AddReview(c.UserContext(), review); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return httpx.Fail(c, fiber.StatusNotFound, "Product not found")
		}
		return err
	}
	return httpx.Created(c, "Review added successfully", review)
}
