package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/wovenlane/wovenlane-backend/api/responses"
	"github.com/wovenlane/wovenlane-backend/api/validators"
	products "github.com/wovenlane/wovenlane-backend/internal/products"
	"github.com/wovenlane/wovenlane-backend/pkg/enums"
	pkgerrors "github.com/wovenlane/wovenlane-backend/pkg/errors"
	"github.com/wovenlane/wovenlane-backend/pkg/logger"
)

type variantRequest struct {
	Name           string           `json:"name" validate:"required,max=120"`
	SKU            *string          `json:"sku,omitempty" validate:"omitempty,max=64"`
	Size           *string          `json:"size,omitempty" validate:"omitempty,max=40"`
	Color          *string          `json:"color,omitempty" validate:"omitempty,max=40"`
	Price          decimal.Decimal  `json:"price" validate:"required"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	IsActive       *bool            `json:"is_active,omitempty"`
	InitialQty     *int             `json:"initial_qty,omitempty" validate:"omitempty,min=0"`
}

type createProductRequest struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Slug        string           `json:"slug,omitempty" validate:"omitempty,max=220"`
	Description *string          `json:"description,omitempty"`
	Category    string           `json:"category" validate:"required,max=100"`
	Brand       *string          `json:"brand,omitempty" validate:"omitempty,max=100"`
	Status      string           `json:"status,omitempty"`
	IsFeatured  bool             `json:"is_featured,omitempty"`
	Variants    []variantRequest `json:"variants" validate:"omitempty,dive"`
}

type updateProductRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty" validate:"omitempty,max=100"`
	Brand       *string `json:"brand,omitempty" validate:"omitempty,max=100"`
	Status      *string `json:"status,omitempty"`
	IsFeatured  *bool   `json:"is_featured,omitempty"`
}

type updateVariantRequest struct {
	Name           *string          `json:"name,omitempty" validate:"omitempty,max=120"`
	SKU            *string          `json:"sku,omitempty" validate:"omitempty,max=64"`
	Size           *string          `json:"size,omitempty" validate:"omitempty,max=40"`
	Color          *string          `json:"color,omitempty" validate:"omitempty,max=40"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	IsActive       *bool            `json:"is_active,omitempty"`
}

type addImageRequest struct {
	GCSKey   string  `json:"gcs_key" validate:"required,max=512"`
	URL      *string `json:"url,omitempty" validate:"omitempty,max=1024"`
	AltText  *string `json:"alt_text,omitempty" validate:"omitempty,max=200"`
	Position int     `json:"position,omitempty" validate:"omitempty,min=0"`
}

func (v variantRequest) toInput() products.VariantInput {
	return products.VariantInput{
		Name:           v.Name,
		SKU:            v.SKU,
		Size:           v.Size,
		Color:          v.Color,
		Price:          v.Price,
		CompareAtPrice: v.CompareAtPrice,
		IsActive:       v.IsActive,
		InitialQty:     v.InitialQty,
	}
}

func parseProductStatus(raw string) (enums.ProductStatus, error) {
	if raw == "" {
		return enums.ProductStatusDraft, nil
	}
	status := enums.ProductStatus(raw)
	if !status.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid product status").
			WithDetails(map[string]any{"status": raw})
	}
	return status, nil
}

// AdminProductList is the back-office catalog view, drafts included.
func AdminProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := products.ProductListFilters{
			Query:           validators.SanitizeString(r.URL.Query().Get("q"), maxSearchQueryLen),
			IncludeInactive: true,
		}
		if category := validators.SanitizeString(r.URL.Query().Get("category"), maxSearchQueryLen); category != "" {
			filters.Category = &category
		}

		result, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func AdminProductDetail(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetByID(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func AdminProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := parseProductStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := products.CreateProductInput{
			Title:       payload.Title,
			Slug:        payload.Slug,
			Description: payload.Description,
			Category:    payload.Category,
			Brand:       payload.Brand,
			Status:      status,
			IsFeatured:  payload.IsFeatured,
		}
		for _, variant := range payload.Variants {
			input.Variants = append(input.Variants, variant.toInput())
		}

		product, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := products.UpdateProductInput{
			Title:       payload.Title,
			Description: payload.Description,
			Category:    payload.Category,
			Brand:       payload.Brand,
			IsFeatured:  payload.IsFeatured,
		}
		if payload.Status != nil {
			status, statusErr := parseProductStatus(*payload.Status)
			if statusErr != nil {
				responses.WriteError(r.Context(), logg, w, statusErr)
				return
			}
			input.Status = &status
		}

		product, err := svc.Update(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func AdminProductArchive(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Archive(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "archived"})
	}
}

func AdminProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func AdminVariantAdd(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload variantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.AddVariant(r.Context(), productID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminVariantUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := pathUUID(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateVariantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateVariant(r.Context(), productID, variantID, products.UpdateVariantInput{
			Name:           payload.Name,
			SKU:            payload.SKU,
			Size:           payload.Size,
			Color:          payload.Color,
			Price:          payload.Price,
			CompareAtPrice: payload.CompareAtPrice,
			IsActive:       payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func AdminVariantDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := pathUUID(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteVariant(r.Context(), productID, variantID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func AdminImageAdd(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addImageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.AddImage(r.Context(), productID, products.ImageInput{
			GCSKey:   payload.GCSKey,
			URL:      payload.URL,
			AltText:  payload.AltText,
			Position: payload.Position,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminImageDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		imageID, err := pathUUID(r, "imageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteImage(r.Context(), productID, imageID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
