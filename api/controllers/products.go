package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	productsvc "github.com/angelmondragon/shopfront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

func listQuery(r *http.Request) productsvc.ListQuery {
	q := r.URL.Query()
	return productsvc.ListQuery{
		Category:    strings.TrimSpace(q.Get("category")),
		SubCategory: strings.TrimSpace(q.Get("subCategory")),
		Brand:       strings.TrimSpace(q.Get("brand")),
		Search:      strings.TrimSpace(q.Get("search")),
	}
}

// ProductsList returns every product matching the query, priced with no selection.
func ProductsList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.List(r.Context(), listQuery(r), nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// ProductsFilter narrows by filter values and prices each result for selectedFilters.
func ProductsFilter(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := listQuery(r)
		if err := validators.ParseQueryJSON(r, "filters", &q.Filters); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var selection types.Selection
		if err := validators.ParseQueryJSON(r, "selectedFilters", &selection); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.Filter(r.Context(), q, selection)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func ProductsCatalog(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalog, err := svc.Catalog(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog)
	}
}

func ProductsSearch(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Search(r.Context(), r.URL.Query().Get("query"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}

func ProductsGet(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id", "product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

func ProductsPriceDetails(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id", "product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var selection types.Selection
		if err := validators.ParseQueryJSON(r, "selectedFilters", &selection); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		details, err := svc.PriceDetails(r.Context(), id, selection)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, details)
	}
}

func ProductsCount(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.Count(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"totalProducts": n})
	}
}

// AdminCreateProduct accepts a multipart form with optional image files.
func AdminCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := productForm(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.Create(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

func AdminUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id", "product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := productForm(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

func AdminDeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id", "product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Product removed")
	}
}

// productForm reads product fields from a multipart or urlencoded form.
// Absent fields stay nil so updates leave them untouched.
func productForm(r *http.Request) (productsvc.ProductInput, error) {
	var input productsvc.ProductInput
	if err := parseForm(r); err != nil {
		return input, err
	}

	input.Name = formString(r, "name")
	input.Description = formString(r, "description")
	input.Brand = formString(r, "brand")
	input.Category = formString(r, "category")
	input.SubCategory = formString(r, "subCategory")

	if raw := formString(r, "shippingCost"); raw != nil {
		v, err := strconv.ParseFloat(*raw, 64)
		if err != nil {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "shippingCost must be a number")
		}
		input.ShippingCost = &v
	}
	if raw := formString(r, "countInStock"); raw != nil {
		v, err := strconv.Atoi(*raw)
		if err != nil {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "countInStock must be an integer")
		}
		input.CountInStock = &v
	}
	if raw := formString(r, "filters"); raw != nil {
		var filters types.Filters
		if err := json.Unmarshal([]byte(*raw), &filters); err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid filters format")
		}
		input.Filters = &filters
	}

	bracket := validators.BracketFields(r.Form, "features")
	rawFeatures := formString(r, "features")
	if rawFeatures != nil || len(bracket) > 0 {
		raw := ""
		if rawFeatures != nil {
			raw = *rawFeatures
		}
		features, err := productsvc.ParseFeatures(raw, bracket)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid features format")
		}
		input.Features = features
	}

	images, err := formImages(r, "images")
	if err != nil {
		return input, err
	}
	input.Images = images
	return input, nil
}

func formString(r *http.Request, key string) *string {
	values, ok := r.Form[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := strings.TrimSpace(values[0])
	return &v
}
