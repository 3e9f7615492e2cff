package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	paymentsvc "github.com/angelmondragon/shopfront-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

type processPaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

func PaymentKey(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := svc.Key()
		if key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway not configured"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"key": key})
	}
}

func PaymentProcess(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req processPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := svc.Process(r.Context(), req.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}

// PaymentVerify checks the gateway signature. Browsers are redirected to the
// storefront; JSON clients get the result inline. The gateway posts either a
// JSON body or a urlencoded form.
func PaymentVerify(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := verifyRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := svc.Verify(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if wantsJSON(r) || res.RedirectURL == "" {
			responses.WriteSuccess(w, res)
			return
		}
		http.Redirect(w, r, res.RedirectURL, http.StatusFound)
	}
}

func verifyRequest(r *http.Request) (paymentsvc.VerifyRequest, error) {
	var req paymentsvc.VerifyRequest
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		err := validators.DecodeJSONBodyLoose(r, &req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form")
	}
	req.RazorpayOrderID = r.PostForm.Get("razorpay_order_id")
	req.RazorpayPaymentID = r.PostForm.Get("razorpay_payment_id")
	req.RazorpaySignature = r.PostForm.Get("razorpay_signature")
	return req, nil
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Accept")), "application/json")
}
