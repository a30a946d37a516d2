package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xtrntr/p2pdesk/internal/backoffice"
	"github.com/xtrntr/p2pdesk/internal/catalog"
	"github.com/xtrntr/p2pdesk/internal/models"
	"github.com/xtrntr/p2pdesk/internal/orders"
)

// adView is an ad with its owner's public profile.
type adView struct {
	models.Ad
	Trader *models.Trader `json:"trader,omitempty"`
}

func optionalDecimal(values url.Values, key string) (decimal.NullDecimal, error) {
	s := values.Get(key)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %s must be a number", errBadRequest, key)
	}
	return decimal.NewNullDecimal(d), nil
}

func parseQuery(values url.Values) (catalog.Query, error) {
	q := catalog.Query{
		Side:           models.Direction(values.Get("side")),
		CryptoCurrency: values.Get("crypto"),
		FiatCurrency:   values.Get("fiat"),
		PaymentMethod:  models.PaymentMethod(values.Get("payment_method")),
		Country:        values.Get("country"),
		Sort:           catalog.SortKey(values.Get("sort")),
	}
	if q.Side != "" && !q.Side.Valid() {
		return q, fmt.Errorf("%w: side must be 'buy' or 'sell'", errBadRequest)
	}
	if q.Sort != "" && q.Sort != catalog.SortPrice && q.Sort != catalog.SortRating {
		return q, fmt.Errorf("%w: sort must be 'price' or 'rating'", errBadRequest)
	}
	if v := values.Get("verified_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, fmt.Errorf("%w: verified_only must be a boolean", errBadRequest)
		}
		q.VerifiedOnly = b
	}

	var err error
	if q.MinPrice, err = optionalDecimal(values, "min_price"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = optionalDecimal(values, "max_price"); err != nil {
		return q, err
	}
	if q.MinAmount, err = optionalDecimal(values, "min_amount"); err != nil {
		return q, err
	}
	return q, nil
}

// ListAds searches the catalog
func (h *Handler) ListAds(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ads, err := h.Catalog.Search(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	traders, err := h.Catalog.Traders(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views := make([]adView, 0, len(ads))
	for _, ad := range ads {
		v := adView{Ad: ad}
		if t, ok := traders[ad.OwnerID]; ok {
			v.Trader = &t
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, views)
}

// GetAd returns one ad with its owner
func (h *Handler) GetAd(w http.ResponseWriter, r *http.Request) {
	ad, err := h.Catalog.GetAd(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v := adView{Ad: *ad}
	if t, err := h.Catalog.GetTrader(r.Context(), ad.OwnerID); err == nil {
		v.Trader = t
	}
	writeJSON(w, http.StatusOK, v)
}

// CreateAd posts a new ad owned by the caller
func (h *Handler) CreateAd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction            models.Direction       `json:"direction"`
		CryptoCurrency       string                 `json:"crypto_currency"`
		FiatCurrency         string                 `json:"fiat_currency"`
		UnitPrice            decimal.Decimal        `json:"unit_price"`
		AvailableQuantity    decimal.Decimal        `json:"available_quantity"`
		MinLimit             decimal.Decimal        `json:"min_limit"`
		MaxLimit             decimal.Decimal        `json:"max_limit"`
		PaymentMethods       []models.PaymentMethod `json:"payment_methods"`
		PaymentWindowMinutes int                    `json:"payment_window_minutes"`
		Instructions         string                 `json:"instructions"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ad, err := h.Catalog.CreateAd(r.Context(), userID(r.Context()), models.Ad{
		Direction:            req.Direction,
		CryptoCurrency:       req.CryptoCurrency,
		FiatCurrency:         req.FiatCurrency,
		UnitPrice:            req.UnitPrice,
		AvailableQuantity:    req.AvailableQuantity,
		MinLimit:             req.MinLimit,
		MaxLimit:             req.MaxLimit,
		PaymentMethods:       req.PaymentMethods,
		PaymentWindowMinutes: req.PaymentWindowMinutes,
		Instructions:         req.Instructions,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ad)
}

// DeleteAd removes one of the caller's ads
func (h *Handler) DeleteAd(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteAd(r.Context(), chi.URLParam(r, "id"), userID(r.Context())); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Ad deleted"})
}

// MyAds lists the caller's ads
func (h *Handler) MyAds(w http.ResponseWriter, r *http.Request) {
	ads, err := h.Catalog.ListByOwner(r.Context(), userID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ads)
}

// PlaceOrder opens an order against an ad
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdID           string               `json:"ad_id"`
		FiatAmount     decimal.NullDecimal  `json:"fiat_amount"`
		CryptoAmount   decimal.NullDecimal  `json:"crypto_amount"`
		PaymentMethod  models.PaymentMethod `json:"payment_method"`
		AccountDetails string               `json:"account_details"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AdID == "" {
		writeError(w, http.StatusBadRequest, "ad_id is required")
		return
	}

	order, err := h.Orders.Create(r.Context(), req.AdID, orders.Request{
		BuyerID:        userID(r.Context()),
		FiatAmount:     req.FiatAmount,
		CryptoAmount:   req.CryptoAmount,
		PaymentMethod:  req.PaymentMethod,
		AccountDetails: req.AccountDetails,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// GetUserOrders lists orders the caller takes part in
func (h *Handler) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	status := models.OrderStatus(r.URL.Query().Get("status"))
	list, err := h.Orders.List(r.Context(), orders.Filter{UserID: userID(r.Context()), Status: status})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetOrder returns one of the caller's orders
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Orders.GetFor(r.Context(), chi.URLParam(r, "id"), userID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// OrderAction applies a lifecycle action named in the path
func (h *Handler) OrderAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actor := userID(r.Context())

	var (
		order *models.Order
		err   error
	)
	switch chi.URLParam(r, "action") {
	case "paid":
		order, err = h.Orders.MarkPaid(r.Context(), id, actor)
	case "release":
		order, err = h.Orders.Release(r.Context(), id, actor)
	case "dispute":
		order, err = h.Orders.Dispute(r.Context(), id, actor)
	case "cancel":
		var req struct {
			Reason string `json:"reason"`
		}
		if r.ContentLength > 0 {
			if err := decode(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
		}
		order, err = h.Orders.Cancel(r.Context(), id, actor, req.Reason)
	default:
		writeError(w, http.StatusNotFound, "Unknown order action")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// FeeQuote prices the platform fee for ?amount=
func (h *Handler) FeeQuote(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a number")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"amount": amount,
		"fee":    h.Fees.Quote(amount),
		"config": h.Fees.Get(),
	})
}

// KYCStatus returns the caller's KYC standing
func (h *Handler) KYCStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Backoffice.KYCStatus(r.Context(), userID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// SubmitKYC files a KYC request for the caller
func (h *Handler) SubmitKYC(w http.ResponseWriter, r *http.Request) {
	var sub backoffice.KYCSubmission
	if err := decode(r, &sub); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req, err := h.Backoffice.SubmitKYC(r.Context(), userID(r.Context()), sub)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// MerchantStatus returns the caller's merchant application standing
func (h *Handler) MerchantStatus(w http.ResponseWriter, r *http.Request) {
	app, err := h.Backoffice.MerchantApplication(r.Context(), userID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// ApplyMerchant files a merchant application for the caller
func (h *Handler) ApplyMerchant(w http.ResponseWriter, r *http.Request) {
	var req backoffice.MerchantApplicationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	m, err := h.Backoffice.ApplyMerchant(r.Context(), userID(r.Context()), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// Announcements lists the active platform announcements
func (h *Handler) Announcements(w http.ResponseWriter, r *http.Request) {
	list, err := h.Backoffice.Announcements(r.Context(), true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
