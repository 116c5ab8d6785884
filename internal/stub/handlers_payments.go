package stub

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dealerflowpro/dealerflow-client/internal/entitlements"
	"github.com/dealerflowpro/dealerflow-client/internal/lib/sl"
	"github.com/dealerflowpro/dealerflow-client/internal/models"
)

// Цены тарифов за месяц; годовой цикл оплачивается за десять месяцев.
var planPrices = map[string]float64{
	models.PlanTrial:        0,
	models.PlanStarter:      99,
	models.PlanProfessional: 299,
	models.PlanEnterprise:   499,
}

var planNames = map[string]string{
	models.PlanTrial:        "Free Trial",
	models.PlanStarter:      "Starter",
	models.PlanProfessional: "Professional",
	models.PlanEnterprise:   "Enterprise",
}

func (s *Server) handleSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.store.SubscriptionFor(userID(r))
	if err != nil {
		respondError(w, r, http.StatusNotFound, "subscription not found")
		return
	}
	respondOK(w, r, map[string]any{"subscription": sub})
}

// handlePlans отдаёт каталог тарифов. Каталог строится из той же таблицы
// возможностей, что и клиентский запасной вариант.
func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	plans := make(map[string]models.Plan, len(entitlements.Plans()))
	for _, id := range entitlements.Plans() {
		plans[id] = models.Plan{
			Name:        planNames[id],
			Price:       planPrices[id],
			Features:    entitlements.Fallback(id),
			Recommended: id == models.PlanProfessional,
		}
	}
	respondOK(w, r, map[string]any{"plans": plans})
}

type upgradeRequest struct {
	Plan         string `json:"plan" validate:"required,oneof=starter professional enterprise"`
	BillingCycle string `json:"billing_cycle" validate:"required,oneof=monthly yearly"`
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	const op = "stub.handleUpgrade"
	log := s.log.With(slog.String("op", op))

	var req upgradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		respondError(w, r, http.StatusUnprocessableEntity, validationText(err))
		return
	}

	amount := planPrices[req.Plan]
	if req.BillingCycle == "yearly" {
		amount *= 10
	}

	intentID, paymentID := s.store.CreatePayment(userID(r), req.Plan, req.BillingCycle, amount)
	log.Info("payment intent created",
		slog.String("plan", req.Plan), slog.String("payment_id", paymentID))

	respondOK(w, r, map[string]any{
		"payment_intent": map[string]any{"id": intentID, "amount": amount},
		"payment_id":     paymentID,
	})
}

type confirmRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
	PaymentMethodID string `json:"payment_method_id" validate:"required"`
	PaymentID       string `json:"payment_id" validate:"required"`
	Plan            string `json:"plan" validate:"required"`
	BillingCycle    string `json:"billing_cycle" validate:"required"`
}

func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	const op = "stub.handleConfirmPayment"
	log := s.log.With(slog.String("op", op))

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		respondError(w, r, http.StatusUnprocessableEntity, validationText(err))
		return
	}

	if err := s.store.ConfirmPayment(userID(r), req.PaymentID, req.PaymentIntentID); err != nil {
		log.Error("payment confirmation failed", sl.Err(err))
		respondError(w, r, http.StatusOK, "Payment could not be confirmed")
		return
	}

	log.Info("subscription upgraded", slog.String("plan", req.Plan))
	respondOK(w, r, map[string]any{"message": "Subscription upgraded successfully"})
}

func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	const op = "stub.handleCancelSubscription"

	if err := s.store.CancelSubscription(userID(r)); err != nil {
		s.log.Error("cancellation failed", slog.String("op", op), sl.Err(err))
		respondError(w, r, http.StatusOK, "Cancellation failed")
		return
	}
	respondOK(w, r, map[string]any{"message": "Subscription cancelled successfully"})
}
