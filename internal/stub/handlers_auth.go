package stub

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"

	"github.com/dealerflowpro/dealerflow-client/internal/lib/sl"
)

// signupRequest — тело запроса регистрации.
type signupRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	DealershipName string `json:"dealership_name" validate:"required,min=2,max=100"`
	ContactName    string `json:"contact_name" validate:"required,min=2,max=100"`
	Phone          string `json:"phone" validate:"omitempty,min=7,max=20"`
}

// loginRequest — тело запроса входа.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	const op = "stub.handleSignup"
	log := s.log.With(slog.String("op", op))

	var req signupRequest
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

	user, err := s.store.CreateUser(req.Email, req.Password, req.DealershipName, req.ContactName, req.Phone)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			respondError(w, r, http.StatusConflict, "Email already registered")
			return
		}
		log.Error("failed to create user", sl.Err(err))
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		log.Error("failed to issue token", sl.Err(err))
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	log.Info("user registered", slog.String("email", user.Email))
	respondOK(w, r, map[string]any{
		"token":   token,
		"user":    user,
		"message": "Welcome to DealerFlow Pro!",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "stub.handleLogin"
	log := s.log.With(slog.String("op", op))

	var req loginRequest
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

	user, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		log.Error("login failed", sl.Err(err))
		respondError(w, r, http.StatusOK, "Invalid email or password")
		return
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		log.Error("failed to issue token", sl.Err(err))
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	log.Info("login success", slog.String("email", user.Email))
	respondOK(w, r, map[string]any{
		"token": token,
		"user":  user,
	})
}

// handleProfile возвращает профиль вместе с подпиской — вариант контракта,
// в котором восстановление сессии обходится одним запросом.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	const op = "stub.handleProfile"

	user, err := s.store.UserByID(userID(r))
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	payload := map[string]any{"user": user}
	if sub, err := s.store.SubscriptionFor(user.ID); err == nil {
		payload["subscription"] = sub
	} else {
		s.log.Warn("subscription missing for user", slog.String("op", op), sl.Err(err))
	}
	respondOK(w, r, payload)
}

// handleLogout подтверждает завершение сессии. Токены стаба не отзываются,
// для клиента вызов остаётся best-effort уведомлением.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.log.Info("logout", slog.Int("user_id", userID(r)))
	respondOK(w, r, nil)
}

// validationText приводит ошибки валидатора к человеко-читаемому тексту.
func validationText(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return "validation failed"
	}
	msg := ""
	for i, e := range errs {
		if i > 0 {
			msg += ", "
		}
		switch e.ActualTag() {
		case "required":
			msg += "field " + e.Field() + " is a required field"
		case "email":
			msg += "field " + e.Field() + " must be a valid email"
		case "min":
			msg += "field " + e.Field() + " is too short"
		case "max":
			msg += "field " + e.Field() + " is too long"
		default:
			msg += "field " + e.Field() + " is not valid"
		}
	}
	return msg
}
