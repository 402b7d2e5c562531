package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kinboost-api/internal/domain"
)

// Localized client messages.
const (
	msgInvalidEmail       = "Email invalide"
	msgMissingEmailConfig = "Configuration email manquante"
	msgCodeGeneration     = "Erreur lors de la génération du code"
	msgEmailSend          = "Erreur lors de l'envoi de l'email"
	msgCodeSent           = "Code envoyé"
	msgEmailAndCode       = "Email et code requis"
	msgInvalidCode        = "Code invalide ou expiré"
	msgVerification       = "Erreur de vérification"
	msgEmailAndPassword   = "Email et mot de passe requis"
	msgWeakPassword       = "Le mot de passe doit contenir au moins 6 caractères"
	msgEmailTaken         = "Cet email est déjà utilisé"
	msgAccountCreation    = "Erreur lors de la création du compte"
	msgUnexpected         = "Erreur inattendue"
	msgShopName           = "Le nom doit contenir au moins 3 caractères"
	msgShopExists         = "Vous avez déjà une boutique"
	msgShopCreation       = "Erreur lors de la création de la boutique"
	msgInvalidCredentials = "Email ou mot de passe incorrect"
	msgUnauthorized       = "Session invalide ou expirée"
)

// errorRule maps a sentinel to a status code and client message.
type errorRule struct {
	target error
	status int
	msg    string
}

var (
	sendOTPRules = []errorRule{
		{domain.ErrInvalidInput, http.StatusBadRequest, msgInvalidEmail},
		{domain.ErrConfig, http.StatusBadRequest, msgMissingEmailConfig},
		{domain.ErrStorage, http.StatusInternalServerError, msgCodeGeneration},
		{domain.ErrDelivery, http.StatusInternalServerError, msgEmailSend},
	}
	verifyOTPRules = []errorRule{
		{domain.ErrInvalidInput, http.StatusBadRequest, msgEmailAndCode},
		{domain.ErrInvalidOrExpiredCode, http.StatusBadRequest, msgInvalidCode},
		{domain.ErrStorage, http.StatusInternalServerError, msgVerification},
	}
	createAccountRules = []errorRule{
		{domain.ErrInvalidInput, http.StatusBadRequest, msgEmailAndPassword},
		{domain.ErrWeakPassword, http.StatusBadRequest, msgWeakPassword},
		{domain.ErrEmailTaken, http.StatusBadRequest, msgEmailTaken},
		{domain.ErrProvider, http.StatusInternalServerError, msgAccountCreation},
		{domain.ErrProfileCreationFailed, http.StatusInternalServerError, msgAccountCreation},
	}
	signInRules = []errorRule{
		{domain.ErrInvalidInput, http.StatusBadRequest, msgEmailAndPassword},
		{domain.ErrUnauthorized, http.StatusBadRequest, msgInvalidCredentials},
	}
	sessionRules = []errorRule{
		{domain.ErrUnauthorized, http.StatusUnauthorized, msgUnauthorized},
		{domain.ErrNotFound, http.StatusUnauthorized, msgUnauthorized},
	}
	createShopRules = []errorRule{
		{domain.ErrInvalidInput, http.StatusBadRequest, msgShopName},
		{domain.ErrShopExists, http.StatusConflict, msgShopExists},
		{domain.ErrStorage, http.StatusInternalServerError, msgShopCreation},
	}
)

// writeDomainError writes the first rule err matches, or a 500 with
// "Erreur inattendue". Internal error text never reaches the client.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, rules []errorRule) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			if rule.status >= http.StatusInternalServerError {
				slog.Error("request failed", "path", r.URL.Path, "err", err)
			}
			writeError(w, rule.status, rule.msg)
			return
		}
	}
	slog.Error("unexpected error", "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, msgUnexpected)
}
